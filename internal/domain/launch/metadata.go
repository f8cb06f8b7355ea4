// internal/domain/launch/metadata.go
package launch

import (
	"fmt"
	"strconv"
	"time"
)

// Attribute is one `{ trait_type, value }` pair.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

type FileRef struct {
	URI  string `json:"uri"`
	Type string `json:"type"`
}

type Creator struct {
	Address string `json:"address"`
	Share   int    `json:"share"`
}

type Properties struct {
	Files    []FileRef `json:"files"`
	Category string    `json:"category"`
	Creators []Creator `json:"creators"`
}

// OffChainMetadata is the JSON document referenced by the on-chain metadata uri.
type OffChainMetadata struct {
	Name       string      `json:"name"`
	Symbol     string      `json:"symbol"`
	Image      string      `json:"image"`
	Attributes []Attribute `json:"attributes"`
	Properties Properties  `json:"properties"`
}

// NewOffChainMetadata builds the metadata document for a validated form.
func NewOffChainMetadata(f Form, imageURI string, creator string) OffChainMetadata {
	imageType := ""
	if f.Image != nil {
		imageType = f.Image.ContentType
	}

	return OffChainMetadata{
		Name:   f.Name,
		Symbol: f.Symbol,
		Image:  imageURI,
		Attributes: []Attribute{
			{TraitType: "Decimals", Value: Decimals},
			{TraitType: "Initial Supply", Value: FormatSupply(f.InitialSupply)},
			{TraitType: "Program", Value: "Token 2022"},
		},
		Properties: Properties{
			Files:    []FileRef{{URI: imageURI, Type: imageType}},
			Category: "image",
			Creators: []Creator{{Address: creator, Share: 100}},
		},
	}
}

// FormatSupply groups digits in threes ("1,000,000").
func FormatSupply(n uint64) string {
	s := strconv.FormatUint(n, 10)
	if len(s) <= 3 {
		return s
	}

	head := len(s) % 3
	if head == 0 {
		head = 3
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	out = append(out, s[:head]...)
	for i := head; i < len(s); i += 3 {
		out = append(out, ',')
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}

// MetadataFileName names the uploaded JSON document.
func MetadataFileName(t time.Time) string {
	return fmt.Sprintf("metadata_%d.json", t.UnixMilli())
}

