// internal/domain/delegation/entity.go
package delegation

import (
	"errors"
	"strings"
)

// Capability names requested by the upload client.
const (
	CanBlobAdd       = "space/blob/add"
	CanUploadAdd     = "upload/add"
	CanIndexAdd      = "space/index/add"
	CanFilecoinOffer = "filecoin/offer"
)

// DefaultCapabilities is the fixed list the storage client asks for.
var DefaultCapabilities = []string{
	CanBlobAdd,
	CanUploadAdd,
	CanIndexAdd,
	CanFilecoinOffer,
}

// CapabilityRequest is one `{ can }` entry of a delegation request.
type CapabilityRequest struct {
	Can string `json:"can"`
}

// Request is the body of POST /api/w3up-delegation.
type Request struct {
	Audience string              `json:"audience"`
	Caps     []CapabilityRequest `json:"caps"`
}

var (
	ErrInvalidAudience     = errors.New("delegation: invalid audience")
	ErrNoCapabilities      = errors.New("delegation: no capabilities requested")
	ErrInvalidCapability   = errors.New("delegation: invalid capability")
	ErrTooManyCapabilities = errors.New("delegation: too many capabilities")
)

// MaxCapabilities bounds a single request.
const MaxCapabilities = 16

// NewRequest builds a request for the given audience and ability names.
func NewRequest(audience string, cans []string) Request {
	caps := make([]CapabilityRequest, 0, len(cans))
	for _, c := range cans {
		caps = append(caps, CapabilityRequest{Can: c})
	}
	return Request{Audience: audience, Caps: caps}
}

// Validate checks shape only; DID decoding happens in the usecase.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Audience) == "" {
		return ErrInvalidAudience
	}
	if len(r.Caps) == 0 {
		return ErrNoCapabilities
	}
	if len(r.Caps) > MaxCapabilities {
		return ErrTooManyCapabilities
	}
	for _, c := range r.Caps {
		if strings.TrimSpace(c.Can) == "" {
			return ErrInvalidCapability
		}
	}
	return nil
}

// Abilities returns the trimmed, de-duplicated ability names in request order.
func (r Request) Abilities() []string {
	seen := make(map[string]struct{}, len(r.Caps))
	out := make([]string, 0, len(r.Caps))
	for _, c := range r.Caps {
		can := strings.TrimSpace(c.Can)
		if can == "" {
			continue
		}
		if _, ok := seen[can]; ok {
			continue
		}
		seen[can] = struct{}{}
		out = append(out, can)
	}
	return out
}
