// internal/domain/launch/form.go
package launch

import (
	"errors"
	"math"
	"strings"
	"unicode/utf8"
)

// Fixed token parameters
const (
	Decimals        = 9
	MaxNameLength   = 20
	MaxSymbolLength = 10
	MaxImageSize    = 300 * 1024
)

// AllowedImageTypes mirrors the file picker's accept list.
var AllowedImageTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/gif":  {},
}

var (
	ErrNameRequired   = errors.New("launch: name is required")
	ErrNameTooLong    = errors.New("launch: name is too long")
	ErrSymbolRequired = errors.New("launch: symbol is required")
	ErrSymbolTooLong  = errors.New("launch: symbol is too long")
	ErrImageRequired  = errors.New("launch: image is required")
	ErrImageTooLarge  = errors.New("launch: image is too large")
	ErrImageType      = errors.New("launch: unsupported image type")
	ErrSupplyRequired = errors.New("launch: initial supply must be greater than zero")
	ErrSupplyTooLarge = errors.New("launch: initial supply is too large")
)

// File is an uploaded blob with its MIME type.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f File) Size() int64 { return int64(len(f.Data)) }

// Form is the token creation form.
type Form struct {
	Name          string
	Symbol        string
	Image         *File
	InitialSupply uint64
}

// Validate reports the first invalid field.
func (f Form) Validate() error {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return ErrNameRequired
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrNameTooLong
	}

	symbol := strings.TrimSpace(f.Symbol)
	if symbol == "" {
		return ErrSymbolRequired
	}
	if utf8.RuneCountInString(symbol) > MaxSymbolLength {
		return ErrSymbolTooLong
	}

	if err := ValidateImage(f.Image); err != nil {
		return err
	}

	if f.InitialSupply == 0 {
		return ErrSupplyRequired
	}
	if _, err := f.BaseUnits(); err != nil {
		return err
	}
	return nil
}

// IsComplete reports whether every field holds a valid value.
func (f Form) IsComplete() bool {
	return f.Validate() == nil
}

// ValidateImage checks presence, MIME type and size.
func ValidateImage(img *File) error {
	if img == nil || len(img.Data) == 0 {
		return ErrImageRequired
	}
	if _, ok := AllowedImageTypes[strings.ToLower(strings.TrimSpace(img.ContentType))]; !ok {
		return ErrImageType
	}
	if img.Size() > MaxImageSize {
		return ErrImageTooLarge
	}
	return nil
}

// BaseUnits returns InitialSupply * 10^Decimals.
func (f Form) BaseUnits() (uint64, error) {
	const factor = uint64(1_000_000_000)
	if f.InitialSupply > math.MaxUint64/factor {
		return 0, ErrSupplyTooLarge
	}
	return f.InitialSupply * factor, nil
}

// Normalized returns a copy with trimmed text fields.
func (f Form) Normalized() Form {
	f.Name = strings.TrimSpace(f.Name)
	f.Symbol = strings.TrimSpace(f.Symbol)
	return f
}
