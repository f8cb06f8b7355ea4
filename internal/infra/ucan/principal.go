package ucan

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// Principal is an ed25519 signing identity addressed by its did:key.
type Principal struct {
	priv ed25519.PrivateKey
	did  string
}

// GeneratePrincipal creates a fresh identity.
func GeneratePrincipal() (*Principal, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return NewPrincipal(priv), nil
}

func NewPrincipal(priv ed25519.PrivateKey) *Principal {
	pub := priv.Public().(ed25519.PublicKey)
	return &Principal{priv: priv, did: DIDFromPublicKey(pub)}
}

func (p *Principal) DID() string { return p.did }

func (p *Principal) PublicKey() ed25519.PublicKey {
	return p.priv.Public().(ed25519.PublicKey)
}

func (p *Principal) PrivateKey() ed25519.PrivateKey { return p.priv }

// ParsePrincipal restores a principal from one of:
//   - multibase "M..." (base64pad of 0x8026 || seed || 0xed01 || pub), as printed by `w3 key create`
//   - a Solana CLI keypair JSON array ([u8;64])
//   - base58 of the 64-byte secret key
func ParsePrincipal(s string) (*Principal, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidKey)
	}

	if strings.HasPrefix(v, "M") {
		// base58 keys may also start with "M"; fall through when the multibase form does not decode
		if p, err := parseMultibaseKey(v[1:]); err == nil {
			return p, nil
		} else if _, b58err := base58.Decode(v); b58err != nil {
			return nil, err
		}
	}

	switch {
	case strings.HasPrefix(v, "["):
		var ints []int
		if err := json.Unmarshal([]byte(v), &ints); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		b := make([]byte, len(ints))
		for i, n := range ints {
			if n < 0 || n > 255 {
				return nil, fmt.Errorf("%w: byte out of range at %d: %d", ErrInvalidKey, i, n)
			}
			b[i] = byte(n)
		}
		return principalFromSecret(b)
	default:
		b, err := base58.Decode(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return principalFromSecret(b)
	}
}

func parseMultibaseKey(body string) (*Principal, error) {
	raw, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	want := len(ed25519PrivCodec) + ed25519.SeedSize + len(ed25519PubCodec) + ed25519.PublicKeySize
	if len(raw) != want {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, want, len(raw))
	}
	if !bytes.Equal(raw[:2], ed25519PrivCodec) {
		return nil, fmt.Errorf("%w: not an ed25519 private key", ErrInvalidKey)
	}

	seed := raw[2 : 2+ed25519.SeedSize]
	pubPart := raw[2+ed25519.SeedSize:]
	if !bytes.Equal(pubPart[:2], ed25519PubCodec) {
		return nil, fmt.Errorf("%w: missing public key tag", ErrInvalidKey)
	}

	priv := ed25519.NewKeyFromSeed(seed)
	if !bytes.Equal(priv.Public().(ed25519.PublicKey), pubPart[2:]) {
		return nil, fmt.Errorf("%w: public key does not match seed", ErrInvalidKey)
	}
	return NewPrincipal(priv), nil
}

func principalFromSecret(b []byte) (*Principal, error) {
	if len(b) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, ed25519.PrivateKeySize, len(b))
	}
	priv := ed25519.NewKeyFromSeed(b[:ed25519.SeedSize])
	if !bytes.Equal(priv, b) {
		return nil, fmt.Errorf("%w: public key does not match seed", ErrInvalidKey)
	}
	return NewPrincipal(priv), nil
}

// FormatPrincipal writes the multibase form accepted by ParsePrincipal.
func FormatPrincipal(p *Principal) string {
	buf := make([]byte, 0, 68)
	buf = append(buf, ed25519PrivCodec...)
	buf = append(buf, p.priv.Seed()...)
	buf = append(buf, ed25519PubCodec...)
	buf = append(buf, p.PublicKey()...)
	return "M" + base64.StdEncoding.EncodeToString(buf)
}
