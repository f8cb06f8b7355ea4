package ucan

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	didPrefix    = "did:"
	didKeyPrefix = "did:key:z"
)

// multicodec varint prefixes
var (
	ed25519PubCodec  = []byte{0xed, 0x01}
	ed25519PrivCodec = []byte{0x80, 0x26}
)

var (
	ErrInvalidDID = errors.New("ucan: invalid did")
	ErrInvalidKey = errors.New("ucan: invalid key")
)

// DIDFromPublicKey encodes an ed25519 public key as did:key.
func DIDFromPublicKey(pub ed25519.PublicKey) string {
	buf := make([]byte, 0, len(ed25519PubCodec)+len(pub))
	buf = append(buf, ed25519PubCodec...)
	buf = append(buf, pub...)
	return didKeyPrefix + base58.Encode(buf)
}

// PublicKeyFromDID decodes a did:key holding an ed25519 key.
func PublicKeyFromDID(did string) (ed25519.PublicKey, error) {
	s := strings.TrimSpace(did)
	if !strings.HasPrefix(s, didKeyPrefix) {
		return nil, fmt.Errorf("%w: %q is not an ed25519 did:key", ErrInvalidDID, did)
	}

	raw, err := base58.Decode(strings.TrimPrefix(s, didKeyPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDID, err)
	}
	if len(raw) != len(ed25519PubCodec)+ed25519.PublicKeySize ||
		raw[0] != ed25519PubCodec[0] || raw[1] != ed25519PubCodec[1] {
		return nil, fmt.Errorf("%w: unexpected key encoding (len=%d)", ErrInvalidDID, len(raw))
	}

	return ed25519.PublicKey(raw[len(ed25519PubCodec):]), nil
}

// ValidateDID accepts any did method; did:key values must also decode.
func ValidateDID(did string) error {
	s := strings.TrimSpace(did)
	if !strings.HasPrefix(s, didPrefix) || len(s) <= len(didPrefix) {
		return fmt.Errorf("%w: %q", ErrInvalidDID, did)
	}
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return fmt.Errorf("%w: %q", ErrInvalidDID, did)
	}
	if parts[1] == "key" {
		if _, err := PublicKeyFromDID(s); err != nil {
			return err
		}
	}
	return nil
}
