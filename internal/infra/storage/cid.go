// internal/infra/storage/cid.go
package storage

import (
	"crypto/sha256"
	"encoding/base32"
	"strings"
)

// CIDv1 prefix: version 1, raw codec (0x55), sha2-256 (0x12), 32-byte digest
var rawSHA256Prefix = []byte{0x01, 0x55, 0x12, 0x20}

var base32Lower = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// ContentAddress returns the CIDv1 (raw, sha2-256, base32 "b...") of data.
func ContentAddress(data []byte) string {
	sum := sha256.Sum256(data)
	buf := make([]byte, 0, len(rawSHA256Prefix)+len(sum))
	buf = append(buf, rawSHA256Prefix...)
	buf = append(buf, sum[:]...)
	return "b" + base32Lower.EncodeToString(buf)
}

// IsContentAddress is a shape check for CIDv1 base32 strings.
func IsContentAddress(s string) bool {
	v := strings.TrimSpace(s)
	if len(v) < 2 || v[0] != 'b' {
		return false
	}
	_, err := base32Lower.DecodeString(v[1:])
	return err == nil
}
