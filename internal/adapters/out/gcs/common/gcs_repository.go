// internal/adapters/out/gcs/common/gcs_repository.go
package common

import (
	"fmt"
	"strings"
)

// GCSPublicURL builds a public GCS URL.
// - bucket が空なら defaultBucket を使用
// - objectPath の先頭の "/" は除去
func GCSPublicURL(bucket, objectPath, defaultBucket string) string {
	b := strings.TrimSpace(bucket)
	if b == "" {
		b = strings.TrimSpace(defaultBucket)
	}
	obj := strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b, obj)
}

// JoinObjectPath joins a prefix and a name with exactly one "/".
// 空の prefix は無視します。
func JoinObjectPath(prefix, name string) string {
	p := strings.Trim(strings.TrimSpace(prefix), "/")
	n := strings.TrimLeft(strings.TrimSpace(name), "/")
	if p == "" {
		return n
	}
	return p + "/" + n
}
