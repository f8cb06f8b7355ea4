// internal/application/usecase/context.go
package usecase

import (
	"context"
	"strings"
)

// usecase 層で使う context key
type ctxKey string

const ctxKeyUID ctxKey = "uid"

// ミドルウェアなど外側から認証済み uid を注入するためのヘルパー
func WithUID(ctx context.Context, uid string) context.Context {
	v := strings.TrimSpace(uid)
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyUID, v)
}

// usecase 内部で uid を取り出すためのヘルパー
func UIDFromContext(ctx context.Context) string {
	v := ctx.Value(ctxKeyUID)
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
