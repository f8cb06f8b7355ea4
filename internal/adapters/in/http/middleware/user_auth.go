// internal/adapters/in/http/middleware/user_auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	log "github.com/sirupsen/logrus"

	usecase "launchpad/internal/application/usecase"
)

// FirebaseAuthClient は firebase auth クライアントのエイリアス。
type FirebaseAuthClient = fbauth.Client

// IDTokenVerifier is satisfied by *FirebaseAuthClient.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// context key は string を使わず、衝突回避のため独自型を使用（SA1029 対策）
type ctxKey struct{ name string }

var (
	ctxKeyUID   = ctxKey{name: "uid"}
	ctxKeyEmail = ctxKey{name: "email"}
)

// UserAuthMiddleware verifies a Firebase ID token and stores uid/email in context.
// Launch records を書き込む POST にだけ掛けます。
type UserAuthMiddleware struct {
	FirebaseAuth IDTokenVerifier
}

func (m *UserAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil || m.FirebaseAuth == nil {
			http.Error(w, "user auth middleware not initialized", http.StatusServiceUnavailable)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "unauthorized: missing bearer token", http.StatusUnauthorized)
			return
		}

		idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if idToken == "" {
			http.Error(w, "unauthorized: empty bearer token", http.StatusUnauthorized)
			return
		}

		// Firebase ID token verification
		token, err := m.FirebaseAuth.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			log.WithError(err).WithField("path", r.URL.Path).Warn("[user_auth] invalid token")
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		uid := strings.TrimSpace(token.UID)
		if uid == "" {
			http.Error(w, "invalid uid in token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUID, uid)
		ctx = usecase.WithUID(ctx, uid)

		// email (optional)
		if emailRaw, ok := token.Claims["email"]; ok {
			if e, ok2 := emailRaw.(string); ok2 && strings.TrimSpace(e) != "" {
				ctx = context.WithValue(ctx, ctxKeyEmail, strings.TrimSpace(e))
			}
		}

		log.WithFields(log.Fields{"path": r.URL.Path, "uid": uid}).Debug("[user_auth] verified")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CurrentUserUID returns the verified uid.
func CurrentUserUID(r *http.Request) (string, bool) {
	v, ok := r.Context().Value(ctxKeyUID).(string)
	return v, ok && v != ""
}

// CurrentUserEmail returns the email claim when the token carried one.
func CurrentUserEmail(r *http.Request) (string, bool) {
	v, ok := r.Context().Value(ctxKeyEmail).(string)
	return v, ok && v != ""
}
