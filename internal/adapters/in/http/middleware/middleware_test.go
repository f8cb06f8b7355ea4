package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"

	usecase "launchpad/internal/application/usecase"
)

type fakeVerifier struct{}

func (fakeVerifier) VerifyIDToken(_ context.Context, tok string) (*fbauth.Token, error) {
	if tok != "good" {
		return nil, errors.New("bad token")
	}
	return &fbauth.Token{UID: "uid-1", Claims: map[string]interface{}{"email": "a@example.com"}}, nil
}

func TestUserAuth(t *testing.T) {
	m := &UserAuthMiddleware{FirebaseAuth: fakeVerifier{}}
	var uid, ucUID, email string
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, _ = CurrentUserUID(r)
		email, _ = CurrentUserEmail(r)
		ucUID = usecase.UIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer ", http.StatusUnauthorized},
		{"Bearer nope", http.StatusUnauthorized},
		{"Bearer good", http.StatusNoContent},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/launches", nil)
		if c.header != "" {
			req.Header.Set("Authorization", c.header)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, c.want, rr.Code, c.header)
	}
	assert.Equal(t, "uid-1", uid)
	assert.Equal(t, "uid-1", ucUID)
	assert.Equal(t, "a@example.com", email)

	var nilM *UserAuthMiddleware
	rr := httptest.NewRecorder()
	nilM.Handler(http.NotFoundHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rr.Body.String())
}

func TestRequestLogSetsID(t *testing.T) {
	h := RequestLog(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Len(t, rr.Header().Get(HeaderRequestID), 36)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "abc")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc", rr.Header().Get(HeaderRequestID))
}

func TestCORSPreflight(t *testing.T) {
	h := CORS(nil)(http.NotFoundHandler())
	req := httptest.NewRequest(http.MethodOptions, "/api/w3up-delegation", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
