// internal/infra/storage/gateway.go
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	launchdom "launchpad/internal/domain/launch"
)

var (
	ErrGatewayNotConfigured = errors.New("storage: gateway not configured")
	ErrNoContentAddress     = errors.New("storage: upload response has no content address")
	ErrClaimPending         = errors.New("storage: account login not confirmed yet")
)

// Gateway は ストレージネットワークの HTTP API を叩く実装です。
type Gateway struct {
	client  *http.Client
	baseURL string
}

// NewGateway は gateway 用の HTTP クライアントを生成します。
func NewGateway(baseURL string) *Gateway {
	return &Gateway{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

// WithHTTPClient swaps the HTTP client (tests, custom transports).
func (g *Gateway) WithHTTPClient(c *http.Client) *Gateway {
	if c != nil {
		g.client = c
	}
	return g
}

func (g *Gateway) do(ctx context.Context, method, path, bearer, contentType string, body io.Reader) (int, []byte, error) {
	if g == nil || g.baseURL == "" {
		return 0, nil, ErrGatewayNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

// Upload POSTs f to /upload authorized by invocation and returns its content address.
func (g *Gateway) Upload(ctx context.Context, invocation string, f launchdom.File) (string, error) {
	if len(f.Data) == 0 {
		return "", fmt.Errorf("storage: file %q is empty", f.Name)
	}

	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}

	path := "/upload"
	if name := strings.TrimSpace(f.Name); name != "" {
		path += "?name=" + url.QueryEscape(name)
	}

	status, body, err := g.do(ctx, http.MethodPost, path, invocation, ct, bytes.NewReader(f.Data))
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		log.WithFields(log.Fields{"status": status, "body": string(body)}).Error("[storage] upload FAILED")
		return "", fmt.Errorf("upload failed: status=%d body=%s", status, string(body))
	}

	var res struct {
		CID string `json:"cid"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if strings.TrimSpace(res.CID) == "" {
		return "", ErrNoContentAddress
	}

	log.WithFields(log.Fields{"name": f.Name, "size": len(f.Data), "cid": res.CID}).Info("[storage] upload OK")
	return res.CID, nil
}

// Login starts an email login for agent.
func (g *Gateway) Login(ctx context.Context, email, agentDID string) error {
	b, err := json.Marshal(map[string]string{"email": email, "agent": agentDID})
	if err != nil {
		return err
	}
	status, body, err := g.do(ctx, http.MethodPost, "/account/login", "", "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("login failed: status=%d body=%s", status, string(body))
	}
	return nil
}

// Claim returns the account delegations for agent, or ErrClaimPending while
// the login link has not been followed.
func (g *Gateway) Claim(ctx context.Context, agentDID string) ([]string, error) {
	status, body, err := g.do(ctx, http.MethodGet, "/account/claim?agent="+url.QueryEscape(agentDID), "", "", nil)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNotFound || status == http.StatusAccepted:
		return nil, ErrClaimPending
	case status < 200 || status >= 300:
		return nil, fmt.Errorf("claim failed: status=%d body=%s", status, string(body))
	}

	var res struct {
		Delegations []string `json:"delegations"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode claim response: %w", err)
	}
	if len(res.Delegations) == 0 {
		return nil, ErrClaimPending
	}
	return res.Delegations, nil
}

// Provision registers space under account, authorized by invocation.
func (g *Gateway) Provision(ctx context.Context, invocation, accountDID, spaceDID string) error {
	b, err := json.Marshal(map[string]string{"account": accountDID, "space": spaceDID})
	if err != nil {
		return err
	}
	status, body, err := g.do(ctx, http.MethodPost, "/space/provision", invocation, "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("provision failed: status=%d body=%s", status, string(body))
	}
	return nil
}
