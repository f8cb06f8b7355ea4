// internal/adapters/out/http/launch_record_client.go
package httpout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	launchdom "launchpad/internal/domain/launch"
)

// LaunchRecordClient implements launch.Recorder against POST /api/launches.
type LaunchRecordClient struct {
	baseURL string
	idToken string
	client  *http.Client
}

type launchRecordPayload struct {
	Mint        string    `json:"mint"`
	Signature   string    `json:"signature"`
	Name        string    `json:"name"`
	Symbol      string    `json:"symbol"`
	MetadataURI string    `json:"metadataUri"`
	ImageURI    string    `json:"imageUri"`
	Creator     string    `json:"creator"`
	Cluster     string    `json:"cluster"`
	CreatedAt   time.Time `json:"createdAt"`
}

// baseURL example:
// - Cloud Run: https://xxxxx.asia-northeast1.run.app
// - local: http://localhost:3001
//
// idToken は任意（REQUIRE_AUTH のサーバ向け Firebase ID トークン）。
func NewLaunchRecordClient(baseURL, idToken string) *LaunchRecordClient {
	return &LaunchRecordClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		idToken: strings.TrimSpace(idToken),
		// 署名確認つきで記録するので confirm より少し長め
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient swaps the transport (tests).
func (c *LaunchRecordClient) WithHTTPClient(h *http.Client) *LaunchRecordClient {
	if h != nil {
		c.client = h
	}
	return c
}

func (c *LaunchRecordClient) Record(ctx context.Context, r launchdom.Record) error {
	if c == nil {
		return fmt.Errorf("launch record client is nil")
	}
	if c.baseURL == "" {
		return fmt.Errorf("launch record client baseURL is empty")
	}

	b, err := json.Marshal(launchRecordPayload{
		Mint:        r.Mint,
		Signature:   r.Signature,
		Name:        r.Name,
		Symbol:      r.Symbol,
		MetadataURI: r.MetadataURI,
		ImageURI:    r.ImageURI,
		Creator:     r.Creator,
		Cluster:     r.Cluster,
		CreatedAt:   r.CreatedAt.UTC(),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/launches", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.idToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.idToken)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	// 201 Created, or 409 when the mint is already recorded
	if res.StatusCode == http.StatusCreated || res.StatusCode == http.StatusConflict {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	return fmt.Errorf("launch record failed status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
}
