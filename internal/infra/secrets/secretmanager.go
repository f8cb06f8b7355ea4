// internal/infra/secrets/secretmanager.go
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretspb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

var (
	ErrNotConfigured = errors.New("secrets: not configured")
	ErrEmptySecret   = errors.New("secrets: secret payload is empty")
)

// Accessor reads one secret version by full name.
type Accessor interface {
	Access(ctx context.Context, name string) ([]byte, error)
}

// SecretManager は GCP Secret Manager の薄いラッパです。
// クライアントは初回アクセス時に生成します。
type SecretManager struct {
	opts []option.ClientOption

	mu     sync.Mutex
	client *secretmanager.Client
}

func NewSecretManager(credentialsFile string) *SecretManager {
	var opts []option.ClientOption
	if f := strings.TrimSpace(credentialsFile); f != "" {
		opts = append(opts, option.WithCredentialsFile(f))
	}
	return &SecretManager{opts: opts}
}

func (s *SecretManager) getClient(ctx context.Context) (*secretmanager.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	c, err := secretmanager.NewClient(ctx, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("secretmanager.NewClient: %w", err)
	}
	s.client = c
	return c, nil
}

// Access accepts "projects/<PROJECT_ID>/secrets/<SECRET_ID>/versions/<v>".
func (s *SecretManager) Access(ctx context.Context, name string) ([]byte, error) {
	if s == nil {
		return nil, ErrNotConfigured
	}
	n := strings.TrimSpace(name)
	if n == "" {
		return nil, fmt.Errorf("%w: secret name is empty", ErrNotConfigured)
	}

	c, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.AccessSecretVersion(ctx, &secretspb.AccessSecretVersionRequest{Name: n})
	if err != nil {
		return nil, fmt.Errorf("AccessSecretVersion %s: %w", n, err)
	}
	if resp == nil || resp.Payload == nil || len(resp.Payload.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySecret, n)
	}
	return resp.Payload.Data, nil
}

func (s *SecretManager) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// Resolve returns value when set, otherwise the payload of secretName.
// Both empty yields "", nil so callers decide whether the value is required.
func Resolve(ctx context.Context, a Accessor, value, secretName string) (string, error) {
	if v := strings.TrimSpace(value); v != "" {
		return v, nil
	}
	name := strings.TrimSpace(secretName)
	if name == "" {
		return "", nil
	}
	if a == nil {
		return "", ErrNotConfigured
	}

	b, err := a.Access(ctx, name)
	if err != nil {
		return "", err
	}
	log.WithField("secret", name).Info("[secrets] resolved from Secret Manager")
	return strings.TrimSpace(string(b)), nil
}
