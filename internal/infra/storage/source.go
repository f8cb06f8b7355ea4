// internal/infra/storage/source.go
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	delegationdom "launchpad/internal/domain/delegation"
	"launchpad/internal/infra/logging"
	"launchpad/internal/infra/ucan"
)

var (
	ErrNoSpace           = errors.New("storage: delegation proof did not specify a space")
	ErrDelegationRequest = errors.New("storage: delegation request failed")
)

// DelegationPath is the service route that hands out session delegations.
const DelegationPath = "/api/w3up-delegation"

// Space は現在の upload 先スペースと、その権限を示す証明の組です。
type Space struct {
	DID    string
	Proofs []*ucan.Delegation
}

// SpaceSource acquires upload rights for agent. Implementations are mutually
// exclusive strategies; a Client runs exactly one of them.
type SpaceSource interface {
	Acquire(ctx context.Context, agent *ucan.Principal) (Space, error)
}

// ============================================================
// DelegationSource: backend から短期 delegation を受け取る
// ============================================================

type DelegationSource struct {
	client       *http.Client
	endpoint     string
	capabilities []string
}

// NewDelegationSource posts to apiURL + DelegationPath.
func NewDelegationSource(apiURL string) *DelegationSource {
	return &DelegationSource{
		client:       &http.Client{Timeout: 30 * time.Second},
		endpoint:     strings.TrimRight(strings.TrimSpace(apiURL), "/") + DelegationPath,
		capabilities: delegationdom.DefaultCapabilities,
	}
}

func (s *DelegationSource) WithHTTPClient(c *http.Client) *DelegationSource {
	if c != nil {
		s.client = c
	}
	return s
}

func (s *DelegationSource) Acquire(ctx context.Context, agent *ucan.Principal) (Space, error) {
	body, err := json.Marshal(delegationdom.NewRequest(agent.DID(), s.capabilities))
	if err != nil {
		return Space{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return Space{}, fmt.Errorf("%w: %v", ErrDelegationRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Space{}, fmt.Errorf("%w: %v", ErrDelegationRequest, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Space{}, fmt.Errorf("%w: read body: %v", ErrDelegationRequest, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Space{}, fmt.Errorf("%w: status=%d", ErrDelegationRequest, resp.StatusCode)
	}

	d, err := ucan.Parse(string(raw))
	if err != nil {
		return Space{}, fmt.Errorf("%w: %v", ErrDelegationRequest, err)
	}
	space := strings.TrimSpace(d.Capabilities[0].With)
	if space == "" {
		return Space{}, ErrNoSpace
	}
	if err := d.Verify(agent.DID()); err != nil {
		return Space{}, fmt.Errorf("%w: %v", ErrDelegationRequest, err)
	}

	log.WithFields(log.Fields{
		"agent": logging.MaskShort(agent.DID()),
		"space": logging.MaskShort(space),
		"exp":   d.Expiration.UTC().Format(time.RFC3339),
	}).Info("[storage] delegation received")

	return Space{DID: space, Proofs: []*ucan.Delegation{d}}, nil
}

// ============================================================
// EmailLoginSource: メールログインでスペースを直接作成する
// ============================================================

const (
	defaultClaimInterval = 3 * time.Second
	spaceProofTTL        = 365 * 24 * time.Hour
	invocationTTL        = 5 * time.Minute
)

type EmailLoginSource struct {
	gateway       *Gateway
	email         string
	serviceDID    string
	claimInterval time.Duration
	now           func() time.Time
}

func NewEmailLoginSource(gw *Gateway, email, serviceDID string) *EmailLoginSource {
	return &EmailLoginSource{
		gateway:       gw,
		email:         strings.TrimSpace(email),
		serviceDID:    strings.TrimSpace(serviceDID),
		claimInterval: defaultClaimInterval,
		now:           time.Now,
	}
}

// WithClaimInterval sets how often the claim endpoint is polled.
func (s *EmailLoginSource) WithClaimInterval(d time.Duration) *EmailLoginSource {
	if d > 0 {
		s.claimInterval = d
	}
	return s
}

func (s *EmailLoginSource) Acquire(ctx context.Context, agent *ucan.Principal) (Space, error) {
	if s.email == "" {
		return Space{}, fmt.Errorf("storage: login email is empty")
	}

	if err := s.gateway.Login(ctx, s.email, agent.DID()); err != nil {
		return Space{}, err
	}
	log.WithField("email", s.email).Info("[storage] login email sent; waiting for confirmation")

	accountProofs, err := s.waitForClaim(ctx, agent)
	if err != nil {
		return Space{}, err
	}
	account := accountProofs[0].Issuer

	space, err := ucan.GeneratePrincipal()
	if err != nil {
		return Space{}, err
	}
	root, err := ucan.Delegate(ucan.DelegateParams{
		Issuer:       space,
		Audience:     agent.DID(),
		Capabilities: []ucan.Capability{{With: space.DID(), Can: "*"}},
		Expiration:   s.now().Add(spaceProofTTL),
	})
	if err != nil {
		return Space{}, err
	}

	inv, err := ucan.Delegate(ucan.DelegateParams{
		Issuer:       agent,
		Audience:     s.serviceDID,
		Capabilities: []ucan.Capability{{With: account, Can: "provider/add"}},
		Proofs:       accountProofs,
		Expiration:   s.now().Add(invocationTTL),
	})
	if err != nil {
		return Space{}, err
	}
	if err := s.gateway.Provision(ctx, inv.Token(), account, space.DID()); err != nil {
		return Space{}, err
	}

	log.WithFields(log.Fields{
		"account": account,
		"space":   logging.MaskShort(space.DID()),
	}).Info("[storage] space provisioned")

	return Space{DID: space.DID(), Proofs: []*ucan.Delegation{root}}, nil
}

func (s *EmailLoginSource) waitForClaim(ctx context.Context, agent *ucan.Principal) ([]*ucan.Delegation, error) {
	ticker := time.NewTicker(s.claimInterval)
	defer ticker.Stop()

	for {
		tokens, err := s.gateway.Claim(ctx, agent.DID())
		switch {
		case err == nil:
			proofs := make([]*ucan.Delegation, 0, len(tokens))
			for _, t := range tokens {
				d, err := ucan.Parse(t)
				if err != nil {
					return nil, fmt.Errorf("parse account delegation: %w", err)
				}
				if d.Audience != agent.DID() {
					continue
				}
				proofs = append(proofs, d)
			}
			if len(proofs) == 0 {
				return nil, fmt.Errorf("storage: no account delegation for %s", agent.DID())
			}
			return proofs, nil
		case !errors.Is(err, ErrClaimPending):
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
