// internal/application/delegation/usecase.go
package delegation

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	delegationdom "launchpad/internal/domain/delegation"
	"launchpad/internal/infra/logging"
	"launchpad/internal/infra/ucan"
)

// DefaultTTL is how long an issued delegation stays valid.
const DefaultTTL = 98 * time.Hour

var (
	ErrNotConfigured          = errors.New("delegation: authority is not configured")
	ErrInvalidRequest         = errors.New("delegation: invalid request")
	ErrCapabilityNotDelegated = errors.New("delegation: capability not covered by root proof")
)

// ============================================================
// Usecase
// ============================================================

type Usecase struct {
	authority *Authority
	ttl       time.Duration
	now       func() time.Time
}

// NewUsecase accepts a nil authority; Issue then reports ErrNotConfigured.
func NewUsecase(authority *Authority, ttl time.Duration) *Usecase {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Usecase{authority: authority, ttl: ttl, now: time.Now}
}

// SetClock は テスト用に時刻を差し替えます。
func (u *Usecase) SetClock(now func() time.Time) {
	if u == nil || now == nil {
		return
	}
	u.now = now
}

func (u *Usecase) Configured() bool {
	return u != nil && u.authority != nil
}

// Issue signs a delegation from the agent to req.Audience for the requested
// abilities on the authority's space, expiring now + ttl but never after the
// root proof. An expired root proof reports ErrNotConfigured.
func (u *Usecase) Issue(ctx context.Context, req delegationdom.Request) (*ucan.Delegation, error) {
	if !u.Configured() {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := ucan.ValidateDID(req.Audience); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	now := u.now()
	root := u.authority.Proof()
	if !now.Before(root.Expiration) {
		log.WithField("exp", root.Expiration.UTC().Format(time.RFC3339)).Error("[delegation] root proof has expired")
		return nil, fmt.Errorf("%w: root proof expired at %s", ErrNotConfigured, root.Expiration.UTC().Format(time.RFC3339))
	}
	exp := now.Add(u.ttl)
	if exp.After(root.Expiration) {
		exp = root.Expiration
	}

	space := u.authority.Space()
	caps := make([]ucan.Capability, 0, len(req.Caps))
	for _, can := range req.Abilities() {
		c := ucan.Capability{With: space, Can: can}
		if !root.Covers(c) {
			return nil, fmt.Errorf("%w: %s", ErrCapabilityNotDelegated, can)
		}
		caps = append(caps, c)
	}

	d, err := ucan.Delegate(ucan.DelegateParams{
		Issuer:       u.authority.Agent(),
		Audience:     req.Audience,
		Capabilities: caps,
		Proofs:       []*ucan.Delegation{root},
		Expiration:   exp,
	})
	if err != nil {
		return nil, fmt.Errorf("issue delegation: %w", err)
	}

	log.WithFields(log.Fields{
		"audience": logging.MaskShort(req.Audience),
		"space":    logging.MaskShort(space),
		"caps":     len(caps),
		"exp":      d.Expiration.UTC().Format(time.RFC3339),
	}).Info("[delegation] issued")

	return d, nil
}
