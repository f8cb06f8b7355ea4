package ucan

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Version is written into the token header as "ucv".
const Version = "0.8.1"

const maxProofDepth = 8

var (
	ErrInvalidDelegation  = errors.New("ucan: invalid delegation")
	ErrExpired            = errors.New("ucan: delegation expired")
	ErrAudienceMismatch   = errors.New("ucan: audience mismatch")
	ErrUnprovenCapability = errors.New("ucan: capability not proven")
	ErrProofDepth         = errors.New("ucan: proof chain too deep")
)

type claims struct {
	jwt.RegisteredClaims
	Att []Capability `json:"att"`
	Prf []string     `json:"prf,omitempty"`
	Nnc string       `json:"nnc,omitempty"`
}

// Delegation is a signed, time-bounded grant of capabilities from Issuer to Audience.
type Delegation struct {
	Issuer       string
	Audience     string
	Capabilities []Capability
	Expiration   time.Time
	Nonce        string
	Proofs       []*Delegation

	raw string
}

// Token returns the compact signed form.
func (d *Delegation) Token() string { return d.raw }

// Archive returns the bytes sent over the wire.
func (d *Delegation) Archive() []byte { return []byte(d.raw) }

// DelegateParams describes a new delegation.
type DelegateParams struct {
	Issuer       *Principal
	Audience     string
	Capabilities []Capability
	Proofs       []*Delegation
	Expiration   time.Time
}

// Delegate signs a new delegation.
func Delegate(p DelegateParams) (*Delegation, error) {
	if p.Issuer == nil {
		return nil, fmt.Errorf("%w: issuer is nil", ErrInvalidDelegation)
	}
	aud := strings.TrimSpace(p.Audience)
	if err := ValidateDID(aud); err != nil {
		return nil, fmt.Errorf("%w: audience: %v", ErrInvalidDelegation, err)
	}
	if len(p.Capabilities) == 0 {
		return nil, fmt.Errorf("%w: no capabilities", ErrInvalidDelegation)
	}
	for i, c := range p.Capabilities {
		if strings.TrimSpace(c.With) == "" || strings.TrimSpace(c.Can) == "" {
			return nil, fmt.Errorf("%w: capability %d is incomplete", ErrInvalidDelegation, i)
		}
	}
	if p.Expiration.IsZero() {
		return nil, fmt.Errorf("%w: expiration is required", ErrInvalidDelegation)
	}

	prf := make([]string, 0, len(p.Proofs))
	for _, proof := range p.Proofs {
		if proof == nil || proof.raw == "" {
			continue
		}
		prf = append(prf, proof.raw)
	}

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.Issuer.DID(),
			Audience:  jwt.ClaimStrings{aud},
			ExpiresAt: jwt.NewNumericDate(p.Expiration),
		},
		Att: append([]Capability(nil), p.Capabilities...),
		Prf: prf,
		Nnc: uuid.NewString(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, c)
	tok.Header["ucv"] = Version

	signed, err := tok.SignedString(p.Issuer.PrivateKey())
	if err != nil {
		return nil, fmt.Errorf("sign delegation: %w", err)
	}

	return &Delegation{
		Issuer:       c.Issuer,
		Audience:     aud,
		Capabilities: c.Att,
		Expiration:   c.ExpiresAt.Time,
		Nonce:        c.Nnc,
		Proofs:       p.Proofs,
		raw:          signed,
	}, nil
}

type parseOptions struct {
	now func() time.Time
}

// ParseOption customizes Parse.
type ParseOption func(*parseOptions)

// WithClock sets the clock used for expiry checks.
func WithClock(now func() time.Time) ParseOption {
	return func(o *parseOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// Parse decodes a token, verifying its signature, its expiry and those of every proof.
func Parse(token string, opts ...ParseOption) (*Delegation, error) {
	o := parseOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return parse(strings.TrimSpace(token), o, 0)
}

func parse(token string, o parseOptions, depth int) (*Delegation, error) {
	if depth > maxProofDepth {
		return nil, ErrProofDepth
	}
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidDelegation)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithTimeFunc(o.now),
		jwt.WithExpirationRequired(),
	)

	var c claims
	_, err := parser.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		cl, ok := t.Claims.(*claims)
		if !ok {
			return nil, fmt.Errorf("unexpected claims type %T", t.Claims)
		}
		pub, err := PublicKeyFromDID(cl.Issuer)
		if err != nil {
			return nil, err
		}
		return pub, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDelegation, err)
	}

	if len(c.Audience) != 1 {
		return nil, fmt.Errorf("%w: want exactly one audience, got %d", ErrInvalidDelegation, len(c.Audience))
	}
	if len(c.Att) == 0 {
		return nil, fmt.Errorf("%w: no capabilities", ErrInvalidDelegation)
	}

	proofs := make([]*Delegation, 0, len(c.Prf))
	for i, raw := range c.Prf {
		p, err := parse(raw, o, depth+1)
		if err != nil {
			return nil, fmt.Errorf("proof %d: %w", i, err)
		}
		proofs = append(proofs, p)
	}

	return &Delegation{
		Issuer:       c.Issuer,
		Audience:     c.Audience[0],
		Capabilities: c.Att,
		Expiration:   c.ExpiresAt.Time,
		Nonce:        c.Nnc,
		Proofs:       proofs,
		raw:          token,
	}, nil
}

// Verify checks that d is addressed to audience (when non-empty) and that every
// capability in the chain is either owned by its issuer or proven by a proof
// delegated to that issuer.
func (d *Delegation) Verify(audience string) error {
	if audience != "" && d.Audience != audience {
		return fmt.Errorf("%w: want %s, got %s", ErrAudienceMismatch, audience, d.Audience)
	}
	return d.verifyChain(0)
}

func (d *Delegation) verifyChain(depth int) error {
	if depth > maxProofDepth {
		return ErrProofDepth
	}
	for _, c := range d.Capabilities {
		if c.With == d.Issuer {
			continue
		}
		if !d.proves(c) {
			return fmt.Errorf("%w: %s on %s", ErrUnprovenCapability, c.Can, c.With)
		}
	}
	for _, p := range d.Proofs {
		if err := p.verifyChain(depth + 1); err != nil {
			return err
		}
	}
	return nil
}

func (d *Delegation) proves(c Capability) bool {
	for _, p := range d.Proofs {
		if p.Audience != d.Issuer {
			continue
		}
		for _, pc := range p.Capabilities {
			if pc.Covers(c) {
				return true
			}
		}
	}
	return false
}

// Covers reports whether d itself grants c to its audience.
func (d *Delegation) Covers(c Capability) bool {
	for _, own := range d.Capabilities {
		if own.Covers(c) {
			return true
		}
	}
	return false
}
