// internal/application/delegation/authority.go
package delegation

import (
	"errors"
	"fmt"
	"strings"

	"launchpad/internal/infra/ucan"
)

var (
	ErrMissingKey   = errors.New("delegation: agent private key is not set")
	ErrMissingProof = errors.New("delegation: delegation proof is not set")
	ErrProofAgent   = errors.New("delegation: proof is not addressed to the agent")
)

// Authority は長期鍵（agent）と space → agent のルート証明の組です。
// 起動時に一度だけ解決し、リクエストごとに読み取り専用で使います。
type Authority struct {
	agent *ucan.Principal
	proof *ucan.Delegation
	space string
}

// NewAuthority parses the agent key and root proof and checks that they belong together.
func NewAuthority(privateKey, proof string, opts ...ucan.ParseOption) (*Authority, error) {
	if strings.TrimSpace(privateKey) == "" {
		return nil, ErrMissingKey
	}
	if strings.TrimSpace(proof) == "" {
		return nil, ErrMissingProof
	}

	agent, err := ucan.ParsePrincipal(privateKey)
	if err != nil {
		return nil, fmt.Errorf("parse agent key: %w", err)
	}

	root, err := ucan.Parse(proof, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse delegation proof: %w", err)
	}
	if root.Audience != agent.DID() {
		return nil, fmt.Errorf("%w: proof audience %s, agent %s", ErrProofAgent, root.Audience, agent.DID())
	}
	if err := root.Verify(agent.DID()); err != nil {
		return nil, fmt.Errorf("verify delegation proof: %w", err)
	}

	return &Authority{
		agent: agent,
		proof: root,
		space: root.Capabilities[0].With,
	}, nil
}

func (a *Authority) Agent() *ucan.Principal { return a.agent }

func (a *Authority) Proof() *ucan.Delegation { return a.proof }

// Space is the resource of the proof's first capability.
func (a *Authority) Space() string { return a.space }
