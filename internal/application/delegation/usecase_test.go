package delegation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	delegationdom "launchpad/internal/domain/delegation"
	"launchpad/internal/infra/ucan"
)

type fixture struct {
	space, agent *ucan.Principal
	key, proof   string
}

func newFixture(t *testing.T, can string) fixture {
	t.Helper()
	space, err := ucan.GeneratePrincipal()
	require.NoError(t, err)
	agent, err := ucan.GeneratePrincipal()
	require.NoError(t, err)

	root, err := ucan.Delegate(ucan.DelegateParams{
		Issuer:       space,
		Audience:     agent.DID(),
		Capabilities: []ucan.Capability{{With: space.DID(), Can: can}},
		Expiration:   time.Now().Add(365 * 24 * time.Hour),
	})
	require.NoError(t, err)

	return fixture{space: space, agent: agent, key: ucan.FormatPrincipal(agent), proof: root.Token()}
}

func TestNewAuthority(t *testing.T) {
	f := newFixture(t, "*")

	a, err := NewAuthority(f.key, f.proof)
	require.NoError(t, err)
	assert.Equal(t, f.space.DID(), a.Space())
	assert.Equal(t, f.agent.DID(), a.Agent().DID())

	_, err = NewAuthority("", f.proof)
	assert.ErrorIs(t, err, ErrMissingKey)
	_, err = NewAuthority(f.key, " ")
	assert.ErrorIs(t, err, ErrMissingProof)
	_, err = NewAuthority(f.key, "garbage")
	assert.ErrorIs(t, err, ucan.ErrInvalidDelegation)

	other := newFixture(t, "*")
	_, err = NewAuthority(f.key, other.proof)
	assert.ErrorIs(t, err, ErrProofAgent)
}

func TestIssueScopesToSpaceAndExpiresAfterTTL(t *testing.T) {
	f := newFixture(t, "*")
	a, err := NewAuthority(f.key, f.proof)
	require.NoError(t, err)

	now := time.Now().Truncate(time.Second)
	uc := NewUsecase(a, 0)
	uc.SetClock(func() time.Time { return now })

	client, err := ucan.GeneratePrincipal()
	require.NoError(t, err)

	d, err := uc.Issue(context.Background(), delegationdom.NewRequest(client.DID(), delegationdom.DefaultCapabilities))
	require.NoError(t, err)

	assert.Equal(t, f.agent.DID(), d.Issuer)
	assert.Equal(t, client.DID(), d.Audience)
	assert.Equal(t, now.Add(98*time.Hour).Unix(), d.Expiration.Unix())
	require.Len(t, d.Capabilities, len(delegationdom.DefaultCapabilities))
	for i, c := range d.Capabilities {
		assert.Equal(t, f.space.DID(), c.With)
		assert.Equal(t, delegationdom.DefaultCapabilities[i], c.Can)
	}

	// the client can verify what it received
	parsed, err := ucan.Parse(d.Token())
	require.NoError(t, err)
	assert.NoError(t, parsed.Verify(client.DID()))

	// usable until just before expiry, rejected after
	_, err = ucan.Parse(d.Token(), ucan.WithClock(func() time.Time { return now.Add(97 * time.Hour) }))
	assert.NoError(t, err)
	_, err = ucan.Parse(d.Token(), ucan.WithClock(func() time.Time { return now.Add(99 * time.Hour) }))
	assert.ErrorIs(t, err, ucan.ErrExpired)
}

func TestIssueDeduplicatesAbilities(t *testing.T) {
	f := newFixture(t, "*")
	a, err := NewAuthority(f.key, f.proof)
	require.NoError(t, err)
	client, _ := ucan.GeneratePrincipal()

	d, err := NewUsecase(a, time.Hour).Issue(context.Background(),
		delegationdom.NewRequest(client.DID(), []string{"upload/add", " upload/add ", "space/blob/add"}))
	require.NoError(t, err)
	assert.Len(t, d.Capabilities, 2)
}

func TestIssueErrors(t *testing.T) {
	f := newFixture(t, "upload/*")
	a, err := NewAuthority(f.key, f.proof)
	require.NoError(t, err)
	client, _ := ucan.GeneratePrincipal()
	ctx := context.Background()

	_, err = NewUsecase(nil, 0).Issue(ctx, delegationdom.NewRequest(client.DID(), []string{"upload/add"}))
	assert.ErrorIs(t, err, ErrNotConfigured)

	uc := NewUsecase(a, 0)

	_, err = uc.Issue(ctx, delegationdom.NewRequest("not-a-did", []string{"upload/add"}))
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = uc.Issue(ctx, delegationdom.NewRequest(client.DID(), nil))
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = uc.Issue(ctx, delegationdom.NewRequest(client.DID(), []string{"upload/add", "space/blob/add"}))
	assert.ErrorIs(t, err, ErrCapabilityNotDelegated)

	_, err = uc.Issue(ctx, delegationdom.NewRequest(client.DID(), []string{"upload/add", "upload/list"}))
	assert.NoError(t, err)
}

func TestIssueHonorsCanceledContext(t *testing.T) {
	f := newFixture(t, "*")
	a, err := NewAuthority(f.key, f.proof)
	require.NoError(t, err)
	client, _ := ucan.GeneratePrincipal()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewUsecase(a, 0).Issue(ctx, delegationdom.NewRequest(client.DID(), []string{"upload/add"}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIssueHonoursRootProofExpiry(t *testing.T) {
	space, err := ucan.GeneratePrincipal()
	require.NoError(t, err)
	agent, err := ucan.GeneratePrincipal()
	require.NoError(t, err)

	rootExp := time.Now().Add(time.Hour).Truncate(time.Second)
	root, err := ucan.Delegate(ucan.DelegateParams{
		Issuer:       space,
		Audience:     agent.DID(),
		Capabilities: []ucan.Capability{{With: space.DID(), Can: "*"}},
		Expiration:   rootExp,
	})
	require.NoError(t, err)
	a, err := NewAuthority(ucan.FormatPrincipal(agent), root.Token())
	require.NoError(t, err)

	client, err := ucan.GeneratePrincipal()
	require.NoError(t, err)
	req := delegationdom.NewRequest(client.DID(), delegationdom.DefaultCapabilities)

	uc := NewUsecase(a, 0)

	// 98h would outlive the root proof
	d, err := uc.Issue(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, rootExp.Unix(), d.Expiration.Unix())

	parsed, err := ucan.Parse(d.Token())
	require.NoError(t, err)
	require.NoError(t, parsed.Verify(client.DID()))

	uc.SetClock(func() time.Time { return rootExp.Add(time.Minute) })
	_, err = uc.Issue(context.Background(), req)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
