package ucan

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPrincipal(t *testing.T) *Principal {
	t.Helper()
	p, err := GeneratePrincipal()
	require.NoError(t, err)
	return p
}

func TestDIDRoundTrip(t *testing.T) {
	p := mustPrincipal(t)

	assert.True(t, strings.HasPrefix(p.DID(), "did:key:z6Mk"), p.DID())

	pub, err := PublicKeyFromDID(p.DID())
	require.NoError(t, err)
	assert.Equal(t, p.PublicKey(), pub)
}

func TestPublicKeyFromDIDRejectsGarbage(t *testing.T) {
	for _, did := range []string{"", "did:web:up.storacha.network", "did:key:z111", "did:key:abc"} {
		_, err := PublicKeyFromDID(did)
		assert.ErrorIs(t, err, ErrInvalidDID, did)
	}
}

func TestValidateDID(t *testing.T) {
	assert.NoError(t, ValidateDID("did:web:up.storacha.network"))
	assert.NoError(t, ValidateDID(mustPrincipal(t).DID()))
	assert.Error(t, ValidateDID("did:key:zzzz"))
	assert.Error(t, ValidateDID("mailto:someone@example.com"))
	assert.Error(t, ValidateDID("did:"))
}

func TestParsePrincipalFormats(t *testing.T) {
	p := mustPrincipal(t)

	multibase := FormatPrincipal(p)
	assert.True(t, strings.HasPrefix(multibase, "M"))

	ints := make([]int, len(p.PrivateKey()))
	for i, b := range p.PrivateKey() {
		ints[i] = int(b)
	}
	jsonKey, err := json.Marshal(ints)
	require.NoError(t, err)

	for name, in := range map[string]string{
		"multibase": multibase,
		"json":      string(jsonKey),
		"base58":    base58.Encode(p.PrivateKey()),
	} {
		got, err := ParsePrincipal(in)
		require.NoError(t, err, name)
		assert.Equal(t, p.DID(), got.DID(), name)
	}

	_, err = ParsePrincipal("")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = ParsePrincipal("[1,2,3]")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestCapabilityCovers(t *testing.T) {
	space := "did:key:z6MkSpace"
	tests := []struct {
		have, want Capability
		ok         bool
	}{
		{Capability{space, "*"}, Capability{space, "upload/add"}, true},
		{Capability{space, "upload/add"}, Capability{space, "upload/add"}, true},
		{Capability{space, "space/*"}, Capability{space, "space/blob/add"}, true},
		{Capability{space, "space/*"}, Capability{space, "upload/add"}, false},
		{Capability{space, "upload/add"}, Capability{space, "upload/list"}, false},
		{Capability{"did:key:z6MkOther", "*"}, Capability{space, "upload/add"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.have.Covers(tt.want), "%v covers %v", tt.have, tt.want)
	}
}

// space -> agent (root proof), agent -> client (session delegation)
func delegationChain(t *testing.T, now time.Time, ttl time.Duration) (space, agent, client *Principal, d *Delegation) {
	t.Helper()
	space, agent, client = mustPrincipal(t), mustPrincipal(t), mustPrincipal(t)

	root, err := Delegate(DelegateParams{
		Issuer:       space,
		Audience:     agent.DID(),
		Capabilities: []Capability{{With: space.DID(), Can: "*"}},
		Expiration:   now.Add(365 * 24 * time.Hour),
	})
	require.NoError(t, err)

	d, err = Delegate(DelegateParams{
		Issuer:   agent,
		Audience: client.DID(),
		Capabilities: []Capability{
			{With: space.DID(), Can: "space/blob/add"},
			{With: space.DID(), Can: "upload/add"},
		},
		Proofs:     []*Delegation{root},
		Expiration: now.Add(ttl),
	})
	require.NoError(t, err)
	return space, agent, client, d
}

func TestDelegateParseVerify(t *testing.T) {
	now := time.Now()
	space, agent, client, d := delegationChain(t, now, 98*time.Hour)

	got, err := Parse(d.Token())
	require.NoError(t, err)

	assert.Equal(t, agent.DID(), got.Issuer)
	assert.Equal(t, client.DID(), got.Audience)
	assert.Equal(t, space.DID(), got.Capabilities[0].With)
	assert.Equal(t, now.Add(98*time.Hour).Unix(), got.Expiration.Unix())
	assert.NotEmpty(t, got.Nonce)
	require.Len(t, got.Proofs, 1)
	assert.Equal(t, space.DID(), got.Proofs[0].Issuer)

	assert.NoError(t, got.Verify(client.DID()))
	assert.ErrorIs(t, got.Verify(agent.DID()), ErrAudienceMismatch)
	assert.True(t, got.Covers(Capability{With: space.DID(), Can: "upload/add"}))
	assert.False(t, got.Covers(Capability{With: space.DID(), Can: "filecoin/offer"}))
}

func TestParseRejectsAfterExpiry(t *testing.T) {
	now := time.Now()
	_, _, _, d := delegationChain(t, now, 98*time.Hour)

	_, err := Parse(d.Token(), WithClock(func() time.Time { return now.Add(97 * time.Hour) }))
	assert.NoError(t, err)

	_, err = Parse(d.Token(), WithClock(func() time.Time { return now.Add(98*time.Hour + time.Minute) }))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestParseRejectsTamperedToken(t *testing.T) {
	_, _, _, d := delegationChain(t, time.Now(), time.Hour)

	parts := strings.Split(d.Token(), ".")
	require.Len(t, parts, 3)
	other := mustPrincipal(t)
	forged, err := Delegate(DelegateParams{
		Issuer:       other,
		Audience:     d.Audience,
		Capabilities: d.Capabilities,
		Expiration:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	forgedParts := strings.Split(forged.Token(), ".")

	// payload of one token, signature of another
	_, err = Parse(parts[0] + "." + parts[1] + "." + forgedParts[2])
	assert.ErrorIs(t, err, ErrInvalidDelegation)
}

func TestVerifyRejectsUnprovenCapability(t *testing.T) {
	space, agent, client := mustPrincipal(t), mustPrincipal(t), mustPrincipal(t)
	stranger := mustPrincipal(t)

	// root proof addressed to someone else
	root, err := Delegate(DelegateParams{
		Issuer:       space,
		Audience:     stranger.DID(),
		Capabilities: []Capability{{With: space.DID(), Can: "*"}},
		Expiration:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	d, err := Delegate(DelegateParams{
		Issuer:       agent,
		Audience:     client.DID(),
		Capabilities: []Capability{{With: space.DID(), Can: "upload/add"}},
		Proofs:       []*Delegation{root},
		Expiration:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	parsed, err := Parse(d.Token())
	require.NoError(t, err)
	assert.ErrorIs(t, parsed.Verify(client.DID()), ErrUnprovenCapability)
}

func TestDelegateValidatesParams(t *testing.T) {
	p := mustPrincipal(t)
	exp := time.Now().Add(time.Hour)

	_, err := Delegate(DelegateParams{Issuer: p, Audience: "nope", Capabilities: []Capability{{With: p.DID(), Can: "*"}}, Expiration: exp})
	assert.ErrorIs(t, err, ErrInvalidDelegation)

	_, err = Delegate(DelegateParams{Issuer: p, Audience: p.DID(), Expiration: exp})
	assert.ErrorIs(t, err, ErrInvalidDelegation)

	_, err = Delegate(DelegateParams{Issuer: p, Audience: p.DID(), Capabilities: []Capability{{With: p.DID(), Can: "*"}}})
	assert.ErrorIs(t, err, ErrInvalidDelegation)

	_, err = Delegate(DelegateParams{Audience: p.DID(), Capabilities: []Capability{{With: p.DID(), Can: "*"}}, Expiration: exp})
	assert.ErrorIs(t, err, ErrInvalidDelegation)
}
