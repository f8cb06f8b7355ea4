package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccessor struct {
	data  map[string]string
	calls int
}

func (f *fakeAccessor) Access(_ context.Context, name string) ([]byte, error) {
	f.calls++
	v, ok := f.data[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(v), nil
}

func TestResolvePrefersPlainValue(t *testing.T) {
	a := &fakeAccessor{data: map[string]string{"s": "from-secret"}}

	v, err := Resolve(context.Background(), a, "  plain ", "s")
	require.NoError(t, err)
	assert.Equal(t, "plain", v)
	assert.Zero(t, a.calls)
}

func TestResolveFromSecret(t *testing.T) {
	a := &fakeAccessor{data: map[string]string{"projects/p/secrets/k/versions/latest": "secret-value\n"}}

	v, err := Resolve(context.Background(), a, "", "projects/p/secrets/k/versions/latest")
	require.NoError(t, err)
	assert.Equal(t, "secret-value", v)

	_, err = Resolve(context.Background(), a, "", "missing")
	assert.Error(t, err)
}

func TestResolveNothingConfigured(t *testing.T) {
	v, err := Resolve(context.Background(), nil, "", "")
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = Resolve(context.Background(), nil, "", "name")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
