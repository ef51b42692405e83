package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/collab-todo/internal/model"
)

func TestVaultRoundTrip(t *testing.T) {
	v := NewVault(keyring.NewArrayKeyring(nil))

	require.NoError(t, v.Set(model.SecretJWT, "s3cret"))
	got, err := v.Get(model.SecretJWT)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	require.NoError(t, v.Delete(model.SecretJWT))
	_, err = v.Get(model.SecretJWT)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, v.Delete(model.SecretJWT), "deleting twice")
}

func TestVaultLookupMissingIsEmpty(t *testing.T) {
	v := NewVault(keyring.NewArrayKeyring([]keyring.Item{
		{Key: model.SecretSMTPPassword, Data: []byte("mailpw")},
	}))

	got, err := v.Lookup(model.SecretJWT)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = v.Lookup(model.SecretSMTPPassword)
	require.NoError(t, err)
	assert.Equal(t, "mailpw", got)
}
