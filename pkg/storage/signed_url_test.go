package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerSignAndVerify(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Sign("bill-1", "bills/2024-03_parent.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	link, err := signer.Verify(token, false)
	require.NoError(t, err)
	require.Equal(t, "bill-1", link.ID)
	require.Equal(t, "bills/2024-03_parent.pdf", link.Path)
	require.WithinDuration(t, expiresAt, link.ExpiresAt, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Sign("bill-1", "bills/file.csv")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = signer.Verify(token, false)
	require.ErrorIs(t, err, ErrTokenExpired)

	link, err := signer.Verify(token, true)
	require.NoError(t, err)
	require.Equal(t, "bills/file.csv", link.Path)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Sign("bill-1", "bills/file.csv")
	require.NoError(t, err)

	_, err = NewSignedURLSigner("other", time.Hour).Verify(token, false)
	require.ErrorIs(t, err, ErrTokenSignature)

	_, err = signer.Verify("not-a-token", false)
	require.ErrorIs(t, err, ErrTokenMalformed)
}
