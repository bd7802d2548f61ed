package crypto_test

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commoncrypto "github.com/AlibekovAA/dining-quiz/backend/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/dining-quiz/backend/internal/common/errors"
)

func TestPBKDF2Hasher_GenerateSalt(t *testing.T) {
	h := commoncrypto.NewDefaultPBKDF2Hasher()

	a, err := h.GenerateSalt()
	require.NoError(t, err)
	b, err := h.GenerateSalt()
	require.NoError(t, err)

	assert.Len(t, a, 60)
	_, err = hex.DecodeString(a)
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}

// Known vector for the stored format: 100000 iterations, SHA-512, 64 bytes,
// salt used as its hex text.
func TestPBKDF2Hasher_Derive_DefaultParameters(t *testing.T) {
	h := commoncrypto.NewDefaultPBKDF2Hasher()
	ctx := context.Background()

	digest, err := h.Derive(ctx, "pw123", "00ff")
	require.NoError(t, err)
	assert.Equal(t,
		"6552ae29b1316167c26c1b30a19b2ab35a77af004d726a29dc24be998cce516e"+
			"cc8584d51b3eb16ccbecd85983c9de6937b5ab97c8f929fe15f6cd58c1147774",
		digest,
	)

	again, err := h.Derive(ctx, "pw123", "00ff")
	require.NoError(t, err)
	assert.Equal(t, digest, again)

	other, err := h.Derive(ctx, "pw124", "00ff")
	require.NoError(t, err)
	assert.NotEqual(t, digest, other)
}

func TestPBKDF2Hasher_Verify(t *testing.T) {
	h := commoncrypto.NewPBKDF2Hasher(1000, 64, 30, 2)
	ctx := context.Background()

	salt, err := h.GenerateSalt()
	require.NoError(t, err)
	digest, err := h.Derive(ctx, "secret", salt)
	require.NoError(t, err)

	assert.NoError(t, h.Verify(ctx, "secret", salt, digest))
	assert.ErrorIs(t, h.Verify(ctx, "Secret", salt, digest), commoncrypto.ErrDigestMismatch)
	assert.ErrorIs(t, h.Verify(ctx, "secret", salt+"0", digest), commoncrypto.ErrDigestMismatch)
}

func TestPBKDF2Hasher_InvalidParameters(t *testing.T) {
	h := commoncrypto.NewPBKDF2Hasher(0, 64, 30, 1)

	_, err := h.Derive(context.Background(), "pw", "salt")
	assert.True(t, errors.Is(err, commonerrors.ErrInternalCrypto))
}

func TestPBKDF2Hasher_WaitsForWorker(t *testing.T) {
	h := commoncrypto.NewPBKDF2Hasher(500_000, 64, 30, 1)

	started := make(chan struct{})
	go func() {
		close(started)
		_, _ = h.Derive(context.Background(), "slow", "salt")
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := h.Derive(ctx, "pw", "salt")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
