package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubi-stream/kubi-auth/core"
	"github.com/kubi-stream/kubi-auth/internal/eth"
)

func newTokenizer(t *testing.T) *JWTTokenizer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return NewJWTTokenizer(key, "kubi.example").(*JWTTokenizer)
}

func newChallenge(address string, ttl time.Duration) *core.Challenge {
	now := time.Now()
	return &core.Challenge{
		ID:        uuid.New().String(),
		Address:   address,
		Nonce:     "a1b2c3",
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestChallengeRoundTrip(t *testing.T) {
	tk := newTokenizer(t)
	challenge := newChallenge("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", 5*time.Minute)

	token, err := tk.ChallengeToToken(challenge)
	require.NoError(t, err)

	parsed, err := tk.TokenToChallenge(token)
	require.NoError(t, err)

	assert.Equal(t, challenge.ID, parsed.ID)
	assert.Equal(t, challenge.Address, parsed.Address)
	assert.Equal(t, challenge.Nonce, parsed.Nonce)
	assert.WithinDuration(t, challenge.ExpiresAt, parsed.ExpiresAt, time.Second)
}

func TestTokenToChallengeExpired(t *testing.T) {
	tk := newTokenizer(t)
	challenge := newChallenge("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", -time.Minute)

	token, err := tk.ChallengeToToken(challenge)
	require.NoError(t, err)

	_, err = tk.TokenToChallenge(token)
	assert.ErrorIs(t, err, core.ErrExpiredChallenge)
}

func TestTokenToChallengeGarbage(t *testing.T) {
	tk := newTokenizer(t)

	_, err := tk.TokenToChallenge("not.a.jwt")
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestTokenToChallengeForeignKey(t *testing.T) {
	tk := newTokenizer(t)
	other := newTokenizer(t)
	challenge := newChallenge("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", 5*time.Minute)

	token, err := other.ChallengeToToken(challenge)
	require.NoError(t, err)

	_, err = tk.TokenToChallenge(token)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestVerifySignature(t *testing.T) {
	tk := newTokenizer(t)

	walletKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(walletKey.PublicKey).Hex()

	challenge := newChallenge(address, 5*time.Minute)

	sig, err := eth.PersonalSign(tk.SignInMessage(challenge), walletKey)
	require.NoError(t, err)

	require.NoError(t, tk.VerifySignature(challenge, hexutil.Encode(sig), address))

	// Case-insensitive address comparison.
	require.NoError(t, tk.VerifySignature(challenge, hexutil.Encode(sig), strings.ToLower(address)))
}

func TestVerifySignatureWrongSigner(t *testing.T) {
	tk := newTokenizer(t)

	walletKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	otherKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	address := crypto.PubkeyToAddress(walletKey.PublicKey).Hex()
	challenge := newChallenge(address, 5*time.Minute)

	sig, err := eth.PersonalSign(tk.SignInMessage(challenge), otherKey)
	require.NoError(t, err)

	err = tk.VerifySignature(challenge, hexutil.Encode(sig), address)
	assert.ErrorIs(t, err, core.ErrSignatureMismatch)
}

func TestVerifySignatureAddressMismatch(t *testing.T) {
	tk := newTokenizer(t)

	walletKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(walletKey.PublicKey).Hex()
	challenge := newChallenge(address, 5*time.Minute)

	sig, err := eth.PersonalSign(tk.SignInMessage(challenge), walletKey)
	require.NoError(t, err)

	err = tk.VerifySignature(challenge, hexutil.Encode(sig), "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")
	assert.ErrorIs(t, err, core.ErrSignatureMismatch)
}

func TestVerifySignatureMalformed(t *testing.T) {
	tk := newTokenizer(t)
	challenge := newChallenge("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", 5*time.Minute)

	err := tk.VerifySignature(challenge, "not-hex", challenge.Address)
	assert.ErrorIs(t, err, core.ErrInvalidSignature)

	err = tk.VerifySignature(challenge, "0x0102", challenge.Address)
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
}
