package eth

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSignInMessage(t *testing.T) {
	issued := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	expires := issued.Add(5 * time.Minute)

	msg := FormatSignInMessage("kubi.example", "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", "a1b2c3", issued, expires)

	expected := "kubi.example wants you to sign in with your Ethereum account:\n" +
		"0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B\n\n" +
		"Nonce: a1b2c3\n" +
		"Issued At: 2026-01-02T03:04:05Z\n" +
		"Expiration Time: 2026-01-02T03:09:05Z"
	assert.Equal(t, expected, msg)
}

func TestRecoverAddressRoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	msg := "kubi.example wants you to sign in"
	sig, err := PersonalSign(msg, key)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)

	recovered, err := RecoverAddress(msg, sig)
	require.NoError(t, err)
	assert.Equal(t, addr, recovered)
}

func TestRecoverAddressAcceptsRawRecoveryID(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	msg := "raw recovery id"
	sig, err := PersonalSign(msg, key)
	require.NoError(t, err)
	sig[64] -= 27 // back to 0/1 form

	recovered, err := RecoverAddress(msg, sig)
	require.NoError(t, err)
	assert.Equal(t, addr, recovered)
}

func TestRecoverAddressWrongKey(t *testing.T) {
	key1, err := crypto.GenerateKey()
	require.NoError(t, err)
	key2, err := crypto.GenerateKey()
	require.NoError(t, err)

	msg := "who signed this"
	sig, err := PersonalSign(msg, key2)
	require.NoError(t, err)

	recovered, err := RecoverAddress(msg, sig)
	require.NoError(t, err)
	assert.NotEqual(t, crypto.PubkeyToAddress(key1.PublicKey), recovered)
}

func TestRecoverAddressTamperedMessage(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	sig, err := PersonalSign("original message", key)
	require.NoError(t, err)

	recovered, err := RecoverAddress("tampered message", sig)
	if err == nil {
		assert.NotEqual(t, addr, recovered)
	}
}

func TestRecoverAddressRejectsBadLength(t *testing.T) {
	_, err := RecoverAddress("msg", []byte{1, 2, 3})
	assert.Error(t, err)
}

func TestChecksumAddress(t *testing.T) {
	assert.Equal(t,
		"0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B",
		ChecksumAddress("0xab5801a7d398351b8be11c439e05c5b3259aec9b"))
	assert.True(t, ValidAddress("0xab5801a7d398351b8be11c439e05c5b3259aec9b"))
	assert.False(t, ValidAddress("not-an-address"))
}
