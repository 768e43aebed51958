// Package eth implements EIP-191 personal-sign message construction and
// signature recovery for wallet login.
package eth

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the expected length of a secp256k1 signature in
// [R || S || V] format.
const SignatureLength = 65

// FormatSignInMessage renders the canonical text a wallet signs to prove
// ownership of an address. Signatures are computed over these exact bytes, so
// issuance and verification must call this with identical inputs.
func FormatSignInMessage(domain, address, nonce string, issuedAt, expiresAt time.Time) string {
	return fmt.Sprintf(
		"%s wants you to sign in with your Ethereum account:\n%s\n\nNonce: %s\nIssued At: %s\nExpiration Time: %s",
		domain,
		address,
		nonce,
		issuedAt.UTC().Format(time.RFC3339),
		expiresAt.UTC().Format(time.RFC3339),
	)
}

// RecoverAddress recovers the address that produced sig over the EIP-191
// prefixed hash of message. It accepts both the raw recovery id (0/1) and the
// legacy wallet form (27/28) in the V byte.
func RecoverAddress(message string, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", SignatureLength, len(sig))
	}

	// Do not mutate the caller's slice.
	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	if normalized[64] > 1 {
		return common.Address{}, fmt.Errorf("invalid recovery id %d", sig[64])
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}

	return crypto.PubkeyToAddress(*pub), nil
}

// PersonalSign signs message the way a wallet does: over the EIP-191 prefixed
// hash, with V offset to 27/28.
func PersonalSign(message string, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

// ValidAddress reports whether s is a well-formed hex address.
func ValidAddress(s string) bool {
	return common.IsHexAddress(s)
}

// ChecksumAddress normalizes s to its EIP-55 checksum form.
func ChecksumAddress(s string) string {
	return common.HexToAddress(s).Hex()
}
