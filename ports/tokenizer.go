package ports

import "github.com/kubi-stream/kubi-auth/core"

// Tokenizer converts between challenges and their wire representation, and
// verifies wallet signatures over the canonical sign-in message.
type Tokenizer interface {
	ChallengeToToken(challenge *core.Challenge) (string, error)
	TokenToChallenge(token string) (*core.Challenge, error)

	// SignInMessage renders the exact text the wallet is asked to sign.
	// Issuance and verification must produce identical bytes.
	SignInMessage(challenge *core.Challenge) string

	// VerifySignature recovers the signer of the challenge's sign-in message
	// and compares it to the claimed address, case-insensitively.
	VerifySignature(challenge *core.Challenge, signature string, address string) error
}
