package tokenizer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/golang-jwt/jwt/v5"

	"github.com/kubi-stream/kubi-auth/core"
	"github.com/kubi-stream/kubi-auth/internal/eth"
	"github.com/kubi-stream/kubi-auth/ports"
)

const AudienceChallenge = "auth:challenge"

// JWTTokenizer implements the Tokenizer interface using JWT challenge tokens
// signed with the server's ES256 key. The challenge round-trips through the
// client untrusted; the embedded nonce is still enforced single-use against
// the server-side nonce store.
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
	domain  string
}

// NewJWTTokenizer creates a new JWT tokenizer. domain is the name the sign-in
// message presents to the wallet, e.g. "kubi.example".
func NewJWTTokenizer(signKey *ecdsa.PrivateKey, domain string) ports.Tokenizer {
	return &JWTTokenizer{signKey: signKey, domain: domain}
}

// ChallengeToToken converts a Challenge to a JWT token
func (j *JWTTokenizer) ChallengeToToken(challenge *core.Challenge) (string, error) {
	claims := ChallengeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   challenge.Address,
			ID:        challenge.ID,
			ExpiresAt: jwt.NewNumericDate(challenge.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(challenge.IssuedAt),
			Audience:  jwt.ClaimStrings{AudienceChallenge},
		},
		Nonce: challenge.Nonce,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// TokenToChallenge converts a JWT token back to a Challenge
func (j *JWTTokenizer) TokenToChallenge(tokenStr string) (*core.Challenge, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &ChallengeClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceChallenge))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrExpiredChallenge
		}
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*ChallengeClaims)
	if !ok {
		return nil, core.ErrInvalidToken
	}

	challenge := &core.Challenge{
		ID:        claims.ID,
		Address:   claims.Subject,
		Nonce:     claims.Nonce,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}

	return challenge, nil
}

// SignInMessage renders the exact text the wallet is asked to sign.
func (j *JWTTokenizer) SignInMessage(challenge *core.Challenge) string {
	return eth.FormatSignInMessage(j.domain, challenge.Address, challenge.Nonce, challenge.IssuedAt, challenge.ExpiresAt)
}

// VerifySignature verifies an Ethereum signature against a challenge
func (j *JWTTokenizer) VerifySignature(challenge *core.Challenge, signatureStr string, addressStr string) error {
	if !strings.EqualFold(challenge.Address, addressStr) {
		return core.ErrSignatureMismatch
	}

	decodedSig, err := hexutil.Decode(signatureStr)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", core.ErrInvalidSignature)
	}

	recovered, err := eth.RecoverAddress(j.SignInMessage(challenge), decodedSig)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidSignature, err)
	}

	if !strings.EqualFold(recovered.Hex(), addressStr) {
		return core.ErrSignatureMismatch
	}

	return nil
}
