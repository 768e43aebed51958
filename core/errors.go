package core

import "errors"

var (
	ErrInvalidNonce      = errors.New("nonce is missing, expired or already consumed")
	ErrExpiredChallenge  = errors.New("challenge has expired")
	ErrSignatureMismatch = errors.New("recovered address does not match claimed address")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidAddress    = errors.New("invalid ethereum address")
	ErrStoreUnavailable  = errors.New("store operation failed")
)
