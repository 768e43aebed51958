package ports

import "errors"

// ErrDuplicateAddress is returned by UserStore.CreateUser when the wallet
// address already exists. The caller recovers by re-reading the existing row.
var ErrDuplicateAddress = errors.New("wallet address already exists")
