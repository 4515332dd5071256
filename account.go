// Package soroban's account surface — GetAccountEntry, GetAccount, Fund and
// the Account/Signer types they use — lives in internal/rpc alongside the
// rest of the JSON-RPC transport (internal/rpc/account.go); Client gets it
// for free by embedding rpc.Client. The aliases below keep the public names
// this package has always exposed.
package soroban

import "github.com/halide-labs/sorobanctl/internal/rpc"

type (
	Account           = rpc.Account
	Signer            = rpc.Signer
	AccountThresholds = rpc.AccountThresholds
	AccountFlags      = rpc.AccountFlags
)
