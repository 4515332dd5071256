// Package signer provides a single signing interface implemented by four
// substrates: an in-process local key, a hardware wallet, an interactive
// browser handoff ("lab"), and a child-process plugin.
package signer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

// ErrUserCancelled is returned when a human declines a pending signature on
// an interactive substrate (hardware wallet or lab).
var ErrUserCancelled = errors.New("signer: user cancelled signing")

// ErrContractAddressUnsupported mirrors authz.ErrContractAddressUnsupported:
// no substrate here signs on behalf of a custom smart-contract account.
var ErrContractAddressUnsupported = errors.New("signer: signing for a contract address is not supported")

// AuthPreimage carries everything needed to build and sign a
// HashIdPreimageSorobanAuthorization payload.
type AuthPreimage struct {
	Invocation                xdr.SorobanAuthorizedInvocation
	Nonce                     xdr.Int64
	SignatureExpirationLedger uint32
	NetworkPassphrase         string
}

// Signer is implemented by every substrate able to produce transaction and
// authorization-entry signatures.
type Signer interface {
	// PublicKey returns the strkey-encoded ed25519 public key this signer
	// signs on behalf of.
	PublicKey() (string, error)
	// SignTransaction returns tx wrapped in a signed envelope.
	SignTransaction(ctx context.Context, tx *txnbuild.Transaction, networkPassphrase string) (*txnbuild.Transaction, error)
	// SignAuthEntry returns the typed signature value — a vector of one
	// {public_key, signature} map — to place in an authorization entry's
	// signature slot.
	SignAuthEntry(ctx context.Context, preimage AuthPreimage) (xdr.ScVal, error)
}

// BlobSigner is additionally implemented by substrates that can sign an
// arbitrary byte payload outside of the transaction/auth-entry shapes —
// currently only the plugin variant.
type BlobSigner interface {
	Signer
	SignBlob(ctx context.Context, payload []byte) ([]byte, error)
}
