// Package authz signs the SorobanAuthorizationEntry values a simulated
// invocation returns, one signature per entry that carries address
// credentials, so the assembled transaction carries proof that every
// address a contract call acts on behalf of actually authorized it.
package authz

import (
	"context"

	"github.com/pkg/errors"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"

	"github.com/halide-labs/sorobanctl/internal/signer"
)

// ErrMissingSigner is returned when no available signer matches an
// authorization entry's address credentials.
var ErrMissingSigner = errors.New("authz: no signer available for address")

// ErrContractAddressUnsupported is returned for an authorization entry
// whose address is a contract rather than an account; signing on behalf
// of a custom smart-contract account is not supported.
var ErrContractAddressUnsupported = errors.New("authz: signing for a contract address is not supported")

// SignAll signs every entry in entries that carries SorobanCredentials of
// type Address, dispatching each to whichever substrate is bound to its
// address: sourceSigner for the transaction's own source account (matched
// by its discoverable PublicKey), or bindings for every other address —
// an explicit strkey-address-to-signer map, since a substrate like a
// signer plugin has no key-discovery mode and must be told in advance
// which address it signs for (the `--sign-with-plugin address=plugin-name`
// binding). Entries with SourceAccount credentials are returned
// unchanged — they need no separate signature, the enclosing
// transaction's own signature covers them.
func SignAll(ctx context.Context, entries []xdr.SorobanAuthorizationEntry, sourceSigner signer.Signer, bindings map[string]signer.Signer, expirationLedger uint32, networkPassphrase string) ([]xdr.SorobanAuthorizationEntry, error) {
	out := make([]xdr.SorobanAuthorizationEntry, len(entries))
	for i, entry := range entries {
		signed, err := signEntry(ctx, entry, sourceSigner, bindings, expirationLedger, networkPassphrase)
		if err != nil {
			return nil, err
		}
		out[i] = signed
	}
	return out, nil
}

func signEntry(ctx context.Context, entry xdr.SorobanAuthorizationEntry, sourceSigner signer.Signer, bindings map[string]signer.Signer, expirationLedger uint32, networkPassphrase string) (xdr.SorobanAuthorizationEntry, error) {
	if entry.Credentials.Type != xdr.SorobanCredentialsTypeSorobanCredentialsAddress || entry.Credentials.Address == nil {
		return entry, nil
	}
	credentials := *entry.Credentials.Address

	address, err := addressStrkey(credentials.Address)
	if err != nil {
		return xdr.SorobanAuthorizationEntry{}, err
	}

	s, err := findSigner(address, sourceSigner, bindings)
	if err != nil {
		return xdr.SorobanAuthorizationEntry{}, err
	}

	sig, err := s.SignAuthEntry(ctx, signer.AuthPreimage{
		Invocation:                entry.RootInvocation,
		Nonce:                     credentials.Nonce,
		SignatureExpirationLedger: expirationLedger,
		NetworkPassphrase:         networkPassphrase,
	})
	if err != nil {
		return xdr.SorobanAuthorizationEntry{}, errors.Wrap(err, "authz: signing authorization entry")
	}

	credentials.SignatureExpirationLedger = xdr.Uint32(expirationLedger)
	credentials.Signature = sig

	entry.Credentials = xdr.SorobanCredentials{
		Type:    xdr.SorobanCredentialsTypeSorobanCredentialsAddress,
		Address: &credentials,
	}
	return entry, nil
}

// addressStrkey recovers the strkey-encoded account address an
// authorization entry's ScAddress credentials name, for matching against a
// signer's own PublicKey() or an explicit binding key.
func addressStrkey(address xdr.ScAddress) (string, error) {
	switch address.Type {
	case xdr.ScAddressTypeScAddressTypeAccount:
		if address.AccountId == nil || address.AccountId.Ed25519 == nil {
			return "", errors.New("authz: address account id has no ed25519 key")
		}
		raw := [32]byte(*address.AccountId.Ed25519)
		return strkey.Encode(strkey.VersionByteAccountID, raw[:])
	case xdr.ScAddressTypeScAddressTypeContract:
		return "", ErrContractAddressUnsupported
	default:
		return "", errors.Errorf("authz: unsupported address type %v", address.Type)
	}
}

func findSigner(address string, sourceSigner signer.Signer, bindings map[string]signer.Signer) (signer.Signer, error) {
	if s, ok := bindings[address]; ok {
		return s, nil
	}
	if sourceSigner != nil {
		if pk, err := sourceSigner.PublicKey(); err == nil && pk == address {
			return sourceSigner, nil
		}
	}
	return nil, ErrMissingSigner
}
