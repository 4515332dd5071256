package authz_test

import (
	"context"
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/xdr"

	"github.com/halide-labs/sorobanctl/internal/authz"
	"github.com/halide-labs/sorobanctl/internal/signer"
)

const testPassphrase = "Test SDF Network ; September 2015"

func addressEntry(t *testing.T, kp *keypair.Full, nonce int64) xdr.SorobanAuthorizationEntry {
	t.Helper()
	accountID, err := xdr.AddressToAccountId(kp.Address())
	if err != nil {
		t.Fatal(err)
	}
	return xdr.SorobanAuthorizationEntry{
		Credentials: xdr.SorobanCredentials{
			Type: xdr.SorobanCredentialsTypeSorobanCredentialsAddress,
			Address: &xdr.SorobanAddressCredentials{
				Address: xdr.ScAddress{
					Type:      xdr.ScAddressTypeScAddressTypeAccount,
					AccountId: &accountID,
				},
				Nonce: xdr.Int64(nonce),
			},
		},
		RootInvocation: xdr.SorobanAuthorizedInvocation{
			Function: xdr.SorobanAuthorizedFunction{
				Type: xdr.SorobanAuthorizedFunctionTypeSorobanAuthorizedFunctionTypeContractFn,
			},
		},
	}
}

func TestSignAllLeavesSourceAccountCredentialsUntouched(t *testing.T) {
	entries := []xdr.SorobanAuthorizationEntry{
		{Credentials: xdr.SorobanCredentials{Type: xdr.SorobanCredentialsTypeSorobanCredentialsSourceAccount}},
	}
	signed, err := authz.SignAll(context.Background(), entries, nil, nil, 100, testPassphrase)
	if err != nil {
		t.Fatal(err)
	}
	if signed[0].Credentials.Type != xdr.SorobanCredentialsTypeSorobanCredentialsSourceAccount {
		t.Fatal("expected source account credentials to pass through unchanged")
	}
}

func TestSignAllSignsWithBoundSigner(t *testing.T) {
	kp, err := keypair.Random()
	if err != nil {
		t.Fatal(err)
	}
	entries := []xdr.SorobanAuthorizationEntry{addressEntry(t, kp, 1)}
	bindings := map[string]signer.Signer{kp.Address(): signer.NewLocal(kp)}

	signed, err := authz.SignAll(context.Background(), entries, nil, bindings, 1000, testPassphrase)
	if err != nil {
		t.Fatal(err)
	}

	creds := signed[0].Credentials.Address
	if creds.SignatureExpirationLedger != 1000 {
		t.Fatalf("expected expiration ledger 1000, got %d", creds.SignatureExpirationLedger)
	}
	if creds.Signature.Type != xdr.ScValTypeScvVec || creds.Signature.Vec == nil || len(*creds.Signature.Vec) != 1 {
		t.Fatal("expected signature to be a one-element vector")
	}
	sigMap := (*creds.Signature.Vec)[0].Map
	if sigMap == nil || len(*sigMap) != 2 {
		t.Fatal("expected a two-entry signature map")
	}
	if string(*(*sigMap)[0].Key.Sym) != "public_key" || string(*(*sigMap)[1].Key.Sym) != "signature" {
		t.Fatal("expected the signature map sorted public_key before signature")
	}
}

func TestSignAllFallsBackToSourceSigner(t *testing.T) {
	kp, err := keypair.Random()
	if err != nil {
		t.Fatal(err)
	}
	entries := []xdr.SorobanAuthorizationEntry{addressEntry(t, kp, 1)}

	signed, err := authz.SignAll(context.Background(), entries, signer.NewLocal(kp), nil, 500, testPassphrase)
	if err != nil {
		t.Fatal(err)
	}
	if signed[0].Credentials.Address.Signature.Type != xdr.ScValTypeScvVec {
		t.Fatal("expected the source signer to sign when no binding matches")
	}
}

func TestSignAllMissingSigner(t *testing.T) {
	kp, err := keypair.Random()
	if err != nil {
		t.Fatal(err)
	}
	other, err := keypair.Random()
	if err != nil {
		t.Fatal(err)
	}
	entries := []xdr.SorobanAuthorizationEntry{addressEntry(t, kp, 1)}
	bindings := map[string]signer.Signer{other.Address(): signer.NewLocal(other)}

	if _, err := authz.SignAll(context.Background(), entries, nil, bindings, 100, testPassphrase); err != authz.ErrMissingSigner {
		t.Fatalf("expected ErrMissingSigner, got %v", err)
	}
}

func TestSignAllContractAddressUnsupported(t *testing.T) {
	var contractID xdr.Hash
	entries := []xdr.SorobanAuthorizationEntry{
		{
			Credentials: xdr.SorobanCredentials{
				Type: xdr.SorobanCredentialsTypeSorobanCredentialsAddress,
				Address: &xdr.SorobanAddressCredentials{
					Address: xdr.ScAddress{
						Type:       xdr.ScAddressTypeScAddressTypeContract,
						ContractId: &contractID,
					},
				},
			},
		},
	}
	if _, err := authz.SignAll(context.Background(), entries, nil, nil, 100, testPassphrase); err != authz.ErrContractAddressUnsupported {
		t.Fatalf("expected ErrContractAddressUnsupported, got %v", err)
	}
}

func TestSignAllBindingTakesPrecedenceOverPluginKeyDiscovery(t *testing.T) {
	kp, err := keypair.Random()
	if err != nil {
		t.Fatal(err)
	}
	entries := []xdr.SorobanAuthorizationEntry{addressEntry(t, kp, 1)}
	// A plugin signer never discovers its own address (no key-discovery
	// mode), so it must be reachable purely via the bindings map — not by
	// matching its PublicKey(), which always errors.
	plugin := signer.NewPlugin("demo", testPassphrase, map[string]string{"signers": "S..."})
	bindings := map[string]signer.Signer{kp.Address(): signer.NewLocal(kp)}
	if _, err := plugin.PublicKey(); err == nil {
		t.Fatal("expected plugin PublicKey to be undiscoverable")
	}

	signed, err := authz.SignAll(context.Background(), entries, nil, bindings, 100, testPassphrase)
	if err != nil {
		t.Fatal(err)
	}
	if signed[0].Credentials.Address.Signature.Type != xdr.ScValTypeScvVec {
		t.Fatal("expected the bound local signer to sign")
	}
}
