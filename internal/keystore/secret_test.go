package keystore_test

import (
	"testing"

	"github.com/stellar/go/keypair"

	"github.com/halide-labs/sorobanctl/internal/keystore"
)

func TestKeyPairFromSecretKey(t *testing.T) {
	kp, err := keypair.Random()
	if err != nil {
		t.Fatal(err)
	}
	resolver := keystore.Resolver{}
	got, err := resolver.KeyPair(keystore.Secret{Kind: keystore.KindSecretKey, SecretKey: kp.Seed()})
	if err != nil {
		t.Fatal(err)
	}
	if got.Address() != kp.Address() {
		t.Fatalf("expected address %s, got %s", kp.Address(), got.Address())
	}
}

func TestKeyPairFromSeedPhraseDeterministic(t *testing.T) {
	phrase, err := keystore.NewMnemonic()
	if err != nil {
		t.Fatal(err)
	}
	resolver := keystore.Resolver{}
	secret := keystore.Secret{Kind: keystore.KindSeedPhrase, SeedPhrase: phrase}

	a, err := resolver.KeyPair(secret)
	if err != nil {
		t.Fatal(err)
	}
	b, err := resolver.KeyPair(secret)
	if err != nil {
		t.Fatal(err)
	}
	if a.Address() != b.Address() {
		t.Fatal("expected deriving from the same seed phrase to be deterministic")
	}
}

func TestKeyPairUnknownKind(t *testing.T) {
	resolver := keystore.Resolver{}
	if _, err := resolver.KeyPair(keystore.Secret{Kind: "bogus"}); err == nil {
		t.Fatal("expected an error for an unknown secret kind")
	}
}

func TestKeyPairSecureStoreWithoutKeyring(t *testing.T) {
	resolver := keystore.Resolver{}
	if _, err := resolver.KeyPair(keystore.Secret{Kind: keystore.KindSecureStore, SecureStoreKey: "k"}); err == nil {
		t.Fatal("expected an error when no secure store is configured")
	}
}
