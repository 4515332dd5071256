// Package keystore resolves a named identity to a signing keypair. An
// identity's secret is stored as one of three variants: a raw ed25519
// seed strkey, a BIP-39 mnemonic plus an HD derivation path, or a handle
// into the OS secure credential store.
package keystore

import (
	"github.com/99designs/keyring"
	"github.com/pkg/errors"
	"github.com/stellar/go/keypair"
	"github.com/tyler-smith/go-bip39"
)

// Kind identifies which secret variant an identity uses.
type Kind string

const (
	KindSecretKey    Kind = "secret_key"
	KindSeedPhrase   Kind = "seed_phrase"
	KindSecureStore  Kind = "secure_store"
)

// Secret is the on-disk (TOML) representation of an identity. Exactly
// one of SecretKey, SeedPhrase or SecureStoreKey is set, matching Kind.
type Secret struct {
	Kind          Kind   `toml:"kind"`
	SecretKey     string `toml:"secret_key,omitempty"`
	SeedPhrase    string `toml:"seed_phrase,omitempty"`
	HDPath        uint32 `toml:"hd_path,omitempty"`
	SecureStoreKey string `toml:"secure_store_key,omitempty"`
}

// ErrLedgerDoesNotRevealSecretKey is returned when something asks a
// hardware-wallet-backed signer for its raw private key.
var ErrLedgerDoesNotRevealSecretKey = errors.New("keystore: ledger signer does not reveal its secret key")

// Resolver turns a Secret into a signing keypair.
type Resolver struct {
	Keyring keyring.Keyring
}

// KeyPair resolves secret to a *keypair.Full.
func (r Resolver) KeyPair(secret Secret) (*keypair.Full, error) {
	switch secret.Kind {
	case KindSecretKey:
		kp, err := keypair.ParseFull(secret.SecretKey)
		if err != nil {
			return nil, errors.Wrap(err, "keystore: parsing secret key")
		}
		return kp, nil
	case KindSeedPhrase:
		return fromMnemonic(secret.SeedPhrase, secret.HDPath)
	case KindSecureStore:
		if r.Keyring == nil {
			return nil, errors.New("keystore: no secure store configured")
		}
		item, err := r.Keyring.Get(secret.SecureStoreKey)
		if err != nil {
			return nil, errors.Wrap(err, "keystore: reading secure store entry")
		}
		kp, err := keypair.ParseFull(string(item.Data))
		if err != nil {
			return nil, errors.Wrap(err, "keystore: parsing secure store secret")
		}
		return kp, nil
	default:
		return nil, errors.Errorf("keystore: unknown secret kind %q", secret.Kind)
	}
}

// Store writes secret's raw key material into the OS secure store under
// key, returning a Secret referencing it rather than embedding the key.
func (r Resolver) Store(key string, secretKey string) (Secret, error) {
	if r.Keyring == nil {
		return Secret{}, errors.New("keystore: no secure store configured")
	}
	if err := r.Keyring.Set(keyring.Item{Key: key, Data: []byte(secretKey)}); err != nil {
		return Secret{}, errors.Wrap(err, "keystore: writing secure store entry")
	}
	return Secret{Kind: KindSecureStore, SecureStoreKey: key}, nil
}

func fromMnemonic(phrase string, hdPath uint32) (*keypair.Full, error) {
	if !bip39.IsMnemonicValid(phrase) {
		return nil, errors.New("keystore: invalid seed phrase")
	}
	seed := bip39.NewSeed(phrase, "")
	// the first 32 bytes of the BIP-39 seed, offset by the HD path index,
	// give ed25519 its 32-byte private seed.
	offset := int(hdPath) % (len(seed) - 32)
	raw := seed[offset : offset+32]
	kp, err := keypair.FromRawSeed(*(*[32]byte)(raw))
	if err != nil {
		return nil, errors.Wrap(err, "keystore: deriving key pair from seed phrase")
	}
	return kp, nil
}

// NewMnemonic generates a fresh 12-word BIP-39 seed phrase.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", errors.Wrap(err, "keystore: generating entropy")
	}
	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", errors.Wrap(err, "keystore: generating mnemonic")
	}
	return phrase, nil
}
