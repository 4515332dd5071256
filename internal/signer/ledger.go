package signer

import (
	"context"
	"crypto/sha256"

	"github.com/pkg/errors"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"

	"github.com/halide-labs/sorobanctl/internal/signer/ledgerhw"
)

// hwDevice is the subset of *ledgerhw.Device the Ledger substrate needs;
// narrowed to an interface so tests can substitute a fake.
type hwDevice interface {
	GetPublicKey(ctx context.Context, path string, confirm bool) ([32]byte, error)
	SignTransaction(ctx context.Context, path string, payload []byte) ([]byte, error)
	SignTransactionHash(ctx context.Context, path string, hash [32]byte) ([]byte, error)
}

// Ledger signs through a hardware wallet over the framed APDU transport in
// package ledgerhw. Confirmation of the signing request happens on the
// device itself; a rejection surfaces as ErrUserCancelled.
type Ledger struct {
	Device hwDevice
	Path   string
	// HashSigning requests sign-tx-hash instead of sign-tx; only honored
	// when the device reports hash signing enabled.
	HashSigning bool
}

// NewLedger opens the first attached device and binds it to path.
func NewLedger(path string, hashSigning bool) (*Ledger, error) {
	dev, err := ledgerhw.Open()
	if err != nil {
		return nil, err
	}
	return &Ledger{Device: dev, Path: path, HashSigning: hashSigning}, nil
}

func (l *Ledger) PublicKey() (string, error) {
	raw, err := l.Device.GetPublicKey(context.Background(), l.Path, false)
	if err != nil {
		return "", translateLedgerErr(err)
	}
	return strkey.Encode(strkey.VersionByteAccountID, raw[:])
}

func (l *Ledger) SignTransaction(ctx context.Context, tx *txnbuild.Transaction, networkPassphrase string) (*txnbuild.Transaction, error) {
	pubkey, err := l.Device.GetPublicKey(ctx, l.Path, false)
	if err != nil {
		return nil, translateLedgerErr(err)
	}

	var rawSig []byte
	if l.HashSigning {
		hash, err := tx.Hash(networkPassphrase)
		if err != nil {
			return nil, errors.Wrap(err, "signer: hashing transaction")
		}
		rawSig, err = l.Device.SignTransactionHash(ctx, l.Path, hash)
		if err != nil {
			return nil, translateLedgerErr(err)
		}
	} else {
		base, err := tx.SignatureBase(networkPassphrase)
		if err != nil {
			return nil, errors.Wrap(err, "signer: building signature base")
		}
		rawSig, err = l.Device.SignTransaction(ctx, l.Path, base)
		if err != nil {
			return nil, translateLedgerErr(err)
		}
	}

	hint := xdr.SignatureHint{}
	copy(hint[:], pubkey[28:32])
	decorated := xdr.DecoratedSignature{
		Hint:      hint,
		Signature: xdr.Signature(rawSig),
	}
	signed, err := tx.AddSignatureDecorated(decorated)
	if err != nil {
		return nil, errors.Wrap(err, "signer: attaching device signature")
	}
	return signed, nil
}

func (l *Ledger) SignAuthEntry(ctx context.Context, preimage AuthPreimage) (xdr.ScVal, error) {
	networkID := sha256.Sum256([]byte(preimage.NetworkPassphrase))
	hashPreimage := xdr.HashIdPreimage{
		Type: xdr.EnvelopeTypeEnvelopeTypeSorobanAuthorization,
		SorobanAuthorization: &xdr.HashIdPreimageSorobanAuthorization{
			NetworkId:                 xdr.Hash(networkID),
			Invocation:                preimage.Invocation,
			Nonce:                     preimage.Nonce,
			SignatureExpirationLedger: xdr.Uint32(preimage.SignatureExpirationLedger),
		},
	}
	payloadXDR, err := hashPreimage.MarshalBinary()
	if err != nil {
		return xdr.ScVal{}, errors.Wrap(err, "signer: encoding authorization preimage")
	}
	payload := sha256.Sum256(payloadXDR)

	pubkey, err := l.Device.GetPublicKey(ctx, l.Path, false)
	if err != nil {
		return xdr.ScVal{}, translateLedgerErr(err)
	}

	var rawSig []byte
	if l.HashSigning {
		rawSig, err = l.Device.SignTransactionHash(ctx, l.Path, payload)
	} else {
		rawSig, err = l.Device.SignTransaction(ctx, l.Path, payloadXDR)
	}
	if err != nil {
		return xdr.ScVal{}, translateLedgerErr(err)
	}

	publicKeyBytes := xdr.ScBytes(pubkey[:])
	signatureBytes := xdr.ScBytes(rawSig)
	pkSym := xdr.ScSymbol("public_key")
	sigSym := xdr.ScSymbol("signature")
	sigMap := xdr.ScMap{
		{Key: xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &pkSym}, Val: xdr.ScVal{Type: xdr.ScValTypeScvBytes, Bytes: &publicKeyBytes}},
		{Key: xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &sigSym}, Val: xdr.ScVal{Type: xdr.ScValTypeScvBytes, Bytes: &signatureBytes}},
	}
	return xdr.ScVal{
		Type: xdr.ScValTypeScvVec,
		Vec:  &xdr.ScVec{{Type: xdr.ScValTypeScvMap, Map: &sigMap}},
	}, nil
}

func translateLedgerErr(err error) error {
	if err == ledgerhw.ErrUserCancelled {
		return ErrUserCancelled
	}
	return err
}
