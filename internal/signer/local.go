package signer

import (
	"context"
	"crypto/sha256"

	"github.com/pkg/errors"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

// Local is the pure in-process ed25519 signer: deterministic, no external
// I/O, the default substrate for the source account.
type Local struct {
	kp *keypair.Full
}

// NewLocal wraps kp as a Signer.
func NewLocal(kp *keypair.Full) *Local {
	return &Local{kp: kp}
}

func (l *Local) PublicKey() (string, error) {
	return l.kp.Address(), nil
}

func (l *Local) SignTransaction(ctx context.Context, tx *txnbuild.Transaction, networkPassphrase string) (*txnbuild.Transaction, error) {
	signed, err := tx.Sign(networkPassphrase, l.kp)
	if err != nil {
		return nil, errors.Wrap(err, "signer: signing transaction")
	}
	return signed, nil
}

func (l *Local) SignAuthEntry(ctx context.Context, preimage AuthPreimage) (xdr.ScVal, error) {
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

	signature, err := l.kp.Sign(payload[:])
	if err != nil {
		return xdr.ScVal{}, errors.Wrap(err, "signer: signing authorization payload")
	}

	raw, err := strkey.Decode(strkey.VersionByteAccountID, l.kp.Address())
	if err != nil {
		return xdr.ScVal{}, errors.Wrap(err, "signer: decoding own address")
	}
	publicKeyBytes := xdr.ScBytes(raw)
	signatureBytes := xdr.ScBytes(signature)

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
