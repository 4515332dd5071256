package signer

import (
	"context"
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/txnbuild"

	"github.com/halide-labs/sorobanctl/internal/signer/ledgerhw"
)

type fakeHwDevice struct {
	pubkey       [32]byte
	signature    []byte
	getPubkeyErr error
	signErr      error
}

func (f *fakeHwDevice) GetPublicKey(ctx context.Context, path string, confirm bool) ([32]byte, error) {
	return f.pubkey, f.getPubkeyErr
}

func (f *fakeHwDevice) SignTransaction(ctx context.Context, path string, payload []byte) ([]byte, error) {
	return f.signature, f.signErr
}

func (f *fakeHwDevice) SignTransactionHash(ctx context.Context, path string, hash [32]byte) ([]byte, error) {
	return f.signature, f.signErr
}

func testAccountKeypair(t *testing.T) (*keypair.Full, [32]byte) {
	t.Helper()
	kp, err := keypair.Random()
	if err != nil {
		t.Fatal(err)
	}
	raw, err := strkey.Decode(strkey.VersionByteAccountID, kp.Address())
	if err != nil {
		t.Fatal(err)
	}
	var out [32]byte
	copy(out[:], raw)
	return kp, out
}

func TestLedgerPublicKeyMatchesDeviceKey(t *testing.T) {
	kp, raw := testAccountKeypair(t)
	dev := &fakeHwDevice{pubkey: raw}
	l := &Ledger{Device: dev, Path: "44'/148'/0'"}

	got, err := l.PublicKey()
	if err != nil {
		t.Fatal(err)
	}
	if got != kp.Address() {
		t.Fatalf("got %s, want %s", got, kp.Address())
	}
}

func TestLedgerSignTransactionAttachesDecoratedSignature(t *testing.T) {
	_, raw := testAccountKeypair(t)
	sig := make([]byte, 64)
	for i := range sig {
		sig[i] = byte(i)
	}
	dev := &fakeHwDevice{pubkey: raw, signature: sig}
	l := &Ledger{Device: dev, Path: "44'/148'/0'"}

	src := keypair.MustRandom()
	account := txnbuild.NewSimpleAccount(src.Address(), 1)
	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &account,
		IncrementSequenceNum: true,
		Operations:           []txnbuild.Operation{&txnbuild.BumpSequence{BumpTo: 2}},
		BaseFee:              txnbuild.MinBaseFee,
		Preconditions:        txnbuild.Preconditions{TimeBounds: txnbuild.NewInfiniteTimeout()},
	})
	if err != nil {
		t.Fatal(err)
	}

	signed, err := l.SignTransaction(context.Background(), tx, "Test SDF Network ; September 2015")
	if err != nil {
		t.Fatal(err)
	}
	sigs := signed.Signatures()
	if len(sigs) != 1 {
		t.Fatalf("expected one signature, got %d", len(sigs))
	}
}

func TestLedgerTranslatesUserCancellation(t *testing.T) {
	dev := &fakeHwDevice{getPubkeyErr: ledgerhw.ErrUserCancelled}
	l := &Ledger{Device: dev, Path: "44'/148'/0'"}

	_, err := l.PublicKey()
	if err != ErrUserCancelled {
		t.Fatalf("expected ErrUserCancelled, got %v", err)
	}
}
