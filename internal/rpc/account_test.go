package rpc_test

import (
	"math"
	"testing"

	"github.com/halide-labs/sorobanctl/internal/rpc"
)

func TestAccountIncrementSequenceNumber(t *testing.T) {
	a := rpc.Account{Sequence: 41}
	seq, err := a.IncrementSequenceNumber()
	if err != nil {
		t.Fatal(err)
	}
	if seq != 42 {
		t.Fatalf("expected 42, got %d", seq)
	}
}

func TestAccountIncrementSequenceNumberOverflows(t *testing.T) {
	a := rpc.Account{Sequence: math.MaxInt64}
	if _, err := a.IncrementSequenceNumber(); err == nil {
		t.Fatal("expected an error incrementing past MaxInt64")
	}
}

func TestAccountSignerSummary(t *testing.T) {
	a := rpc.Account{Signers: []rpc.Signer{
		{Key: "GABC", Weight: 1},
		{Key: "GDEF", Weight: 2},
	}}
	summary := a.SignerSummary()
	if summary["GABC"] != 1 || summary["GDEF"] != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
