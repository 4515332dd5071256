package main

import (
	"os"
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"
)

func TestEnvOrFallsBackWhenUnset(t *testing.T) {
	os.Unsetenv("SOROBANCTL_TEST_VAR")
	if got := envOr("SOROBANCTL_TEST_VAR", "fallback"); got != "fallback" {
		t.Fatalf("got %q, want fallback", got)
	}
	os.Setenv("SOROBANCTL_TEST_VAR", "set")
	defer os.Unsetenv("SOROBANCTL_TEST_VAR")
	if got := envOr("SOROBANCTL_TEST_VAR", "fallback"); got != "set" {
		t.Fatalf("got %q, want set", got)
	}
}

func TestScAddressFromContractStrkeyRoundTrips(t *testing.T) {
	var raw [32]byte
	for i := range raw {
		raw[i] = byte(i)
	}
	s, err := strkey.Encode(strkey.VersionByteContract, raw[:])
	if err != nil {
		t.Fatal(err)
	}
	addr, err := scAddressFromContractStrkey(s)
	if err != nil {
		t.Fatal(err)
	}
	if addr.Type != xdr.ScAddressTypeScAddressTypeContract {
		t.Fatalf("unexpected address type %v", addr.Type)
	}
	if addr.ContractId == nil || [32]byte(*addr.ContractId) != raw {
		t.Fatalf("contract id mismatch: %v", addr.ContractId)
	}
}

func TestScAddressFromContractStrkeyRejectsAccountAddress(t *testing.T) {
	kp := keypair.MustRandom()
	if _, err := scAddressFromContractStrkey(kp.Address()); err == nil {
		t.Fatal("expected an error decoding an account address as a contract address")
	}
}

func TestFramesFromDiagnosticEventsEmptyInput(t *testing.T) {
	frames, err := framesFromDiagnosticEvents(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 0 {
		t.Fatalf("expected no frames, got %d", len(frames))
	}
}
