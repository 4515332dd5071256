package errresolve

import (
	"context"
	"testing"

	"github.com/stellar/go/xdr"

	"github.com/halide-labs/sorobanctl/internal/wasmspec"
)

type fakeSpecs struct {
	specs map[string]*wasmspec.Spec
}

func (f *fakeSpecs) Spec(ctx context.Context, contractID string) (*wasmspec.Spec, error) {
	return f.specs[contractID], nil
}

func errorEnumSpec(enumName string, cases map[string]uint32) *wasmspec.Spec {
	udt := &xdr.ScSpecUdtErrorEnumV0{Name: xdr.ScSymbol(enumName)}
	for name, value := range cases {
		udt.Cases = append(udt.Cases, xdr.ScSpecUdtErrorEnumCaseV0{
			Name:  xdr.ScSymbol(name),
			Value: xdr.Uint32(value),
		})
	}
	return &wasmspec.Spec{
		Entries: []xdr.ScSpecEntry{
			{Type: xdr.ScSpecEntryKindScSpecEntryUdtErrorEnumV0, UdtErrorEnumV0: udt},
		},
	}
}

func TestResolvePrefersOutermostContract(t *testing.T) {
	specs := &fakeSpecs{specs: map[string]*wasmspec.Spec{
		"outer": errorEnumSpec("OuterError", map[string]uint32{"NotFound": 1}),
		"inner": errorEnumSpec("InnerError", map[string]uint32{"NotFound": 1}),
	}}
	r := New(specs)

	res, err := r.Resolve(context.Background(), []Frame{
		{ContractID: "outer", Code: 1},
		{ContractID: "inner", Code: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found || res.ContractID != "outer" || res.CaseName != "NotFound" || res.EnumName != "OuterError" {
		t.Fatalf("expected outer contract's name to win, got %+v", res)
	}
}

func TestResolveFallsBackToInnerWhenOuterHasNoMatch(t *testing.T) {
	specs := &fakeSpecs{specs: map[string]*wasmspec.Spec{
		"outer": errorEnumSpec("OuterError", map[string]uint32{"Other": 99}),
		"inner": errorEnumSpec("InnerError", map[string]uint32{"NotFound": 1}),
	}}
	r := New(specs)

	res, err := r.Resolve(context.Background(), []Frame{
		{ContractID: "outer", Code: 1},
		{ContractID: "inner", Code: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found || res.ContractID != "inner" {
		t.Fatalf("expected fallback to inner contract, got %+v", res)
	}
}

func TestResolveStopsAtTrappedFrame(t *testing.T) {
	specs := &fakeSpecs{specs: map[string]*wasmspec.Spec{
		"inner": errorEnumSpec("InnerError", map[string]uint32{"NotFound": 1}),
	}}
	r := New(specs)

	res, err := r.Resolve(context.Background(), []Frame{
		{ContractID: "outer", Trapped: true},
		{ContractID: "inner", Code: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Found {
		t.Fatalf("expected no resolution past a trapped frame, got %+v", res)
	}
}

func TestResolveNoMatchLeavesOnlyCode(t *testing.T) {
	specs := &fakeSpecs{specs: map[string]*wasmspec.Spec{}}
	r := New(specs)

	res, err := r.Resolve(context.Background(), []Frame{{ContractID: "unknown", Code: 7}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Found {
		t.Fatalf("expected no match, got %+v", res)
	}
}

func TestCodeFromErrorExtractsContractCode(t *testing.T) {
	code := xdr.Uint32(42)
	v := xdr.ScVal{
		Type: xdr.ScValTypeScvError,
		Error: &xdr.ScError{
			Type:         xdr.ScErrorTypeSceContract,
			ContractCode: &code,
		},
	}
	got, ok := CodeFromError(v)
	if !ok || got != 42 {
		t.Fatalf("expected code 42, got %d (ok=%v)", got, ok)
	}
}

func TestCodeFromErrorRejectsNonErrorValue(t *testing.T) {
	b := true
	v := xdr.ScVal{Type: xdr.ScValTypeScvBool, B: &b}
	_, ok := CodeFromError(v)
	if ok {
		t.Fatal("expected ok=false for a non-error value")
	}
}
