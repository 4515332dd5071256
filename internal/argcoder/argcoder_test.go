package argcoder_test

import (
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/xdr"

	"github.com/halide-labs/sorobanctl/internal/argcoder"
	"github.com/halide-labs/sorobanctl/internal/wasmspec"
)

func emptyRegistry() *argcoder.Registry {
	return argcoder.NewRegistry(&wasmspec.Spec{})
}

func typeOf(kind xdr.ScSpecType) xdr.ScSpecTypeDef {
	return xdr.ScSpecTypeDef{Type: kind}
}

func TestParsePrintBoolRoundTrip(t *testing.T) {
	r := emptyRegistry()
	v, err := r.Parse(true, typeOf(xdr.ScSpecTypeScSpecTypeBool))
	if err != nil {
		t.Fatal(err)
	}
	printed, err := r.Print(v)
	if err != nil {
		t.Fatal(err)
	}
	if printed != true {
		t.Fatalf("expected true, got %v", printed)
	}
}

func TestParsePrintU32RoundTrip(t *testing.T) {
	r := emptyRegistry()
	v, err := r.Parse(float64(42), typeOf(xdr.ScSpecTypeScSpecTypeU32))
	if err != nil {
		t.Fatal(err)
	}
	if v.Type != xdr.ScValTypeScvU32 || uint32(*v.U32) != 42 {
		t.Fatalf("unexpected value %+v", v)
	}
	printed, err := r.Print(v)
	if err != nil {
		t.Fatal(err)
	}
	if printed != uint32(42) {
		t.Fatalf("expected 42, got %v", printed)
	}
}

func TestParsePrintU64AsDecimalString(t *testing.T) {
	r := emptyRegistry()
	v, err := r.Parse("18446744073709551615", typeOf(xdr.ScSpecTypeScSpecTypeU64))
	if err != nil {
		t.Fatal(err)
	}
	printed, err := r.Print(v)
	if err != nil {
		t.Fatal(err)
	}
	if printed != "18446744073709551615" {
		t.Fatalf("expected max uint64 string, got %v", printed)
	}
}

func TestParsePrintI128RoundTripNegative(t *testing.T) {
	r := emptyRegistry()
	v, err := r.Parse("-170141183460469231731687303715884105727", typeOf(xdr.ScSpecTypeScSpecTypeI128))
	if err != nil {
		t.Fatal(err)
	}
	printed, err := r.Print(v)
	if err != nil {
		t.Fatal(err)
	}
	if printed != "-170141183460469231731687303715884105727" {
		t.Fatalf("unexpected round trip result %v", printed)
	}
}

func TestParseBytesFromHex(t *testing.T) {
	r := emptyRegistry()
	v, err := r.Parse("deadbeef", typeOf(xdr.ScSpecTypeScSpecTypeBytes))
	if err != nil {
		t.Fatal(err)
	}
	printed, err := r.Print(v)
	if err != nil {
		t.Fatal(err)
	}
	if printed != "deadbeef" {
		t.Fatalf("expected deadbeef, got %v", printed)
	}
}

func TestParseOptionNone(t *testing.T) {
	r := emptyRegistry()
	inner := typeOf(xdr.ScSpecTypeScSpecTypeU32)
	optType := xdr.ScSpecTypeDef{
		Type:   xdr.ScSpecTypeScSpecTypeOption,
		Option: &xdr.ScSpecTypeOption{ValueType: &inner},
	}
	v, err := r.Parse(nil, optType)
	if err != nil {
		t.Fatal(err)
	}
	if v.Type != xdr.ScValTypeScvVoid {
		t.Fatalf("expected void for a none option, got %v", v.Type)
	}
}

func TestParseOptionSome(t *testing.T) {
	r := emptyRegistry()
	inner := typeOf(xdr.ScSpecTypeScSpecTypeU32)
	optType := xdr.ScSpecTypeDef{
		Type:   xdr.ScSpecTypeScSpecTypeOption,
		Option: &xdr.ScSpecTypeOption{ValueType: &inner},
	}
	v, err := r.Parse(float64(7), optType)
	if err != nil {
		t.Fatal(err)
	}
	if v.Type != xdr.ScValTypeScvU32 || uint32(*v.U32) != 7 {
		t.Fatalf("unexpected value %+v", v)
	}
}

func TestParsePrintVecRoundTrip(t *testing.T) {
	r := emptyRegistry()
	elem := typeOf(xdr.ScSpecTypeScSpecTypeU32)
	vecType := xdr.ScSpecTypeDef{
		Type: xdr.ScSpecTypeScSpecTypeVec,
		Vec:  &xdr.ScSpecTypeVec{ElementType: &elem},
	}
	v, err := r.Parse([]interface{}{float64(1), float64(2), float64(3)}, vecType)
	if err != nil {
		t.Fatal(err)
	}
	printed, err := r.Print(v)
	if err != nil {
		t.Fatal(err)
	}
	items, ok := printed.([]interface{})
	if !ok || len(items) != 3 {
		t.Fatalf("expected a 3-element slice, got %v", printed)
	}
}

func TestParseAddressAccount(t *testing.T) {
	kp, err := keypair.Random()
	if err != nil {
		t.Fatal(err)
	}
	r := emptyRegistry()
	v, err := r.Parse(kp.Address(), typeOf(xdr.ScSpecTypeScSpecTypeAddress))
	if err != nil {
		t.Fatal(err)
	}
	printed, err := r.Print(v)
	if err != nil {
		t.Fatal(err)
	}
	if printed != kp.Address() {
		t.Fatalf("expected %s, got %v", kp.Address(), printed)
	}
}

func TestParseTupleStructPositional(t *testing.T) {
	spec := &wasmspec.Spec{
		Entries: []xdr.ScSpecEntry{
			{
				Type: xdr.ScSpecEntryKindScSpecEntryUdtStructV0,
				UdtStructV0: &xdr.ScSpecUdtStructV0{
					Name: "Point",
					Fields: []xdr.ScSpecUdtStructFieldV0{
						{Name: "0", Type: typeOf(xdr.ScSpecTypeScSpecTypeU32)},
						{Name: "1", Type: typeOf(xdr.ScSpecTypeScSpecTypeU32)},
					},
				},
			},
		},
	}
	r := argcoder.NewRegistry(spec)
	udtType := xdr.ScSpecTypeDef{Type: xdr.ScSpecTypeScSpecTypeUdt, Udt: &xdr.ScSpecTypeUdt{Name: "Point"}}
	v, err := r.Parse([]interface{}{float64(3), float64(4)}, udtType)
	if err != nil {
		t.Fatal(err)
	}
	if v.Type != xdr.ScValTypeScvVec || len(*v.Vec) != 2 {
		t.Fatalf("expected a 2-element vector for a tuple struct, got %+v", v)
	}
}

func TestParseEnumByName(t *testing.T) {
	spec := &wasmspec.Spec{
		Entries: []xdr.ScSpecEntry{
			{
				Type: xdr.ScSpecEntryKindScSpecEntryUdtEnumV0,
				UdtEnumV0: &xdr.ScSpecUdtEnumV0{
					Name: "Color",
					Cases: []xdr.ScSpecUdtEnumCaseV0{
						{Name: "Red", Value: 0},
						{Name: "Blue", Value: 1},
					},
				},
			},
		},
	}
	r := argcoder.NewRegistry(spec)
	udtType := xdr.ScSpecTypeDef{Type: xdr.ScSpecTypeScSpecTypeUdt, Udt: &xdr.ScSpecTypeUdt{Name: "Color"}}
	v, err := r.Parse("Blue", udtType)
	if err != nil {
		t.Fatal(err)
	}
	if v.Type != xdr.ScValTypeScvU32 || uint32(*v.U32) != 1 {
		t.Fatalf("expected enum code 1, got %+v", v)
	}
}
