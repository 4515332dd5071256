// Package argcoder converts between user-facing JSON values and the
// canonical typed ScVal values a contract invocation carries, driven by a
// function's typed spec.
package argcoder

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/pkg/errors"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"

	"github.com/halide-labs/sorobanctl/internal/wasmspec"
)

// Registry resolves user-defined type names (struct/union/enum/error-enum)
// against a contract's decoded spec while parsing or printing values.
type Registry struct {
	spec *wasmspec.Spec
}

// NewRegistry builds a Registry over spec's user-defined types.
func NewRegistry(spec *wasmspec.Spec) *Registry {
	return &Registry{spec: spec}
}

func (r *Registry) findStruct(name string) (*xdr.ScSpecUdtStructV0, bool) {
	for _, e := range r.spec.Entries {
		if e.Type == xdr.ScSpecEntryKindScSpecEntryUdtStructV0 && e.UdtStructV0 != nil && string(e.UdtStructV0.Name) == name {
			return e.UdtStructV0, true
		}
	}
	return nil, false
}

func (r *Registry) findUnion(name string) (*xdr.ScSpecUdtUnionV0, bool) {
	for _, e := range r.spec.Entries {
		if e.Type == xdr.ScSpecEntryKindScSpecEntryUdtUnionV0 && e.UdtUnionV0 != nil && string(e.UdtUnionV0.Name) == name {
			return e.UdtUnionV0, true
		}
	}
	return nil, false
}

func (r *Registry) findEnum(name string) (*xdr.ScSpecUdtEnumV0, bool) {
	for _, e := range r.spec.Entries {
		if e.Type == xdr.ScSpecEntryKindScSpecEntryUdtEnumV0 && e.UdtEnumV0 != nil && string(e.UdtEnumV0.Name) == name {
			return e.UdtEnumV0, true
		}
	}
	return nil, false
}

// isTupleStruct reports whether s should be treated as a positional tuple
// rather than a named-field object: its first field's name is the literal
// "0", the heuristic downstream components rely on for argument shape.
func isTupleStruct(s *xdr.ScSpecUdtStructV0) bool {
	return len(s.Fields) > 0 && string(s.Fields[0].Name) == "0"
}

// Parse converts v, a value already decoded from JSON (bool, float64,
// string, []interface{}, map[string]interface{}, or nil), into a canonical
// ScVal of type t.
func (r *Registry) Parse(v interface{}, t xdr.ScSpecTypeDef) (xdr.ScVal, error) {
	switch t.Type {
	case xdr.ScSpecTypeScSpecTypeBool:
		b, ok := v.(bool)
		if !ok {
			return xdr.ScVal{}, errors.Errorf("argcoder: expected a bool, got %T", v)
		}
		return xdr.ScVal{Type: xdr.ScValTypeScvBool, B: &b}, nil

	case xdr.ScSpecTypeScSpecTypeVoid:
		return xdr.ScVal{Type: xdr.ScValTypeScvVoid}, nil

	case xdr.ScSpecTypeScSpecTypeU32:
		n, err := asInt64(v)
		if err != nil {
			return xdr.ScVal{}, err
		}
		u := xdr.Uint32(n)
		return xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &u}, nil

	case xdr.ScSpecTypeScSpecTypeI32:
		n, err := asInt64(v)
		if err != nil {
			return xdr.ScVal{}, err
		}
		i := xdr.Int32(n)
		return xdr.ScVal{Type: xdr.ScValTypeScvI32, I32: &i}, nil

	case xdr.ScSpecTypeScSpecTypeU64:
		n, err := asBigInt(v)
		if err != nil {
			return xdr.ScVal{}, err
		}
		u := xdr.Uint64(n.Uint64())
		return xdr.ScVal{Type: xdr.ScValTypeScvU64, U64: &u}, nil

	case xdr.ScSpecTypeScSpecTypeI64:
		n, err := asBigInt(v)
		if err != nil {
			return xdr.ScVal{}, err
		}
		i := xdr.Int64(n.Int64())
		return xdr.ScVal{Type: xdr.ScValTypeScvI64, I64: &i}, nil

	case xdr.ScSpecTypeScSpecTypeTimepoint:
		n, err := asBigInt(v)
		if err != nil {
			return xdr.ScVal{}, err
		}
		tp := xdr.TimePoint(n.Uint64())
		return xdr.ScVal{Type: xdr.ScValTypeScvTimepoint, Timepoint: &tp}, nil

	case xdr.ScSpecTypeScSpecTypeDuration:
		n, err := asBigInt(v)
		if err != nil {
			return xdr.ScVal{}, err
		}
		d := xdr.Duration(n.Uint64())
		return xdr.ScVal{Type: xdr.ScValTypeScvDuration, Duration: &d}, nil

	case xdr.ScSpecTypeScSpecTypeU128:
		n, err := asBigInt(v)
		if err != nil {
			return xdr.ScVal{}, err
		}
		parts := splitU128(n)
		return xdr.ScVal{Type: xdr.ScValTypeScvU128, U128: &parts}, nil

	case xdr.ScSpecTypeScSpecTypeI128:
		n, err := asBigInt(v)
		if err != nil {
			return xdr.ScVal{}, err
		}
		parts := splitI128(n)
		return xdr.ScVal{Type: xdr.ScValTypeScvI128, I128: &parts}, nil

	case xdr.ScSpecTypeScSpecTypeU256:
		n, err := asBigInt(v)
		if err != nil {
			return xdr.ScVal{}, err
		}
		parts := splitU256(n)
		return xdr.ScVal{Type: xdr.ScValTypeScvU256, U256: &parts}, nil

	case xdr.ScSpecTypeScSpecTypeI256:
		n, err := asBigInt(v)
		if err != nil {
			return xdr.ScVal{}, err
		}
		parts := splitI256(n)
		return xdr.ScVal{Type: xdr.ScValTypeScvI256, I256: &parts}, nil

	case xdr.ScSpecTypeScSpecTypeBytes:
		b, err := parseHexBytes(v)
		if err != nil {
			return xdr.ScVal{}, err
		}
		sb := xdr.ScBytes(b)
		return xdr.ScVal{Type: xdr.ScValTypeScvBytes, Bytes: &sb}, nil

	case xdr.ScSpecTypeScSpecTypeBytesN:
		b, err := parseHexBytes(v)
		if err != nil {
			return xdr.ScVal{}, err
		}
		if t.BytesN != nil && uint32(len(b)) != uint32(t.BytesN.N) {
			return xdr.ScVal{}, errors.Errorf("argcoder: expected %d bytes, got %d", t.BytesN.N, len(b))
		}
		sb := xdr.ScBytes(b)
		return xdr.ScVal{Type: xdr.ScValTypeScvBytes, Bytes: &sb}, nil

	case xdr.ScSpecTypeScSpecTypeString:
		s, ok := v.(string)
		if !ok {
			return xdr.ScVal{}, errors.Errorf("argcoder: expected a string, got %T", v)
		}
		ss := xdr.ScString(s)
		return xdr.ScVal{Type: xdr.ScValTypeScvString, Str: &ss}, nil

	case xdr.ScSpecTypeScSpecTypeSymbol:
		s, ok := v.(string)
		if !ok {
			return xdr.ScVal{}, errors.Errorf("argcoder: expected a string, got %T", v)
		}
		sym := xdr.ScSymbol(s)
		return xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &sym}, nil

	case xdr.ScSpecTypeScSpecTypeAddress:
		s, ok := v.(string)
		if !ok {
			return xdr.ScVal{}, errors.Errorf("argcoder: expected a strkey address, got %T", v)
		}
		address, err := parseAddress(s)
		if err != nil {
			return xdr.ScVal{}, err
		}
		return xdr.ScVal{Type: xdr.ScValTypeScvAddress, Address: &address}, nil

	case xdr.ScSpecTypeScSpecTypeOption:
		if v == nil {
			return xdr.ScVal{Type: xdr.ScValTypeScvVoid}, nil
		}
		if s, ok := v.(string); ok && s == "null" {
			return xdr.ScVal{Type: xdr.ScValTypeScvVoid}, nil
		}
		return r.Parse(v, *t.Option.ValueType)

	case xdr.ScSpecTypeScSpecTypeResult:
		m, ok := v.(map[string]interface{})
		if !ok {
			return xdr.ScVal{}, errors.New("argcoder: expected a {\"ok\": ...} or {\"error\": ...} object for a Result type")
		}
		if ok, present := m["ok"]; present {
			return r.Parse(ok, *t.Result.OkType)
		}
		if _, present := m["error"]; present {
			return xdr.ScVal{}, errors.New("argcoder: encoding a Result error variant as an argument is not supported")
		}
		return xdr.ScVal{}, errors.New("argcoder: Result object must have an \"ok\" or \"error\" key")

	case xdr.ScSpecTypeScSpecTypeVec:
		items, ok := v.([]interface{})
		if !ok {
			return xdr.ScVal{}, errors.Errorf("argcoder: expected a JSON array, got %T", v)
		}
		vec := make(xdr.ScVec, 0, len(items))
		for _, item := range items {
			elem, err := r.Parse(item, *t.Vec.ElementType)
			if err != nil {
				return xdr.ScVal{}, err
			}
			vec = append(vec, elem)
		}
		return xdr.ScVal{Type: xdr.ScValTypeScvVec, Vec: &vec}, nil

	case xdr.ScSpecTypeScSpecTypeTuple:
		items, ok := v.([]interface{})
		if !ok {
			return xdr.ScVal{}, errors.Errorf("argcoder: expected a JSON array, got %T", v)
		}
		if len(items) != len(t.Tuple.ValueTypes) {
			return xdr.ScVal{}, errors.Errorf("argcoder: tuple expects %d elements, got %d", len(t.Tuple.ValueTypes), len(items))
		}
		vec := make(xdr.ScVec, 0, len(items))
		for i, item := range items {
			elem, err := r.Parse(item, t.Tuple.ValueTypes[i])
			if err != nil {
				return xdr.ScVal{}, err
			}
			vec = append(vec, elem)
		}
		return xdr.ScVal{Type: xdr.ScValTypeScvVec, Vec: &vec}, nil

	case xdr.ScSpecTypeScSpecTypeMap:
		items, ok := v.(map[string]interface{})
		if !ok {
			return xdr.ScVal{}, errors.Errorf("argcoder: expected a JSON object, got %T", v)
		}
		m := make(xdr.ScMap, 0, len(items))
		for k, val := range items {
			key, err := r.Parse(k, *t.Map.KeyType)
			if err != nil {
				return xdr.ScVal{}, err
			}
			mv, err := r.Parse(val, *t.Map.ValueType)
			if err != nil {
				return xdr.ScVal{}, err
			}
			m = append(m, xdr.ScMapEntry{Key: key, Val: mv})
		}
		sortScMap(m)
		return xdr.ScVal{Type: xdr.ScValTypeScvMap, Map: &m}, nil

	case xdr.ScSpecTypeScSpecTypeUdt:
		return r.parseUdt(v, string(t.Udt.Name))

	default:
		return xdr.ScVal{}, errors.Errorf("argcoder: unsupported spec type %v", t.Type)
	}
}

func (r *Registry) parseUdt(v interface{}, name string) (xdr.ScVal, error) {
	if s, ok := r.findStruct(name); ok {
		return r.parseStruct(v, s)
	}
	if u, ok := r.findUnion(name); ok {
		return r.parseUnion(v, u)
	}
	if e, ok := r.findEnum(name); ok {
		return r.parseEnum(v, e)
	}
	return xdr.ScVal{}, errors.Errorf("argcoder: unknown user-defined type %q", name)
}

func (r *Registry) parseStruct(v interface{}, s *xdr.ScSpecUdtStructV0) (xdr.ScVal, error) {
	if isTupleStruct(s) {
		items, ok := v.([]interface{})
		if !ok {
			return xdr.ScVal{}, errors.Errorf("argcoder: expected a JSON array for tuple struct %s", s.Name)
		}
		if len(items) != len(s.Fields) {
			return xdr.ScVal{}, errors.Errorf("argcoder: struct %s expects %d fields, got %d", s.Name, len(s.Fields), len(items))
		}
		vec := make(xdr.ScVec, 0, len(items))
		for i, item := range items {
			elem, err := r.Parse(item, s.Fields[i].Type)
			if err != nil {
				return xdr.ScVal{}, err
			}
			vec = append(vec, elem)
		}
		return xdr.ScVal{Type: xdr.ScValTypeScvVec, Vec: &vec}, nil
	}

	obj, ok := v.(map[string]interface{})
	if !ok {
		return xdr.ScVal{}, errors.Errorf("argcoder: expected a JSON object for struct %s", s.Name)
	}
	m := make(xdr.ScMap, 0, len(s.Fields))
	for _, field := range s.Fields {
		raw, present := obj[string(field.Name)]
		if !present {
			return xdr.ScVal{}, errors.Errorf("argcoder: struct %s missing field %s", s.Name, field.Name)
		}
		val, err := r.Parse(raw, field.Type)
		if err != nil {
			return xdr.ScVal{}, err
		}
		sym := xdr.ScSymbol(field.Name)
		m = append(m, xdr.ScMapEntry{
			Key: xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &sym},
			Val: val,
		})
	}
	sortScMap(m)
	return xdr.ScVal{Type: xdr.ScValTypeScvMap, Map: &m}, nil
}

func (r *Registry) parseUnion(v interface{}, u *xdr.ScSpecUdtUnionV0) (xdr.ScVal, error) {
	var caseName string
	var payload interface{}
	hasPayload := false

	switch vv := v.(type) {
	case string:
		caseName = vv
	case map[string]interface{}:
		if len(vv) != 1 {
			return xdr.ScVal{}, errors.Errorf("argcoder: union %s expects a single-key object", u.Name)
		}
		for k, val := range vv {
			caseName = k
			payload = val
			hasPayload = true
		}
	default:
		return xdr.ScVal{}, errors.Errorf("argcoder: union %s expects a string or single-key object, got %T", u.Name, v)
	}

	for _, c := range u.Cases {
		switch c.Kind {
		case xdr.ScSpecUdtUnionCaseV0KindScSpecUdtUnionCaseVoidV0:
			if c.VoidCase != nil && string(c.VoidCase.Name) == caseName {
				sym := xdr.ScSymbol(caseName)
				vec := xdr.ScVec{{Type: xdr.ScValTypeScvSymbol, Sym: &sym}}
				return xdr.ScVal{Type: xdr.ScValTypeScvVec, Vec: &vec}, nil
			}
		case xdr.ScSpecUdtUnionCaseV0KindScSpecUdtUnionCaseTupleV0:
			if c.TupleCase != nil && string(c.TupleCase.Name) == caseName {
				if !hasPayload {
					return xdr.ScVal{}, errors.Errorf("argcoder: union case %s requires a payload", caseName)
				}
				items, ok := payload.([]interface{})
				if !ok {
					items = []interface{}{payload}
				}
				if len(items) != len(c.TupleCase.Type) {
					return xdr.ScVal{}, errors.Errorf("argcoder: union case %s expects %d payload values, got %d", caseName, len(c.TupleCase.Type), len(items))
				}
				sym := xdr.ScSymbol(caseName)
				vec := xdr.ScVec{{Type: xdr.ScValTypeScvSymbol, Sym: &sym}}
				for i, item := range items {
					elem, err := r.Parse(item, c.TupleCase.Type[i])
					if err != nil {
						return xdr.ScVal{}, err
					}
					vec = append(vec, elem)
				}
				return xdr.ScVal{Type: xdr.ScValTypeScvVec, Vec: &vec}, nil
			}
		}
	}
	return xdr.ScVal{}, errors.Errorf("argcoder: union %s has no case named %q", u.Name, caseName)
}

func (r *Registry) parseEnum(v interface{}, e *xdr.ScSpecUdtEnumV0) (xdr.ScVal, error) {
	switch vv := v.(type) {
	case string:
		for _, c := range e.Cases {
			if string(c.Name) == vv {
				val := xdr.Uint32(c.Value)
				return xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &val}, nil
			}
		}
		return xdr.ScVal{}, errors.Errorf("argcoder: enum %s has no case named %q", e.Name, vv)
	default:
		n, err := asInt64(v)
		if err != nil {
			return xdr.ScVal{}, errors.Errorf("argcoder: enum %s expects a case name or integer code", e.Name)
		}
		val := xdr.Uint32(n)
		return xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &val}, nil
	}
}

func sortScMap(m xdr.ScMap) {
	for i := 1; i < len(m); i++ {
		for j := i; j > 0 && scValLess(m[j], m[j-1]); j-- {
			m[j-1], m[j] = m[j], m[j-1]
		}
	}
}

// scValLess orders ScVal map keys by their symbol/string form when
// possible, falling back to declaration order for anything else — good
// enough for the symbol and string keys structs and maps actually use.
func scValLess(a, b xdr.ScMapEntry) bool {
	ak, aok := scalarKey(a.Key)
	bk, bok := scalarKey(b.Key)
	if aok && bok {
		return ak < bk
	}
	return false
}

func scalarKey(v xdr.ScVal) (string, bool) {
	switch v.Type {
	case xdr.ScValTypeScvSymbol:
		if v.Sym != nil {
			return string(*v.Sym), true
		}
	case xdr.ScValTypeScvString:
		if v.Str != nil {
			return string(*v.Str), true
		}
	}
	return "", false
}

func asInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, errors.Wrap(err, "argcoder: parsing integer")
		}
		return i, nil
	default:
		return 0, errors.Errorf("argcoder: expected a number, got %T", v)
	}
}

func asBigInt(v interface{}) (*big.Int, error) {
	switch n := v.(type) {
	case float64:
		return big.NewInt(int64(n)), nil
	case string:
		bi, ok := new(big.Int).SetString(n, 10)
		if !ok {
			return nil, errors.Errorf("argcoder: %q is not a valid decimal integer", n)
		}
		return bi, nil
	default:
		return nil, errors.Errorf("argcoder: expected a number or decimal string, got %T", v)
	}
}

func parseHexBytes(v interface{}) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, errors.Errorf("argcoder: expected a lowercase hex string, got %T", v)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "argcoder: decoding hex bytes")
	}
	return b, nil
}

var mask64 = new(big.Int).SetUint64(^uint64(0))

func splitU128(n *big.Int) xdr.UInt128Parts {
	lo := new(big.Int).And(n, mask64)
	hi := new(big.Int).Rsh(n, 64)
	return xdr.UInt128Parts{Hi: xdr.Uint64(hi.Uint64()), Lo: xdr.Uint64(lo.Uint64())}
}

func splitI128(n *big.Int) xdr.Int128Parts {
	u := new(big.Int).Set(n)
	if n.Sign() < 0 {
		u = new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 128), n)
	}
	lo := new(big.Int).And(u, mask64)
	hi := new(big.Int).Rsh(u, 64)
	return xdr.Int128Parts{Hi: xdr.Int64(int64(hi.Uint64())), Lo: xdr.Uint64(lo.Uint64())}
}

func splitU256(n *big.Int) xdr.UInt256Parts {
	loLo := new(big.Int).And(n, mask64)
	loHi := new(big.Int).And(new(big.Int).Rsh(n, 64), mask64)
	hiLo := new(big.Int).And(new(big.Int).Rsh(n, 128), mask64)
	hiHi := new(big.Int).Rsh(n, 192)
	return xdr.UInt256Parts{
		HiHi: xdr.Uint64(hiHi.Uint64()),
		HiLo: xdr.Uint64(hiLo.Uint64()),
		LoHi: xdr.Uint64(loHi.Uint64()),
		LoLo: xdr.Uint64(loLo.Uint64()),
	}
}

func splitI256(n *big.Int) xdr.Int256Parts {
	u := new(big.Int).Set(n)
	if n.Sign() < 0 {
		u = new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 256), n)
	}
	loLo := new(big.Int).And(u, mask64)
	loHi := new(big.Int).And(new(big.Int).Rsh(u, 64), mask64)
	hiLo := new(big.Int).And(new(big.Int).Rsh(u, 128), mask64)
	hiHi := new(big.Int).Rsh(u, 192)
	return xdr.Int256Parts{
		HiHi: xdr.Int64(int64(hiHi.Uint64())),
		HiLo: xdr.Uint64(hiLo.Uint64()),
		LoHi: xdr.Uint64(loHi.Uint64()),
		LoLo: xdr.Uint64(loLo.Uint64()),
	}
}

// parseAddress accepts an account ("G..."), contract ("C...") or muxed
// ("M...") strkey and returns the corresponding ScAddress. Muxed addresses
// are resolved to their underlying account id, matching how a transaction
// source is addressed on-chain.
func parseAddress(s string) (xdr.ScAddress, error) {
	if accountID, err := xdr.AddressToAccountId(s); err == nil {
		return xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeAccount, AccountId: &accountID}, nil
	}
	if muxed, err := xdr.AddressToMuxedAccount(s); err == nil {
		accountID := muxed.ToAccountId()
		return xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeAccount, AccountId: &accountID}, nil
	}
	if raw, err := strkey.Decode(strkey.VersionByteContract, s); err == nil {
		var contractID xdr.Hash
		copy(contractID[:], raw)
		return xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeContract, ContractId: &contractID}, nil
	}
	return xdr.ScAddress{}, errors.Errorf("argcoder: %q is not a recognized account or contract address", s)
}

// Print renders a canonical ScVal back to a JSON-ready value. It reads the
// ScVal alone, without a spec type, so it does not invert Parse for
// spec-typed values: an enum case prints as its numeric code rather than
// its name, and a union case prints as a JSON array of the case name
// followed by its payload.
func (r *Registry) Print(v xdr.ScVal) (interface{}, error) {
	switch v.Type {
	case xdr.ScValTypeScvVoid:
		return nil, nil
	case xdr.ScValTypeScvBool:
		return *v.B, nil
	case xdr.ScValTypeScvU32:
		return uint32(*v.U32), nil
	case xdr.ScValTypeScvI32:
		return int32(*v.I32), nil
	case xdr.ScValTypeScvU64:
		return strconv.FormatUint(uint64(*v.U64), 10), nil
	case xdr.ScValTypeScvI64:
		return strconv.FormatInt(int64(*v.I64), 10), nil
	case xdr.ScValTypeScvTimepoint:
		return strconv.FormatUint(uint64(*v.Timepoint), 10), nil
	case xdr.ScValTypeScvDuration:
		return strconv.FormatUint(uint64(*v.Duration), 10), nil
	case xdr.ScValTypeScvU128:
		return joinU128(*v.U128).String(), nil
	case xdr.ScValTypeScvI128:
		return joinI128(*v.I128).String(), nil
	case xdr.ScValTypeScvU256:
		return joinU256(*v.U256).String(), nil
	case xdr.ScValTypeScvI256:
		return joinI256(*v.I256).String(), nil
	case xdr.ScValTypeScvBytes:
		return hex.EncodeToString(*v.Bytes), nil
	case xdr.ScValTypeScvString:
		return string(*v.Str), nil
	case xdr.ScValTypeScvSymbol:
		return string(*v.Sym), nil
	case xdr.ScValTypeScvAddress:
		return printAddress(*v.Address)
	case xdr.ScValTypeScvVec:
		out := make([]interface{}, 0, len(*v.Vec))
		for _, elem := range *v.Vec {
			p, err := r.Print(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	case xdr.ScValTypeScvMap:
		out := make(map[string]interface{}, len(*v.Map))
		for _, entry := range *v.Map {
			k, ok := scalarKey(entry.Key)
			if !ok {
				return nil, errors.New("argcoder: cannot print a map with a non-scalar key")
			}
			val, err := r.Print(entry.Val)
			if err != nil {
				return nil, err
			}
			out[k] = val
		}
		return out, nil
	case xdr.ScValTypeScvError:
		return printError(v.Error), nil
	default:
		return nil, errors.Errorf("argcoder: unsupported ScVal type %v", v.Type)
	}
}

func printError(e *xdr.ScError) map[string]interface{} {
	out := map[string]interface{}{}
	if e == nil {
		return out
	}
	if e.Type == xdr.ScErrorTypeSceContract && e.ContractCode != nil {
		out["code"] = uint32(*e.ContractCode)
	}
	return out
}

func printAddress(a xdr.ScAddress) (string, error) {
	switch a.Type {
	case xdr.ScAddressTypeScAddressTypeAccount:
		if a.AccountId == nil {
			return "", errors.New("argcoder: account address missing account id")
		}
		return a.AccountId.Address(), nil
	case xdr.ScAddressTypeScAddressTypeContract:
		if a.ContractId == nil {
			return "", errors.New("argcoder: contract address missing contract id")
		}
		return strkey.Encode(strkey.VersionByteContract, (*a.ContractId)[:])
	default:
		return "", errors.Errorf("argcoder: unsupported address type %v", a.Type)
	}
}

func joinU128(p xdr.UInt128Parts) *big.Int {
	out := new(big.Int).SetUint64(uint64(p.Hi))
	out.Lsh(out, 64)
	out.Or(out, new(big.Int).SetUint64(uint64(p.Lo)))
	return out
}

func joinI128(p xdr.Int128Parts) *big.Int {
	neg := p.Hi < 0
	hi := uint64(p.Hi)
	out := new(big.Int).SetUint64(hi)
	out.Lsh(out, 64)
	out.Or(out, new(big.Int).SetUint64(uint64(p.Lo)))
	if neg {
		mod := new(big.Int).Lsh(big.NewInt(1), 128)
		out.Sub(out, mod)
	}
	return out
}

func joinU256(p xdr.UInt256Parts) *big.Int {
	out := new(big.Int).SetUint64(uint64(p.HiHi))
	out.Lsh(out, 64)
	out.Or(out, new(big.Int).SetUint64(uint64(p.HiLo)))
	out.Lsh(out, 64)
	out.Or(out, new(big.Int).SetUint64(uint64(p.LoHi)))
	out.Lsh(out, 64)
	out.Or(out, new(big.Int).SetUint64(uint64(p.LoLo)))
	return out
}

func joinI256(p xdr.Int256Parts) *big.Int {
	neg := p.HiHi < 0
	out := new(big.Int).SetUint64(uint64(p.HiHi))
	out.Lsh(out, 64)
	out.Or(out, new(big.Int).SetUint64(uint64(p.HiLo)))
	out.Lsh(out, 64)
	out.Or(out, new(big.Int).SetUint64(uint64(p.LoHi)))
	out.Lsh(out, 64)
	out.Or(out, new(big.Int).SetUint64(uint64(p.LoLo)))
	if neg {
		mod := new(big.Int).Lsh(big.NewInt(1), 256)
		out.Sub(out, mod)
	}
	return out
}
