// Package errresolve maps numeric contract error codes back to
// source-level enum case names using a contract's cached Wasm spec.
package errresolve

import (
	"context"

	"github.com/stellar/go/xdr"

	"github.com/halide-labs/sorobanctl/internal/wasmspec"
)

// SpecSource resolves a contract's decoded spec by address, fed from the
// Wasm Spec Reader's cache. A nil, nil-error return means "no spec known
// for this contract" — not itself a failure.
type SpecSource interface {
	Spec(ctx context.Context, contractID string) (*wasmspec.Spec, error)
}

// Frame is one contract in an invocation chain that raised a typed
// Error(code), ordered outermost first (frames[0] is the contract whose
// failure reached the caller).
type Frame struct {
	ContractID string
	Code       uint32
	// Trapped marks a host trap: this call was not wrapped in a try_*
	// boundary, so its failure is not a typed Error and nothing inside it
	// can be resolved either.
	Trapped bool
}

// Resolution is the detail to attach to a surfaced ContractInvoke error.
type Resolution struct {
	ContractID string
	EnumName   string
	CaseName   string
	Found      bool
}

// Resolver resolves numeric contract error codes to names.
type Resolver struct {
	Specs SpecSource
}

// New returns a Resolver backed by specs.
func New(specs SpecSource) *Resolver {
	return &Resolver{Specs: specs}
}

// Resolve walks frames outer to inner looking for the first enum case
// whose value matches that frame's code. Because it stops at the first
// match, an outer contract's name always wins over an equally valid inner
// match for the same code — the required tie-break. A trapped frame halts
// the walk: nothing inside a host trap is resolvable.
func (r *Resolver) Resolve(ctx context.Context, frames []Frame) (Resolution, error) {
	for _, f := range frames {
		if f.Trapped {
			break
		}
		spec, err := r.Specs.Spec(ctx, f.ContractID)
		if err != nil {
			return Resolution{}, err
		}
		if spec == nil {
			continue
		}
		if enumName, caseName, ok := spec.ErrorCaseName(f.Code); ok {
			return Resolution{ContractID: f.ContractID, EnumName: enumName, CaseName: caseName, Found: true}, nil
		}
	}
	return Resolution{}, nil
}

// CodeFromError extracts the numeric code from a typed Error(code) value,
// reporting ok=false when v does not carry a contract error code (e.g. a
// system error, or a non-error value entirely).
func CodeFromError(v xdr.ScVal) (code uint32, ok bool) {
	if v.Type != xdr.ScValTypeScvError || v.Error == nil {
		return 0, false
	}
	if v.Error.Type != xdr.ScErrorTypeSceContract || v.Error.ContractCode == nil {
		return 0, false
	}
	return uint32(*v.Error.ContractCode), true
}
