// Package wasmspec reads the custom sections a Soroban contract wasm
// binary embeds at build time: env-meta (interface version), contract
// meta (key/value pairs set by the author) and the contract spec
// (the typed function/struct/union/enum/error catalogue) describing
// the contract's callable surface.
package wasmspec

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/stellar/go/xdr"
	"github.com/tetratelabs/wazero"
)

const (
	sectionEnvMeta     = "contractenvmetav0"
	sectionContractMeta = "contractmetav0"
	sectionSpec        = "contractspecv0"
)

// Spec is the decoded content of a contract's custom sections.
type Spec struct {
	EnvMeta []xdr.ScEnvMetaEntry
	Meta    []xdr.ScMetaEntry
	Entries []xdr.ScSpecEntry
}

// Read parses the given wasm binary and decodes its env-meta, meta and
// spec custom sections. A wasm file is allowed to omit any of the three;
// missing sections decode to an empty slice, never an error.
//
// Repeated custom sections that share a name are concatenated, in wasm
// binary order, before XDR decoding — a contract's spec section is
// commonly split across several wasm custom section records by the
// compiler's linker.
func Read(ctx context.Context, wasm []byte) (*Spec, error) {
	runtime := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCustomSections(true))
	defer runtime.Close(ctx)

	compiled, err := runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Wrap(err, "wasmspec: compiling module")
	}
	defer compiled.Close(ctx)

	var envMetaBytes, metaBytes, specBytes []byte
	for _, section := range compiled.CustomSections() {
		switch section.Name() {
		case sectionEnvMeta:
			envMetaBytes = append(envMetaBytes, section.Data()...)
		case sectionContractMeta:
			metaBytes = append(metaBytes, section.Data()...)
		case sectionSpec:
			specBytes = append(specBytes, section.Data()...)
		}
	}

	envMeta, err := decodeEnvMeta(envMetaBytes)
	if err != nil {
		return nil, errors.Wrap(err, "wasmspec: decoding env meta")
	}
	meta, err := decodeMeta(metaBytes)
	if err != nil {
		return nil, errors.Wrap(err, "wasmspec: decoding contract meta")
	}
	entries, err := decodeSpec(specBytes)
	if err != nil {
		return nil, errors.Wrap(err, "wasmspec: decoding contract spec")
	}

	return &Spec{EnvMeta: envMeta, Meta: meta, Entries: entries}, nil
}

func decodeEnvMeta(b []byte) ([]xdr.ScEnvMetaEntry, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var out []xdr.ScEnvMetaEntry
	dec := xdr.NewDecoder(bytes.NewReader(b))
	for read := 0; read < len(b); {
		var entry xdr.ScEnvMetaEntry
		n, err := dec.Decode(&entry)
		if err != nil {
			return nil, err
		}
		read += n
		out = append(out, entry)
	}
	return out, nil
}

func decodeMeta(b []byte) ([]xdr.ScMetaEntry, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var out []xdr.ScMetaEntry
	dec := xdr.NewDecoder(bytes.NewReader(b))
	for read := 0; read < len(b); {
		var entry xdr.ScMetaEntry
		n, err := dec.Decode(&entry)
		if err != nil {
			return nil, err
		}
		read += n
		out = append(out, entry)
	}
	return out, nil
}

func decodeSpec(b []byte) ([]xdr.ScSpecEntry, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var out []xdr.ScSpecEntry
	dec := xdr.NewDecoder(bytes.NewReader(b))
	for read := 0; read < len(b); {
		var entry xdr.ScSpecEntry
		n, err := dec.Decode(&entry)
		if err != nil {
			return nil, err
		}
		read += n
		out = append(out, entry)
	}
	return out, nil
}

// Functions returns the function entries of the spec, in declaration order.
func (s *Spec) Functions() []xdr.ScSpecFunctionV0 {
	var out []xdr.ScSpecFunctionV0
	for _, e := range s.Entries {
		if e.Type == xdr.ScSpecEntryKindScSpecEntryFunctionV0 && e.FunctionV0 != nil {
			out = append(out, *e.FunctionV0)
		}
	}
	return out
}

// FindFunction returns the function entry named name, if present.
func (s *Spec) FindFunction(name string) (*xdr.ScSpecFunctionV0, bool) {
	for _, f := range s.Functions() {
		if string(f.Name) == name {
			return &f, true
		}
	}
	return nil, false
}

// ErrorCaseName resolves a numeric contract error code to the case name
// declared on an error enum in this spec, used by the error resolver to
// turn a diagnostic event's raw code into a source-level name.
func (s *Spec) ErrorCaseName(code uint32) (enumName, caseName string, ok bool) {
	for _, e := range s.Entries {
		if e.Type != xdr.ScSpecEntryKindScSpecEntryUdtErrorEnumV0 || e.UdtErrorEnumV0 == nil {
			continue
		}
		udt := e.UdtErrorEnumV0
		for _, c := range udt.Cases {
			if uint32(c.Value) == code {
				return string(udt.Name), string(c.Name), true
			}
		}
	}
	return "", "", false
}
