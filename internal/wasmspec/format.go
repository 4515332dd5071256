package wasmspec

import (
	"fmt"
	"strings"

	"github.com/stellar/go/xdr"
)

// String renders the spec the way a developer inspecting a contract would
// read it: an Env Meta, a Contract Meta and a Contract Spec section, with
// the spec's entries listed in declaration order.
func (s *Spec) String() string {
	var b strings.Builder
	if len(s.EnvMeta) == 0 {
		b.WriteString("Env Meta: None\n\n")
	} else {
		b.WriteString("Env Meta:\n")
		for _, e := range s.EnvMeta {
			if e.Type == xdr.ScEnvMetaKindScEnvMetaKindInterfaceVersion && e.InterfaceVersion != nil {
				fmt.Fprintf(&b, " - Interface Version: %d\n", *e.InterfaceVersion)
			}
		}
		b.WriteString("\n")
	}

	if len(s.Meta) == 0 {
		b.WriteString("Contract Meta: None\n\n")
	} else {
		b.WriteString("Contract Meta:\n")
		for _, e := range s.Meta {
			if e.V0 != nil {
				fmt.Fprintf(&b, " - %s: %s\n", e.V0.Key, e.V0.Val)
			}
		}
		b.WriteString("\n")
	}

	if len(s.Entries) == 0 {
		b.WriteString("Contract Spec: None\n")
		return b.String()
	}
	b.WriteString("Contract Spec:\n")
	for _, e := range s.Entries {
		switch e.Type {
		case xdr.ScSpecEntryKindScSpecEntryFunctionV0:
			writeFunc(&b, e.FunctionV0)
		case xdr.ScSpecEntryKindScSpecEntryUdtUnionV0:
			writeUnion(&b, e.UdtUnionV0)
		case xdr.ScSpecEntryKindScSpecEntryUdtStructV0:
			writeStruct(&b, e.UdtStructV0)
		case xdr.ScSpecEntryKindScSpecEntryUdtEnumV0:
			writeEnum(&b, e.UdtEnumV0)
		case xdr.ScSpecEntryKindScSpecEntryUdtErrorEnumV0:
			writeErrorEnum(&b, e.UdtErrorEnumV0)
		}
	}
	return b.String()
}

func writeFunc(b *strings.Builder, f *xdr.ScSpecFunctionV0) {
	if f == nil {
		return
	}
	fmt.Fprintf(b, " - Function: %s\n", f.Name)
	if len(f.Doc) > 0 {
		fmt.Fprintf(b, "     Docs: %s\n", indent(string(f.Doc), 11))
	}
	names := make([]string, 0, len(f.Inputs))
	for _, in := range f.Inputs {
		names = append(names, string(in.Name))
	}
	fmt.Fprintf(b, "     Inputs: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(b, "     Outputs: %d\n\n", len(f.Outputs))
}

func writeUnion(b *strings.Builder, u *xdr.ScSpecUdtUnionV0) {
	if u == nil {
		return
	}
	fmt.Fprintf(b, " - Union: %s\n", formatName(string(u.Lib), string(u.Name)))
	if len(u.Doc) > 0 {
		fmt.Fprintf(b, "     Docs: %s\n", indent(string(u.Doc), 10))
	}
	fmt.Fprintf(b, "     Cases: %d\n\n", len(u.Cases))
}

func writeStruct(b *strings.Builder, u *xdr.ScSpecUdtStructV0) {
	if u == nil {
		return
	}
	fmt.Fprintf(b, " - Struct: %s\n", formatName(string(u.Lib), string(u.Name)))
	if len(u.Doc) > 0 {
		fmt.Fprintf(b, "     Docs: %s\n", indent(string(u.Doc), 10))
	}
	b.WriteString("     Fields:\n")
	for _, field := range u.Fields {
		fmt.Fprintf(b, "      - %s\n", field.Name)
	}
	b.WriteString("\n")
}

func writeEnum(b *strings.Builder, u *xdr.ScSpecUdtEnumV0) {
	if u == nil {
		return
	}
	fmt.Fprintf(b, " - Enum: %s\n", formatName(string(u.Lib), string(u.Name)))
	if len(u.Doc) > 0 {
		fmt.Fprintf(b, "     Docs: %s\n", indent(string(u.Doc), 10))
	}
	fmt.Fprintf(b, "     Cases: %d\n\n", len(u.Cases))
}

func writeErrorEnum(b *strings.Builder, u *xdr.ScSpecUdtErrorEnumV0) {
	if u == nil {
		return
	}
	fmt.Fprintf(b, " - Error: %s\n", formatName(string(u.Lib), string(u.Name)))
	if len(u.Doc) > 0 {
		fmt.Fprintf(b, "     Docs: %s\n", indent(string(u.Doc), 10))
	}
	fmt.Fprintf(b, "     Cases: %d\n\n", len(u.Cases))
}

func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = pad + l
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func formatName(lib, name string) string {
	if lib != "" {
		return lib + "::" + name
	}
	return name
}
