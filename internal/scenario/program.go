package scenario

import (
	"slices"
	"strings"
)

const (
	// EntryMarker is the line every zkVM program must start with.
	EntryMarker = "#![no_main]"
	// EntrypointRegistration registers main as the zkVM entrypoint.
	EntrypointRegistration = "sp1_zkvm::entrypoint!(main);"

	indent = "    "
)

// Timestamp window accepted by the generated programs: 2024-01-01 to 2030-01-01 UTC.
const (
	minTimestamp = "1_704_067_200"
	maxTimestamp = "1_893_456_000"
)

// program is the intermediate form every variant fills in. Reads are always
// rendered first, in the order given, so the read contract cannot drift from
// Features.Inputs.
type program struct {
	imports []string
	consts  []string
	reads   []read
	logic   []string
	commits []string
}

type read struct {
	name    string
	typ     string
	mutable bool
}

// readsFor builds the read list for inputs using the scenario's type table.
func readsFor(inputs []string, types map[string]string, mutable ...string) []read {
	reads := make([]read, 0, len(inputs))
	for _, name := range inputs {
		typ, ok := types[name]
		if !ok {
			typ = "u32"
		}
		reads = append(reads, read{name: name, typ: typ, mutable: slices.Contains(mutable, name)})
	}
	return reads
}

func (p program) render() string {
	var b strings.Builder

	b.WriteString(EntryMarker + "\n")
	b.WriteString(EntrypointRegistration + "\n")

	if len(p.imports) > 0 {
		b.WriteString("\n")
		for _, imp := range p.imports {
			b.WriteString(imp + "\n")
		}
	}
	if len(p.consts) > 0 {
		b.WriteString("\n")
		for _, c := range p.consts {
			b.WriteString(c + "\n")
		}
	}

	b.WriteString("\npub fn main() {\n")
	b.WriteString(indent + "// Read inputs\n")
	for _, r := range p.reads {
		b.WriteString(indent + "let ")
		if r.mutable {
			b.WriteString("mut ")
		}
		b.WriteString(r.name + " = sp1_zkvm::io::read::<" + r.typ + ">();\n")
	}

	b.WriteString("\n" + indent + "// Verification logic\n")
	for _, line := range p.logic {
		if line == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString(indent + line + "\n")
	}

	b.WriteString("\n" + indent + "// Commit public values\n")
	for _, c := range p.commits {
		b.WriteString(indent + "sp1_zkvm::io::commit(&" + c + ");\n")
	}
	b.WriteString(indent + "sp1_zkvm::io::commit(&is_valid);\n")
	b.WriteString("}\n")

	return b.String()
}

// allOf joins boolean expressions with logical AND.
func allOf(terms ...string) string {
	return strings.Join(terms, " && ")
}
