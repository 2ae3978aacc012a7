package scenario

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed assets
var assets embed.FS

type sample struct {
	example string
	zero    string
	comment string
}

// samples holds the JavaScript literals used in generated scripts.
var samples = map[string]sample{
	"game_id":         {"1", "0", "Game mode ID"},
	"score":           {"50000", "0", "Player score"},
	"move_count":      {"150", "0", "Number of moves"},
	"play_time":       {"3600", "0", "Play time in seconds"},
	"multiplier":      {"2", "0", "Score multiplier"},
	"document_hash":   {"new Uint8Array(32).fill(1)", "new Uint8Array(32)", "32-byte document hash"},
	"expected_hash":   {"new Uint8Array(32).fill(1)", "new Uint8Array(32)", "Expected hash"},
	"timestamp":       {"Math.floor(Date.now() / 1000)", "0", "Unix timestamp"},
	"leaf":            {"new Uint8Array(32).fill(1)", "new Uint8Array(32)", "Leaf hash"},
	"proof_path":      {"[new Uint8Array(32).fill(2)]", "[]", "Sibling hashes, leaf to root"},
	"root":            {"new Uint8Array(32).fill(3)", "new Uint8Array(32)", "Expected Merkle root"},
	"leaf_index":      {"0", "0", "Leaf position in the tree"},
	"doc_count":       {"1", "0", "Number of documents"},
	"merkle_root":     {"new Uint8Array(32).fill(0)", "new Uint8Array(32)", "Batch root"},
	"documents":       {"[[new Uint8Array(32).fill(0), Math.floor(Date.now() / 1000)]]", "[]", "(hash, timestamp) pairs"},
	"data":            {"[10, 20, 30, 40, 50]", "[]", "Data array"},
	"expected_sum":    {"150", "0", "Expected sum"},
	"expected_avg":    {"30", "0", "Expected average"},
	"expected_median": {"30", "0", "Expected median"},
	"expected_max":    {"50", "0", "Expected maximum"},
	"expected_min":    {"10", "0", "Expected minimum"},
	"threshold":       {"25", "0", "Count values above this"},
	"expected_count":  {"3", "0", "Expected count"},
	"min_value":       {"20", "0", "Lower bound"},
	"max_value":       {"40", "0", "Upper bound"},
}

type scriptInput struct {
	Name    string
	Example string
	Zero    string
	Comment string
}

func scriptInputs(inputs []string) []scriptInput {
	out := make([]scriptInput, 0, len(inputs))
	for _, name := range inputs {
		s, ok := samples[name]
		if !ok {
			s = sample{example: "0", zero: "0", comment: "Set value"}
		}
		out = append(out, scriptInput{Name: name, Example: s.example, Zero: s.zero, Comment: s.comment})
	}
	return out
}

var funcs = template.FuncMap{
	"args": func(in []scriptInput) string {
		return joinField(in, func(i scriptInput) string { return i.Name })
	},
	"examples": func(in []scriptInput) string {
		return joinField(in, func(i scriptInput) string { return i.Example })
	},
	"zeros": func(in []scriptInput) string {
		return joinField(in, func(i scriptInput) string { return i.Zero })
	},
}

func joinField(in []scriptInput, field func(scriptInput) string) string {
	parts := make([]string, len(in))
	for i, v := range in {
		parts[i] = field(v)
	}
	return strings.Join(parts, ", ")
}

var (
	proveTemplate        = template.Must(template.New("prove.js.tmpl").Funcs(funcs).ParseFS(assets, "assets/prove.js.tmpl"))
	testTemplate         = template.Must(template.New("test.js.tmpl").Funcs(funcs).ParseFS(assets, "assets/test.js.tmpl"))
	instructionsTemplate = template.Must(template.New("instructions.md.tmpl").ParseFS(assets, "assets/instructions.md.tmpl"))

	verifyScript = mustRead("assets/verify.js")
	envExample   = mustRead("assets/env.example")
)

func mustRead(name string) string {
	b, err := assets.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("scenario: read %s: %v", name, err))
	}
	return string(b)
}

// renderScripts builds the script bundle. Prove and test scripts write one
// stdin entry per input, in read order.
func renderScripts(inputs []string) Scripts {
	data := scriptInputs(inputs)
	return Scripts{
		Prove:      execute(proveTemplate, data),
		Verify:     verifyScript,
		EnvExample: envExample,
		Test:       execute(testTemplate, data),
	}
}

func renderInstructions(id string) string {
	return execute(instructionsTemplate, id)
}

// execute panics on failure: templates are embedded and the data is built
// here, so an error is a programming bug.
func execute(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		panic(fmt.Sprintf("scenario: render %s: %v", t.Name(), err))
	}
	return buf.String()
}
