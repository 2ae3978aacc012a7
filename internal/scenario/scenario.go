// Package scenario holds the template library: one record of pure functions
// per verification scenario (parse, program generation, script generation),
// looked up by id from a static registry.
package scenario

import (
	"slices"
	"sort"
)

// Descriptor identifies a scenario family.
type Descriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Example     string `json:"example"`
}

// Features is the parsed view of a user's free-form verification logic.
// Inputs is the read-order contract of the generated program and is never empty.
type Features struct {
	Tags          []string `json:"features"`
	Inputs        []string `json:"inputs"`
	Variant       string   `json:"variant"`
	HashAlgorithm string   `json:"hashType,omitempty"`
}

// Has reports whether the tag was detected.
func (f Features) Has(tag string) bool {
	return slices.Contains(f.Tags, tag)
}

// HasInput reports whether the input slot is part of the read order.
func (f Features) HasInput(name string) bool {
	return slices.Contains(f.Inputs, name)
}

// Scripts is the companion script bundle for a generated program.
type Scripts struct {
	Prove      string `json:"proveScript"`
	Verify     string `json:"verifyScript"`
	EnvExample string `json:"envExample"`
	Test       string `json:"testScript"`
}

// Scenario is a tagged variant in the template registry.
type Scenario struct {
	Descriptor
	// Parse derives features from raw user text. It never fails.
	Parse func(raw string) Features
	// Program renders the zkVM program for the given features.
	Program func(f Features) string
	// inputTypes maps every input slot this scenario can emit to its Rust type.
	inputTypes map[string]string
}

// Scripts renders the script bundle for the given features.
func (s *Scenario) Scripts(f Features) Scripts {
	return renderScripts(f.Inputs)
}

// InputType returns the Rust type the program reads for an input slot.
// Slots the scenario does not know are read as u32.
func (s *Scenario) InputType(name string) string {
	if typ, ok := s.inputTypes[name]; ok {
		return typ
	}
	return "u32"
}

// Instructions renders the toolchain setup guide for this scenario.
func (s *Scenario) Instructions() string {
	return renderInstructions(s.ID)
}

var (
	registry = map[string]*Scenario{}
	aliases  = map[string]string{}
)

func register(s *Scenario, alias ...string) {
	registry[s.ID] = s
	for _, a := range alias {
		aliases[a] = s.ID
	}
}

func init() {
	register(gameScore())
	register(documentIntegrity(), "document-verify")
	register(dataProcessing(), "aggregate-sum", "aggregate")
}

// Lookup returns the scenario registered under id or one of its aliases.
func Lookup(id string) (*Scenario, bool) {
	if canonical, ok := aliases[id]; ok {
		id = canonical
	}
	s, ok := registry[id]
	return s, ok
}

// List returns the registered scenario descriptors sorted by id.
func List() []Descriptor {
	out := make([]Descriptor, 0, len(registry))
	for _, s := range registry {
		out = append(out, s.Descriptor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
