package enhance

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationMode controls the structural check applied to extracted programs.
type ValidationMode string

const (
	// ValidationOff skips the check; artifacts report structureValid=true.
	ValidationOff ValidationMode = "off"
	// ValidationWarn runs the check and annotates the artifact without rejecting it.
	ValidationWarn ValidationMode = "warn"
	// ValidationEnforce rejects programs that fail, which triggers the base-template fallback.
	ValidationEnforce ValidationMode = "enforce"
)

// ParseValidationMode accepts the configured mode; empty means off.
func ParseValidationMode(s string) (ValidationMode, error) {
	switch m := ValidationMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ValidationOff:
		return ValidationOff, nil
	case ValidationWarn, ValidationEnforce:
		return m, nil
	default:
		return "", fmt.Errorf("invalid validation mode %q (want off, warn or enforce)", s)
	}
}

type structureRule struct {
	pattern *regexp.Regexp
	message string
}

var requiredRules = []structureRule{
	{regexp.MustCompile(`#!\[no_main\]`), "missing #![no_main]"},
	{regexp.MustCompile(`sp1_zkvm::entrypoint!\(\s*main\s*\);`), "missing sp1_zkvm::entrypoint!(main);"},
	{regexp.MustCompile(`pub fn main\(\s*\)`), "missing pub fn main()"},
	{regexp.MustCompile(`sp1_zkvm::io::read::<`), "missing typed sp1_zkvm::io::read call"},
	{regexp.MustCompile(`sp1_zkvm::io::commit`), "missing sp1_zkvm::io::commit call"},
}

var forbiddenRules = []structureRule{
	{regexp.MustCompile(`entrypoint_with`), "alternate entrypoint variant"},
	{regexp.MustCompile(`sp1_zkvm::io::write`), "sp1_zkvm::io::write does not exist"},
}

var (
	entrypointCall = regexp.MustCompile(`sp1_zkvm::entrypoint!\(([^)]*)\)`)
	mainDecl       = regexp.MustCompile(`\bfn main\s*\(([^)]*)\)`)
)

// ValidateStructure returns the list of structural violations; an empty list
// means the program passes.
func ValidateStructure(program string) []string {
	var violations []string
	for _, r := range requiredRules {
		if !r.pattern.MatchString(program) {
			violations = append(violations, r.message)
		}
	}
	for _, r := range forbiddenRules {
		if r.pattern.MatchString(program) {
			violations = append(violations, r.message)
		}
	}

	for _, m := range entrypointCall.FindAllStringSubmatch(program, -1) {
		if strings.TrimSpace(m[1]) != "main" {
			violations = append(violations, fmt.Sprintf("entrypoint! takes only main, got %q", m[1]))
		}
	}

	mains := mainDecl.FindAllStringSubmatch(program, -1)
	if len(mains) > 1 {
		violations = append(violations, "more than one main function")
	}
	for _, m := range mains {
		if strings.TrimSpace(m[1]) != "" {
			violations = append(violations, "main must take no parameters")
		}
	}

	return violations
}
