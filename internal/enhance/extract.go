package enhance

import (
	"regexp"
	"strings"

	"sp1assist/internal/core"
	"sp1assist/internal/scenario"
)

// fencedBlock matches one fence pair. Fences must open and close at the start
// of a line so a closing fence is never read as the next opening one.
var fencedBlock = regexp.MustCompile("(?ms)^[ \\t]*```([\\w+-]*)[ \\t]*\\n(.*?)^[ \\t]*```")

// Extract pulls a single program out of a model response. Strategies, first
// match wins:
//  1. the first fenced code block that is untagged or tagged rust
//  2. from the entry marker to the line closing the first multi-line block
//  3. the whole trimmed response, if it has both the entry marker and the
//     entrypoint registration (reached when the braces never balance)
func Extract(content string) (string, error) {
	for _, m := range fencedBlock.FindAllStringSubmatch(content, -1) {
		if info := strings.ToLower(m[1]); info == "" || info == "rust" {
			return strings.TrimSpace(m[2]), nil
		}
	}

	if idx := strings.Index(content, scenario.EntryMarker); idx >= 0 {
		if span, ok := balancedSpan(content[idx:]); ok {
			return span, nil
		}
	}

	if strings.Contains(content, scenario.EntryMarker) && strings.Contains(content, "sp1_zkvm::entrypoint!(main)") {
		return strings.TrimSpace(content), nil
	}

	return "", core.NewExtractionError("could not extract a valid program from the model response")
}

// balancedSpan returns program text up to the line that closes the first block
// left open across a line break. Braces that open and close on one line, as in
// `use sha2::{Digest, Sha256};`, never end the span.
func balancedSpan(program string) (string, bool) {
	lines := strings.Split(program, "\n")
	depth := 0
	opened := false
	for i, line := range lines {
		depth += strings.Count(line, "{")
		depth -= strings.Count(line, "}")
		if depth > 0 {
			opened = true
			continue
		}
		if opened && strings.Contains(line, "}") {
			return strings.TrimSpace(strings.Join(lines[:i+1], "\n")), true
		}
	}
	return "", false
}
