package enhance

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"sp1assist/internal/core"
)

//go:embed prompts
var promptFS embed.FS

// Context tiers for the documentation excerpt.
const (
	ContextMinimal = "minimal"
	ContextPattern = "pattern"
	ContextFull    = "full"
)

// Documentation file names looked up in the docs directory.
const (
	docsMinimalFile = "sp1-docs-minimal.md"
	docsPatternFile = "sp1-docs-pattern-based.md"
	docsFullFile    = "sp1-docs-full.md"
)

// Docs holds the three documentation tiers.
type Docs struct {
	Minimal string
	Pattern string
	Full    string
}

// ValidContextSize reports whether size names a context tier. The empty string
// is accepted and selects pattern.
func ValidContextSize(size string) bool {
	switch size {
	case "", ContextMinimal, ContextPattern, ContextFull:
		return true
	}
	return false
}

// ForContext selects the excerpt for a context tier. Full falls back to
// pattern when no full documentation is available. Callers reject unknown
// tiers with ValidContextSize first.
func (d Docs) ForContext(size string) string {
	switch size {
	case ContextMinimal:
		return d.Minimal
	case ContextFull:
		if strings.TrimSpace(d.Full) != "" {
			return d.Full
		}
		return d.Pattern
	default:
		return d.Pattern
	}
}

// EmbeddedDocs returns the built-in minimal and pattern tiers. There is no
// built-in full tier.
func EmbeddedDocs() Docs {
	return Docs{
		Minimal: mustReadPrompt("prompts/docs/" + docsMinimalFile),
		Pattern: mustReadPrompt("prompts/docs/" + docsPatternFile),
	}
}

// LoadDocs reads the documentation tiers from dir. Missing files keep the
// embedded text for that tier. An empty dir returns the embedded docs.
func LoadDocs(dir string) (Docs, error) {
	docs := EmbeddedDocs()
	if dir == "" {
		return docs, nil
	}

	tiers := []struct {
		file string
		dst  *string
	}{
		{docsMinimalFile, &docs.Minimal},
		{docsPatternFile, &docs.Pattern},
		{docsFullFile, &docs.Full},
	}
	for _, tier := range tiers {
		data, err := os.ReadFile(filepath.Join(dir, tier.file))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Warn("sp1 docs file not found, using embedded text", "file", tier.file, "dir", dir)
				continue
			}
			return Docs{}, fmt.Errorf("failed to read docs file %s: %w", tier.file, err)
		}
		*tier.dst = string(data)
	}
	return docs, nil
}

var (
	coreRules = mustReadPrompt("prompts/core_rules.md")

	systemPrompts = map[string]string{
		"anthropic": renderSystem("prompts/system_anthropic.md"),
		"openai":    renderSystem("prompts/system_openai.md"),
		"google":    renderSystem("prompts/system_google.md"),
	}

	userTemplate = template.Must(template.ParseFS(promptFS, "prompts/user.md"))
)

func mustReadPrompt(name string) string {
	data, err := promptFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("enhance: read %s: %v", name, err))
	}
	return string(data)
}

func renderSystem(name string) string {
	t := template.Must(template.ParseFS(promptFS, name))
	var buf bytes.Buffer
	if err := t.Execute(&buf, struct{ Rules string }{coreRules}); err != nil {
		panic(fmt.Sprintf("enhance: render %s: %v", name, err))
	}
	return buf.String()
}

// SystemPrompt returns the provider-specific system prompt. Unknown providers
// get the openai prompt.
func SystemPrompt(provider string) string {
	if p, ok := systemPrompts[provider]; ok {
		return p
	}
	return systemPrompts["openai"]
}

// PatternNotes returns the worked examples for a scenario, or "" if none.
func PatternNotes(scenario string) string {
	data, err := promptFS.ReadFile("prompts/patterns/" + scenario + ".md")
	if err != nil {
		return ""
	}
	return string(data)
}

// PromptInput is what the prompt builder needs from a generation request.
type PromptInput struct {
	Scenario    string
	UserCode    string
	BaseProgram string
	Provider    string
	ContextSize string
}

// BuildMessages returns the system message followed by the user message.
// The credential is never part of the prompt.
func BuildMessages(in PromptInput, docs Docs) ([]core.Message, error) {
	var system strings.Builder
	system.WriteString(SystemPrompt(in.Provider))
	if notes := PatternNotes(in.Scenario); notes != "" {
		system.WriteString("\n")
		system.WriteString(notes)
	}
	system.WriteString("\n<sp1_documentation>\n")
	system.WriteString(docs.ForContext(in.ContextSize))
	system.WriteString("\n</sp1_documentation>")

	var user bytes.Buffer
	if err := userTemplate.Execute(&user, in); err != nil {
		return nil, fmt.Errorf("failed to render user prompt: %w", err)
	}

	return []core.Message{
		{Role: core.RoleSystem, Content: system.String()},
		{Role: core.RoleUser, Content: user.String()},
	}, nil
}
