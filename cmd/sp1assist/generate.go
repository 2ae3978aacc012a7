package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sp1assist/internal/generator"
	"sp1assist/internal/providers"
	"sp1assist/internal/scenario"
)

func newGenerateCmd(c *cli) *cobra.Command {
	var (
		req  generator.Request
		file string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an SP1 program and print the artifact as JSON",
		Example: `  sp1assist generate --template game-score --code "score, moves and time"
  sp1assist generate --template document-integrity --file doc.js --model claude-4-sonnet --api-key $KEY`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file != "" {
				data, err := readInput(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				req.Code = string(data)
			}

			a, err := c.newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Shutdown(context.Background()) }()

			artifact, err := a.Generator().Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), artifact)
		},
	}

	cmd.Flags().StringVarP(&req.Template, "template", "t", "", "template id (see `sp1assist templates`)")
	cmd.Flags().StringVar(&req.Code, "code", "", "description or source of the computation")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the code from a file (- for stdin)")
	cmd.Flags().StringVarP(&req.Model, "model", "m", providers.DirectModel, "model id (see `sp1assist models`)")
	cmd.Flags().StringVar(&req.APIKey, "api-key", os.Getenv("SP1ASSIST_API_KEY"), "provider API key (default $SP1ASSIST_API_KEY)")
	cmd.Flags().StringVar(&req.ContextSize, "context", "pattern", "documentation tier: minimal, pattern or full")
	cmd.MarkFlagsMutuallyExclusive("code", "file")
	return cmd
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return data, nil
}

func newFeaturesCmd() *cobra.Command {
	var template, code string

	cmd := &cobra.Command{
		Use:   "features",
		Short: "Show the features a template detects in the given code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, ok := scenario.Lookup(template)
			if !ok {
				return fmt.Errorf("template %s not found", template)
			}
			f := s.Parse(code)
			types := make(map[string]string, len(f.Inputs))
			for _, in := range f.Inputs {
				types[in] = s.InputType(in)
			}
			return writeJSON(cmd.OutOrStdout(), struct {
				scenario.Features
				Types map[string]string `json:"types"`
			}{f, types})
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "", "template id")
	cmd.Flags().StringVar(&code, "code", "", "description or source of the computation")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List available templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
			for _, d := range scenario.List() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Name, d.Description)
			}
			return w.Flush()
		},
	}
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models and their per-1K token pricing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPROVIDER\tINPUT\tOUTPUT")
			fmt.Fprintf(w, "%s\t-\t-\t-\n", providers.DirectModel)
			for _, m := range providers.Models() {
				fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\n", m.ID, m.Provider, m.Pricing.Input, m.Pricing.Output)
			}
			return w.Flush()
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
