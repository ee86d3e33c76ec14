// cmd/copilot/ask.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"supplychain-copilot/internal/models"
)

const citationSnippetRunes = 300

func newAskCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question and print the answer with its provenance",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := bootstrap(ctx, cfg, 1)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.pipeline.Run(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			renderText(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full response as JSON")
	return cmd
}

// renderText prints the answer, the intent badge and the provenance of
// whichever strategy ran.
func renderText(w io.Writer, resp *models.Response) {
	answer := resp.Answer
	if strings.TrimSpace(answer) == "" {
		answer = "(No answer generated)"
	}

	fmt.Fprintf(w, "[%s]\n\n%s\n", resp.Intent.Label(), answer)

	switch {
	case resp.Policy != nil && len(resp.Policy.RetrievedDocs) > 0:
		fmt.Fprintln(w, "\nSources:")
		for i, doc := range resp.Policy.RetrievedDocs {
			source := doc.Source
			if source == "" {
				source = "unknown"
			}
			fmt.Fprintf(w, "  %d. %s\n     %s\n", i+1, source, doc.Snippet(citationSnippetRunes))
		}

	case resp.KPI != nil:
		fmt.Fprintf(w, "\nSQL:\n%s\n", resp.KPI.SQLQuery)
		fmt.Fprintf(w, "\nResult:\n%s\n", models.PromptJSON(resp.KPI.SQLResult))

	case resp.Scenario != nil:
		fmt.Fprintf(w, "\nScenario:\n%s\n", models.PromptJSON(resp.Scenario.Spec))
		fmt.Fprintf(w, "\nImpact:\n%s\n", models.PromptJSON(resp.Scenario.ImpactRows))
	}
}
