package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/antique-korea/appraiser/internal/export"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse and export past appraisals",
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryExportCmd())

	return cmd
}

func newHistoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List past appraisals, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, _, err := newManager()
			if err != nil {
				return err
			}

			results := manager.History()
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No appraisals yet.")
				return nil
			}

			for _, r := range results {
				fmt.Fprintf(out, "%s  %s  [%s]  %d%%  %s\n",
					r.CreatedAt().UTC().Format("2006-01-02 15:04"),
					r.ID,
					r.Era,
					r.ConfidenceScore,
					r.Title)
			}
			fmt.Fprintf(out, "\n%d appraisal(s)\n", len(results))
			return nil
		},
	}
}

func newHistoryExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the appraisal history to a file",
		Long: `Exports the appraisal history to YAML, Parquet or JSONL, chosen by the
output file's extension. Image payloads are omitted from exports.`,
		Example: `  appraiser history export --output appraisals.yaml
  appraiser history export --output appraisals.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, _, err := newManager()
			if err != nil {
				return err
			}

			results := manager.History()
			if err := export.ToFile(output, results); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d appraisal(s) to %s\n", len(results), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "appraisals.yaml", "Output file (.yaml, .parquet or .jsonl)")

	return cmd
}
