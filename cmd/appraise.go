package cmd

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/antique-korea/appraiser/internal/models"
)

func newAppraiseCmd() *cobra.Command {
	var (
		category string
		notes    string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "appraise IMAGE...",
		Short: "Appraise an object from one or more photographs",
		Long: `Runs a single appraisal against the configured provider and records the
result in the local history. Counts against the daily quota.`,
		Example: `  appraiser appraise bowl.jpg
  appraiser appraise front.jpg back.jpg --category ceramics --notes "inherited, no provenance"
  appraiser appraise seal.png --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, _, err := newManager()
			if err != nil {
				return err
			}

			images := make([]models.Image, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read image %s: %w", path, err)
				}
				mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
				if mimeType == "" {
					mimeType = http.DetectContentType(data)
				}
				images = append(images, models.Image{Data: data, MIMEType: mimeType})
			}

			result, err := manager.Submit(cmd.Context(), images, models.AppraisalConfig{
				Category: category,
				Notes:    notes,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", result.Title)
			if result.Category != "" {
				fmt.Fprintf(out, "  Category:   %s\n", result.Category)
			}
			fmt.Fprintf(out, "  Era:        %s\n", result.Era)
			fmt.Fprintf(out, "  Value:      %s\n", result.EstimatedValue)
			fmt.Fprintf(out, "  Confidence: %d%%\n", result.ConfidenceScore)
			fmt.Fprintf(out, "\n%s\n", result.Description)

			snap := manager.Quota()
			fmt.Fprintf(out, "\nToday's usage: %d/%d\n", snap.Count, snap.Limit)
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Category hint (ceramics, painting, book, seal, ...)")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Free-text notes passed to the appraiser")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}
