package cmd

import (
	"fmt"
	"time"

	"github.com/lehigh-university-libraries/cardscan/internal/config"
	"github.com/lehigh-university-libraries/cardscan/internal/export"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var (
		out    string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the card spreadsheet to parquet or YAML",
		Long: `Reads every card from the configured Google Sheet and writes a snapshot.
The format follows the output file extension unless --format is given.`,
		Example: `  cardscan export --out cards.parquet
  cardscan export --out cards.txt --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := export.ParseFormat(format, out)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.SheetID == "" {
				return fmt.Errorf("GOOGLE_SHEET_ID environment variable not set")
			}

			cards, err := newLedger(ctx, cfg)
			if err != nil {
				return err
			}
			records, err := cards.Records(ctx)
			if err != nil {
				return err
			}

			if err := export.WriteFile(out, f, records, time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d cards to %s\n", len(records), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output file (required)")
	cmd.Flags().StringVar(&format, "format", "", "Output format: parquet or yaml")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
