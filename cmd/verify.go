package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"dataset-streamer/core/config"
	"dataset-streamer/core/logger"
	"dataset-streamer/core/storage"
	"dataset-streamer/feature/verify"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verifyPrefix string

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [uri...]",
	Short: "Verify that a dataset selection is complete and readable",
	Long: `Stats every selected object and reports the ones that are missing,
empty, or unreadable. Unlike fetch, verify does not stop at the first
bad object; it checks everything and prints a report. Outputs metrics
by default or the full report with --json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		jsonOutput, _ := cmd.Flags().GetBool("json")

		if len(args) == 0 && verifyPrefix == "" {
			return fmt.Errorf("nothing to verify: pass s3:// URIs or --prefix")
		}
		if len(args) > 0 && verifyPrefix != "" {
			return fmt.Errorf("explicit URIs and --prefix are mutually exclusive")
		}

		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}

		svc := verify.NewService(client, logg, cfg.Dataset.Window)

		var report *verify.Report
		if verifyPrefix != "" {
			report, err = svc.VerifyPrefix(ctx, verifyPrefix)
		} else {
			report, err = svc.VerifyObjects(ctx, args)
		}
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}

		if jsonOutput {
			filename := fmt.Sprintf("verify_report_%d.json", time.Now().Unix())
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			if err := os.WriteFile(filename, data, 0644); err != nil {
				return fmt.Errorf("failed to save JSON file: %w", err)
			}
			logg.Info("Detailed JSON report saved", zap.String("file", filename), zap.Int("problems", len(report.Problems)))
		}

		// Always display metrics
		fmt.Println("\n=== Verification Metrics ===")
		fmt.Printf("Checked: %d\n", report.Checked)
		fmt.Printf("OK: %d\n", report.OK)
		fmt.Printf("Problems: %d\n", len(report.Problems))
		fmt.Printf("Total Bytes: %d\n", report.TotalBytes)
		fmt.Printf("Execution Time: %s\n", report.ExecutionTime)

		for _, p := range report.Problems {
			fmt.Printf("  %s: %s\n", p.URI, p.Reason)
		}

		logg.Info("Verification completed",
			zap.Int("checked", report.Checked),
			zap.Int("ok", report.OK),
			zap.Int("problems", len(report.Problems)),
		)

		if !report.Passed() {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyPrefix, "prefix", "", "s3://bucket/prefix to verify (instead of explicit URIs)")
	verifyCmd.Flags().Bool("json", false, "save the full report as JSON")
	RootCmd.AddCommand(verifyCmd)
}
