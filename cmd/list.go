package cmd

import (
	"fmt"

	"dataset-streamer/core/config"
	"dataset-streamer/core/logger"
	"dataset-streamer/core/storage"
	"dataset-streamer/feature/browse"

	"github.com/spf13/cobra"
)

var listLimit int

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "List objects in the configured bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix := ""
		if len(args) > 0 {
			prefix = args[0]
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

		svc := browse.NewService(client, cfg.Storage.Bucket, logg)
		objects, err := svc.List(cmd.Context(), prefix, true, listLimit)
		if err != nil {
			return fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range objects {
			fmt.Printf("%s\t%d\t%s\n", obj.Key, obj.Size, obj.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("\nTotal: %d\n", len(objects))
		return nil
	},
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum number of objects to list")
	RootCmd.AddCommand(listCmd)
}
