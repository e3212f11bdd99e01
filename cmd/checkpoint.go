package cmd

import (
	"fmt"
	"io"
	"os"

	"dataset-streamer/core/config"
	"dataset-streamer/core/logger"
	"dataset-streamer/core/storage"
	"dataset-streamer/feature/checkpoint"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checkpointKeep int

// checkpointCmd represents the checkpoint command
var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Manage training checkpoints in the object store",
	Long:  `Saves, restores, lists and prunes named training checkpoints.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// checkpointSaveCmd represents the checkpoint save command
var checkpointSaveCmd = &cobra.Command{
	Use:   "save <name> <file>",
	Short: "Upload a local file as a new checkpoint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, logg, err := checkpointService()
		if err != nil {
			return err
		}

		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[1], err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return err
		}

		key, err := svc.Save(cmd.Context(), args[0], f, info.Size())
		if err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}

		fmt.Printf("Saved: %s (%d bytes)\n", key, info.Size())
		logg.Info("Checkpoint saved", zap.String("key", key), zap.Int64("bytes", info.Size()))
		return nil
	},
}

// checkpointLoadCmd represents the checkpoint load command
var checkpointLoadCmd = &cobra.Command{
	Use:   "load <name> <file>",
	Short: "Download the latest checkpoint for a name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, logg, err := checkpointService()
		if err != nil {
			return err
		}

		rc, info, err := svc.Latest(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load checkpoint: %w", err)
		}
		defer rc.Close()

		f, err := os.Create(args[1])
		if err != nil {
			return err
		}

		n, err := io.Copy(f, rc)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", args[1], err)
		}

		fmt.Printf("Restored: %s -> %s (%d bytes)\n", info.Key, args[1], n)
		logg.Info("Checkpoint restored", zap.String("key", info.Key), zap.Int64("bytes", n))
		return nil
	},
}

// checkpointListCmd represents the checkpoint list command
var checkpointListCmd = &cobra.Command{
	Use:   "list <name>",
	Short: "List stored checkpoints for a name, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := checkpointService()
		if err != nil {
			return err
		}

		infos, err := svc.List(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to list checkpoints: %w", err)
		}

		if len(infos) == 0 {
			fmt.Println("No checkpoints found")
			return nil
		}
		for _, info := range infos {
			fmt.Printf("%s\t%d\t%s\n", info.Key, info.Size, info.LastModified.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

// checkpointPruneCmd represents the checkpoint prune command
var checkpointPruneCmd = &cobra.Command{
	Use:   "prune <name>",
	Short: "Delete all but the newest checkpoints for a name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, logg, err := checkpointService()
		if err != nil {
			return err
		}

		removed, err := svc.Prune(cmd.Context(), args[0], checkpointKeep)
		if err != nil {
			return fmt.Errorf("failed to prune checkpoints: %w", err)
		}

		fmt.Printf("Removed: %d (kept newest %d)\n", removed, checkpointKeep)
		logg.Info("Checkpoints pruned", zap.Int("removed", removed), zap.Int("kept", checkpointKeep))
		return nil
	},
}

// checkpointService wires a checkpoint service from the process configuration.
func checkpointService() (*checkpoint.Service, *zap.Logger, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return checkpoint.NewService(client, cfg.Storage.Bucket, logg), logg, nil
}

func init() {
	checkpointPruneCmd.Flags().IntVar(&checkpointKeep, "keep", 3, "number of newest checkpoints to keep")
	checkpointCmd.AddCommand(checkpointSaveCmd)
	checkpointCmd.AddCommand(checkpointLoadCmd)
	checkpointCmd.AddCommand(checkpointListCmd)
	checkpointCmd.AddCommand(checkpointPruneCmd)
	RootCmd.AddCommand(checkpointCmd)
}
