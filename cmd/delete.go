package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a dataset from the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Delete(ctx, args[0]); err != nil {
			return err
		}
		zap.L().Info("dataset deleted", zap.String("dataset", args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
