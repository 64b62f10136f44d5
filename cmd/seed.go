/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/creatorhub/apiserver/config"
	"github.com/creatorhub/apiserver/internal/db"
	"github.com/creatorhub/apiserver/internal/logger"
	"github.com/creatorhub/apiserver/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo content catalog",
	Long: `Inserts the demo content items used by the reports. Run it after
"migrate up" against an empty database:

	creatorhub seed
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		log, err := logger.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer func() {
			_ = log.Sync()
		}()

		conn, err := db.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()

		repo := store.NewContentRepository(conn)
		for _, item := range store.SampleContent(time.Now()) {
			created, err := repo.Create(cmd.Context(), item)
			if err != nil {
				return fmt.Errorf("insert %s content: %w", item.Type, err)
			}
			log.Debug("content seeded", zap.Int64("id", created.ID), zap.String("type", created.Type))
		}
		log.Info("seed complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
