package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sales-dashboard-service/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the sales schema and indexes, then drop cached filter options",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		db, err := openDatabase(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		dbStore := store.NewPostgresStore(db, logger)
		defer dbStore.Close()

		if err := dbStore.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("Schema applied")

		rdb, err := openRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("Skipping filter option cache invalidation", zap.Error(err))
			return nil
		}
		if rdb == nil {
			return nil
		}
		defer rdb.Close()
		if err := store.NewCachedOptions(dbStore, rdb, cfg.Redis.CacheTTL, logger).Invalidate(ctx); err != nil {
			logger.Warn("Failed to invalidate filter option cache", zap.Error(err))
			return nil
		}
		logger.Info("Filter option cache invalidated")
		return nil
	},
}
