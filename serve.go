package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"companydash/cache"
	"companydash/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the latest dataset over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		rdb, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return eris.Wrap(err, "init redis")
		}
		defer rdb.Close()

		store := cache.NewSnapshotStore(rdb, cfg.Redis.TTL)
		srv := server.New(store, rdb, cfg.Redis.TTL)

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port), zap.String("redis", cfg.Redis.Addr))
		return srv.ListenAndServe(ctx, cfg.Server.Port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8000, "HTTP port (overrides PORT)")
}
