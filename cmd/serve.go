package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/eduforge/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			rt.cfg.Server.Addr = addr
		}

		srv := server.New(server.Config{
			Addr:           rt.cfg.Server.Addr,
			RequestTimeout: rt.cfg.Server.RequestTimeout,
			RateLimit:      rt.cfg.Server.RateLimit,
			RateBurst:      rt.cfg.Server.RateBurst,
			CORSOrigins:    rt.cfg.Server.CORSOrigins,
			ServiceName:    rt.cfg.Trace.ServiceName,
			Version:        version,
		}, server.Options{
			Recorder: rt.recorder,
			Runs:     rt.store.RunRepo(),
			Log:      rt.log,
			Metrics:  rt.metrics,
		})

		rt.log.Info("starting server",
			"addr", rt.cfg.Server.Addr,
			"provider", rt.cfg.LLM.Provider,
			"model", rt.provider.ModelID(),
		)
		return srv.ListenAndServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config, :8000)")
}
