package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/alerting"
	"github.com/sells-group/prospect-cli/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API with the background alert sweep",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		p := buildPipeline(st)
		engine := alerting.NewEngine(st, buildAlertChannels())

		checker := alerting.NewChecker(engine, time.Duration(cfg.Alerting.SweepIntervalSecs)*time.Second)
		go checker.Run(ctx)
		zap.L().Info("alert sweep started",
			zap.Int("interval_secs", cfg.Alerting.SweepIntervalSecs),
		)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		return server.New(st, p, engine).Start(ctx, port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
