package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/exportedge/freight-advisor/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the advisory HTTP server",
	Long:  "Serves the negotiation-advice, tracking, compliance, recommendation and price-tier endpoints.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}
		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		st, err := initGraph(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		srv := server.New(cfg, initCollaborator(), st)
		if err := srv.ListenAndServe(ctx); err != nil {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
