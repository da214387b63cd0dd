package main

import (
	"github.com/spf13/cobra"

	"github.com/uncase/dashboard/internal/server"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve dashboard state over HTTP and websockets",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			addr := a.Config.ListenAddr
			if cmd.Flags().Changed("addr") {
				addr, _ = cmd.Flags().GetString("addr")
			}

			ctx, cancel := signalContext()
			defer cancel()

			go func() {
				for ev := range a.Start(ctx) {
					a.Logger.Printf("sandbox %s expired", ev.Session.APIURL)
				}
			}()

			return server.New(a).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default from UNCASE_LISTEN_ADDR)")
	return cmd
}
