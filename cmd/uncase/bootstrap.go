package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uncase/dashboard/internal/bootstrap"
)

func newBootstrapCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap [link-or-query]",
		Short: "Set up the dashboard from a sandbox link",
		Long: "Bootstrap loads demo data, records the sandbox session from the link " +
			"and pulls its seeds. It always ends on the dashboard, even when the sandbox is unreachable.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p bootstrap.Params
			if len(args) == 1 {
				parsed, err := bootstrap.ParseQuery(args[0])
				if err != nil {
					return fmt.Errorf("invalid link: %w", err)
				}
				p = parsed
			}

			flags := cmd.Flags()
			if flags.Changed("api-url") {
				p.APIURL, _ = flags.GetString("api-url")
			}
			if flags.Changed("docs-url") {
				p.DocsURL, _ = flags.GetString("docs-url")
			}
			if flags.Changed("domain") {
				p.Domain, _ = flags.GetString("domain")
			}
			if flags.Changed("expires-at") {
				p.ExpiresAt, _ = flags.GetString("expires-at")
			}
			if flags.Changed("job-id") {
				p.JobID, _ = flags.GetString("job-id")
			}
			if flags.Changed("fallback") {
				p.Fallback, _ = flags.GetBool("fallback")
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			onStatus := func(s bootstrap.Status, err error) {
				if err != nil {
					fmt.Printf("Status: %s (%v)\n", s, err)
					return
				}
				fmt.Printf("Status: %s\n", s)
			}
			nav := bootstrap.NavigatorFunc(func(path string) {
				fmt.Printf("Dashboard: %s\n", path)
			})

			res := a.Bootstrap(nav, onStatus).Run(ctx, p)
			if res.SeedsLoaded > 0 {
				fmt.Printf("Loaded %d seeds from sandbox\n", res.SeedsLoaded)
			}
			return nil
		},
	}

	cmd.Flags().String("api-url", "", "Sandbox API URL")
	cmd.Flags().String("docs-url", "", "Sandbox docs URL")
	cmd.Flags().String("domain", "", "Sandbox domain")
	cmd.Flags().String("expires-at", "", "Session expiry (ISO timestamp)")
	cmd.Flags().String("job-id", "", "Provisioning job id")
	cmd.Flags().Bool("fallback", false, "Skip the sandbox and use local demo data only")
	return cmd
}
