package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uncase/dashboard/internal/api"
	"github.com/uncase/dashboard/internal/sandbox"
)

func newSandboxCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Provision and inspect sandbox sessions",
	}

	cmd.AddCommand(newSandboxCreateCommand())

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current sandbox session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			session := a.Sessions.Get(ctx)
			if session == nil {
				fmt.Println("No active sandbox")
				return nil
			}

			fmt.Printf("Domain: %s\n", session.Domain)
			fmt.Printf("API: %s\n", session.APIURL)
			if session.DocsURL != "" {
				fmt.Printf("Docs: %s\n", session.DocsURL)
			}
			fmt.Printf("Preloaded seeds: %d\n", session.PreloadedSeeds)
			if session.JobID != "" {
				fmt.Printf("Job: %s\n", session.JobID)
			}
			fmt.Printf("Expires in: %s\n", sandbox.FormatCountdown(a.Sessions.TTL(ctx)))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the current sandbox session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Sessions.Clear(context.Background()); err != nil {
				return err
			}
			fmt.Println("Sandbox session cleared")
			return nil
		},
	})

	return cmd
}

func newSandboxCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Provision a new sandbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, _ := cmd.Flags().GetString("domain")
			numSeeds, _ := cmd.Flags().GetInt("seeds")
			ttl, _ := cmd.Flags().GetInt("ttl")
			language, _ := cmd.Flags().GetString("language")
			demoOnFail, _ := cmd.Flags().GetBool("demo-on-fail")

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			fmt.Printf("Provisioning %s sandbox...\n", domain)
			session, err := a.Provisioner.Create(ctx, api.SandboxRequest{
				Domain:     domain,
				NumSeeds:   numSeeds,
				TTLMinutes: ttl,
				Language:   language,
			})

			var provErr *sandbox.ProvisionError
			switch {
			case err == nil:
				fmt.Printf("Sandbox ready: %s\n", session.APIURL)
				fmt.Printf("Expires in: %s\n", sandbox.FormatCountdown(a.Sessions.TTL(ctx)))
				return nil
			case errors.Is(err, sandbox.ErrFallback), errors.As(err, &provErr):
				fmt.Printf("%v\n", err)
				if !demoOnFail {
					fmt.Println("Retry, or run 'uncase demo activate' to use local demo data instead.")
					return err
				}
				if err := a.Demo.Activate(ctx); err != nil {
					return fmt.Errorf("failed to activate demo: %w", err)
				}
				fmt.Println("Using local demo data instead")
				return nil
			default:
				return err
			}
		},
	}

	cmd.Flags().String("domain", "automotive.sales", "Seed domain for the sandbox")
	cmd.Flags().Int("seeds", 5, "Number of seeds to preload")
	cmd.Flags().Int("ttl", 30, "Lifetime in minutes")
	cmd.Flags().String("language", "es", "Seed language")
	cmd.Flags().Bool("demo-on-fail", false, "Fall back to local demo data when provisioning fails")
	return cmd
}
