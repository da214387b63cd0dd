package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newDemoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Manage local demo data",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "activate",
		Short: "Load demo seeds and jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			if err := a.Demo.Activate(ctx); err != nil {
				return fmt.Errorf("failed to activate demo: %w", err)
			}

			fmt.Printf("Demo mode on: %d seeds, %d jobs\n", len(a.Demo.Seeds(ctx)), len(a.Queue.Jobs(ctx)))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Remove demo data and any sandbox session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Demo.Reset(context.Background()); err != nil {
				return fmt.Errorf("failed to reset demo: %w", err)
			}
			fmt.Println("Demo data cleared")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether demo mode is on",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			if !a.Demo.IsActive(ctx) {
				fmt.Println("Demo mode: off")
				return nil
			}
			fmt.Println("Demo mode: on")
			fmt.Printf("Seeds: %d\n", len(a.Demo.Seeds(ctx)))
			fmt.Printf("Jobs: %d (%d active)\n", len(a.Queue.Jobs(ctx)), len(a.Queue.Active(ctx)))
			return nil
		},
	})

	return cmd
}
