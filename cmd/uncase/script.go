package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uncase/dashboard/internal/script"
)

func newScriptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "script",
		Short: "Run Lua pipeline scripts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run <file.lua> [args...]",
		Short: "Run a pipeline script against the job queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !script.IsScript(path) {
				return fmt.Errorf("not a Lua script: %s", path)
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			rt := script.NewRuntime(a.Queue)
			rt.LogFunc = func(line string) { fmt.Println(line) }

			if err := rt.Execute(ctx, path, args[1:]); err != nil {
				return err
			}
			fmt.Printf("Script finished: %d jobs in queue\n", len(a.Queue.Jobs(ctx)))
			return nil
		},
	})

	return cmd
}
