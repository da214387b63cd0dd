package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uncase/dashboard/internal/storage"
)

func newStateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect raw persisted state",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List stored keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			keys, err := a.Store.Keys(ctx)
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				fmt.Println("No keys stored.")
				return nil
			}

			// the sqlite backend also knows when each key changed
			db, _ := a.KV.(*storage.Storage)
			for _, key := range keys {
				if db == nil {
					fmt.Println(key)
					continue
				}
				if at, ok, err := db.UpdatedAt(ctx, key); err == nil && ok {
					fmt.Printf("%-28s %s\n", key, storage.FormatTimeAgo(at))
				} else {
					fmt.Println(key)
				}
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print a stored value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			value, ok := a.Store.ReadString(context.Background(), args[0])
			if !ok {
				return fmt.Errorf("key %q not set", args[0])
			}
			fmt.Println(value)
			return nil
		},
	})

	return cmd
}
