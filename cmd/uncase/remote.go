package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/uncase/dashboard/internal/api"
	"github.com/uncase/dashboard/internal/models"
)

func newSeedsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seeds",
		Short: "List seeds",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List local seeds, or the backend's with --remote",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, _ := cmd.Flags().GetBool("remote")
			domain, _ := cmd.Flags().GetString("domain")
			limit, _ := cmd.Flags().GetInt("limit")
			asJSON, _ := cmd.Flags().GetBool("json")

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			var seeds []models.Seed
			if remote {
				seeds, err = a.API.ListSeeds(ctx, api.SeedFilter{Domain: domain, Limit: limit})
				if err != nil {
					return fmt.Errorf("failed to list seeds: %w", err)
				}
			} else {
				for _, s := range a.Demo.Seeds(ctx) {
					if domain == "" || s.Domain == domain {
						seeds = append(seeds, s)
					}
				}
			}

			if asJSON {
				if seeds == nil {
					seeds = []models.Seed{}
				}
				return printJSON(seeds)
			}

			if len(seeds) == 0 {
				fmt.Println("No seeds found.")
				return nil
			}
			for _, s := range seeds {
				fmt.Printf("%-22s %-22s %-3s %s\n", s.ID, s.Domain, s.Language, truncate(s.Objective, 50))
			}
			return nil
		},
	}
	list.Flags().Bool("remote", false, "Query the backend (or active sandbox)")
	list.Flags().String("domain", "", "Filter by domain")
	list.Flags().Int("limit", 0, "Maximum number of remote seeds")
	list.Flags().Bool("json", false, "Print JSON")
	cmd.AddCommand(list)

	return cmd
}

func newToolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Manage backend tool definitions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, _ := cmd.Flags().GetString("domain")

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			tools, err := a.API.ListTools(context.Background(), domain)
			if err != nil {
				return fmt.Errorf("failed to list tools: %w", err)
			}
			if len(tools) == 0 {
				fmt.Println("No tools found.")
				return nil
			}
			for _, t := range tools {
				fmt.Printf("%-24s %-12s %s\n", t.Name, t.Category, truncate(t.Description, 50))
			}
			return nil
		},
	}
	list.Flags().String("domain", "", "Filter by domain")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "get <name>",
		Short: "Show a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			tool, err := a.API.GetTool(context.Background(), args[0])
			if api.IsNotFound(err) {
				return fmt.Errorf("tool %q not found", args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(tool)
		},
	})

	create := &cobra.Command{
		Use:   "create",
		Short: "Register a tool from a YAML or JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			tool, err := readTool(file)
			if err != nil {
				return err
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.API.CreateTool(context.Background(), tool)
			if err != nil {
				return fmt.Errorf("failed to create tool: %w", err)
			}
			fmt.Printf("Created tool %s\n", created.Name)
			return nil
		},
	}
	create.Flags().StringP("file", "f", "", "Tool definition file")
	create.MarkFlagRequired("file")
	cmd.AddCommand(create)

	update := &cobra.Command{
		Use:   "update <name>",
		Short: "Replace a tool definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			tool, err := readTool(file)
			if err != nil {
				return err
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			updated, err := a.API.UpdateTool(context.Background(), args[0], tool)
			if err != nil {
				return fmt.Errorf("failed to update tool: %w", err)
			}
			fmt.Printf("Updated tool %s\n", updated.Name)
			return nil
		},
	}
	update.Flags().StringP("file", "f", "", "Tool definition file")
	update.MarkFlagRequired("file")
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.API.DeleteTool(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to delete tool: %w", err)
			}
			fmt.Printf("Deleted tool %s\n", args[0])
			return nil
		},
	})

	return cmd
}

// readTool accepts YAML or JSON, since JSON parses as YAML.
func readTool(path string) (models.Tool, error) {
	var tool models.Tool
	data, err := os.ReadFile(path)
	if err != nil {
		return tool, fmt.Errorf("failed to read tool file: %w", err)
	}
	if err := yaml.Unmarshal(data, &tool); err != nil {
		return tool, fmt.Errorf("failed to parse tool file: %w", err)
	}
	if strings.TrimSpace(tool.Name) == "" {
		return tool, fmt.Errorf("tool file %s has no name", path)
	}
	return tool, nil
}

func newConversationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conversations",
		Short: "Browse generated conversations",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			convs, err := a.API.ListConversations(context.Background(), limit)
			if err != nil {
				return fmt.Errorf("failed to list conversations: %w", err)
			}
			if len(convs) == 0 {
				fmt.Println("No conversations found.")
				return nil
			}
			for _, c := range convs {
				fmt.Printf("%-36s %-22s %-3s %d turns\n", c.ID, c.Domain, c.Language, len(c.Turns))
			}
			return nil
		},
	}
	list.Flags().Int("limit", 20, "Maximum number of conversations")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Print a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			conv, err := a.API.GetConversation(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get conversation: %w", err)
			}

			fmt.Printf("Conversation %s (%s, %s)\n\n", conv.ID, conv.Domain, conv.Language)
			for _, t := range conv.Turns {
				fmt.Printf("[%s] %s\n", t.Role, t.Content)
			}
			return nil
		},
	})

	return cmd
}

func newKnowledgeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage knowledge base documents",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			docs, err := a.API.ListKnowledge(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list documents: %w", err)
			}
			if len(docs) == 0 {
				fmt.Println("No documents found.")
				return nil
			}
			for _, d := range docs {
				fmt.Printf("%-36s %-30s %4d chunks\n", d.ID, truncate(d.Filename, 30), d.Chunks)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.API.DeleteKnowledge(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to delete document: %w", err)
			}
			fmt.Printf("Deleted document %s\n", args[0])
			return nil
		},
	})

	return cmd
}
