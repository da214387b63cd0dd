package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uncase/dashboard/internal/jobs"
	"github.com/uncase/dashboard/internal/models"
	"github.com/uncase/dashboard/internal/storage"
)

func newJobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage pipeline jobs",
	}

	cmd.AddCommand(newJobsListCommand())
	cmd.AddCommand(newJobsAddCommand())
	cmd.AddCommand(newJobsUpdateCommand())
	cmd.AddCommand(newJobsCancelCommand())
	cmd.AddCommand(newJobsRemoveCommand())
	cmd.AddCommand(newJobsClearCommand())
	cmd.AddCommand(newJobsSimulateCommand())
	return cmd
}

func newJobsListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			view, _ := cmd.Flags().GetString("view")
			asJSON, _ := cmd.Flags().GetBool("json")

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			var list []models.PipelineJob
			switch view {
			case "all":
				list = a.Queue.Jobs(ctx)
			case "active":
				list = a.Queue.Active(ctx)
			case "completed":
				list = a.Queue.Completed(ctx)
			default:
				return fmt.Errorf("invalid view %q (all, active, completed)", view)
			}

			if asJSON {
				return printJSON(list)
			}

			if len(list) == 0 {
				fmt.Println("No jobs found.")
				return nil
			}

			for _, job := range list {
				fmt.Printf("%s %-9s [%s] %3d%% %s  %s\n",
					job.ID, job.Stage, job.Status, job.Progress,
					truncate(job.Label, 40), storage.FormatTimeAgo(job.CreatedAt))
			}
			return nil
		},
	}

	cmd.Flags().String("view", "all", "Which jobs to show: all, active, completed")
	cmd.Flags().Bool("json", false, "Print JSON")
	return cmd
}

func newJobsAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Queue a new job",
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, _ := cmd.Flags().GetString("stage")
			label, _ := cmd.Flags().GetString("label")
			meta, _ := cmd.Flags().GetStringToString("meta")

			if !models.JobStage(stage).Valid() {
				return fmt.Errorf("invalid stage %q", stage)
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			in := jobs.JobInput{Stage: models.JobStage(stage), Label: label}
			if len(meta) > 0 {
				in.Metadata = make(map[string]any, len(meta))
				for k, v := range meta {
					in.Metadata[k] = v
				}
			}

			job, err := a.Queue.Add(context.Background(), in)
			if err != nil {
				return fmt.Errorf("failed to add job: %w", err)
			}

			fmt.Printf("Added job %s\n", job.ID)
			return nil
		},
	}

	cmd.Flags().String("stage", string(models.StageSeed), "Pipeline stage: "+joinStages())
	cmd.Flags().String("label", "", "Display label")
	cmd.Flags().StringToString("meta", nil, "Metadata key=value pairs")
	return cmd
}

func newJobsUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <job-id>",
		Short: "Patch a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch jobs.JobPatch
			flags := cmd.Flags()

			if flags.Changed("status") {
				v, _ := flags.GetString("status")
				status := models.JobStatus(v)
				if !status.Valid() {
					return fmt.Errorf("invalid status %q", v)
				}
				patch.Status = &status
			}
			if flags.Changed("progress") {
				v, _ := flags.GetInt("progress")
				patch.Progress = &v
			}
			if flags.Changed("label") {
				v, _ := flags.GetString("label")
				patch.Label = &v
			}
			if flags.Changed("error") {
				v, _ := flags.GetString("error")
				patch.Error = &v
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			job, found, err := a.Queue.Update(context.Background(), args[0], patch)
			if err != nil {
				return fmt.Errorf("failed to update job: %w", err)
			}
			if !found {
				fmt.Printf("No job %s; nothing changed\n", args[0])
				return nil
			}

			fmt.Printf("Job %s: %s %d%%\n", job.ID, job.Status, job.Progress)
			return nil
		},
	}

	cmd.Flags().String("status", "", "New status: queued, running, completed, failed, cancelled")
	cmd.Flags().Int("progress", 0, "Progress 0-100")
	cmd.Flags().String("label", "", "New label")
	cmd.Flags().String("error", "", "Error message")
	return cmd
}

func newJobsCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a queued or running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.Queue.Cancel(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to cancel job: %w", err)
			}

			fmt.Printf("Cancelled job %s\n", args[0])
			return nil
		},
	}
}

func newJobsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <job-id>",
		Short: "Delete a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Queue.Remove(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to remove job: %w", err)
			}

			fmt.Printf("Removed job %s\n", args[0])
			return nil
		},
	}
}

func newJobsClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove completed and failed jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			before := len(a.Queue.Jobs(ctx))
			if err := a.Queue.ClearCompleted(ctx); err != nil {
				return fmt.Errorf("failed to clear jobs: %w", err)
			}

			fmt.Printf("Cleared %d jobs\n", before-len(a.Queue.Jobs(ctx)))
			return nil
		},
	}
}

func newJobsSimulateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Advance jobs like demo mode does until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, _ := cmd.Flags().GetDuration("interval")
			step, _ := cmd.Flags().GetInt("step")

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			fmt.Printf("Simulating every %s (ctrl+c to stop)\n", interval)
			jobs.NewSimulator(a.Queue, interval, step, a.Logger).Run(ctx)
			return nil
		},
	}

	cmd.Flags().Duration("interval", jobs.DefaultSimInterval, "Tick interval")
	cmd.Flags().Int("step", jobs.DefaultSimStep, "Progress added per tick")
	return cmd
}

func joinStages() string {
	names := make([]string, len(models.Stages))
	for i, s := range models.Stages {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

