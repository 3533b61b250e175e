package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewJobCmd создаёт группу команд для управления jobs.
func NewJobCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Manage jobs",
	}

	cmd.AddCommand(
		newJobListCmd(clientFn, outputFn),
		newJobShowCmd(clientFn, outputFn),
		newJobTasksCmd(clientFn, outputFn),
		newJobCancelCmd(clientFn, outputFn),
	)

	return cmd
}

var jobHeaders = []string{"ID", "NAME", "STATUS", "PARENT", "DURATION_MS", "ERROR"}

func jobRow(j JobResponse) []string {
	return []string{j.ID, j.Name, j.Status, j.ParentID, strconv.FormatInt(j.DurationMs, 10), j.Error}
}

func jobFields(j JobResponse) []Field {
	fields := []Field{
		{"ID", j.ID},
		{"Name", j.Name},
		{"Status", j.Status},
		{"Parent", j.ParentID},
		{"Created", j.CreatedAt},
		{"Started", j.StartedAt},
		{"Finished", j.FinishedAt},
	}
	if j.DurationMs > 0 {
		fields = append(fields, Field{"Duration", strconv.FormatInt(j.DurationMs, 10) + "ms"})
	}
	return append(fields,
		Field{"Error", j.Error},
		Field{"Response", j.Response},
	)
}

func newJobListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListJobsOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			jobs, err := client.ListJobs(opts)
			if err != nil {
				return err
			}

			rows := make([][]string, len(jobs))
			for i, j := range jobs {
				rows[i] = jobRow(j)
			}

			return out.Print(jobHeaders, rows, jobs)
		},
	}

	cmd.Flags().StringVar(&opts.ParentID, "parent", "", "Filter by parent job ID")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Filter by supertask name")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status (PENDING, RUNNING, COMPLETED, FAILED, EXPIRED, CANCELED, INTERNAL_ERROR)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Max number of jobs")

	return cmd
}

func newJobTasksCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks ID",
		Short: "List tasks submitted by a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			tasks, err := client.ListJobTasks(args[0])
			if err != nil {
				return err
			}

			headers := []string{"ID", "WORKER", "STATUS", "CREATED", "COMPLETED"}
			rows := make([][]string, len(tasks))
			for i, t := range tasks {
				rows[i] = []string{t.ID, t.WorkerType, t.Status, t.CreatedAt, t.CompletedAt}
			}

			return out.Print(headers, rows, tasks)
		},
	}
}

func newJobShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show job status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.GetJob(args[0])
			if err != nil {
				return err
			}

			return out.Detail(jobFields(*job), job)
		},
	}
}

func newJobCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.CancelJob(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job cancelled: %s", args[0]))
			return nil
		},
	}
}
