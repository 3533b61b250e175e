package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewScheduleCmd создаёт команду запуска SuperTask.
func NewScheduleCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		inputJSON  string
		outputJSON string
		paramsJSON string
		parentID   string
		async      bool
	)

	cmd := &cobra.Command{
		Use:   "schedule NAME",
		Short: "Schedule a supertask",
		Long: `Schedule a supertask as a child job.

By default the command waits for the job to finish and prints form_data.
With --async it returns the job ID immediately.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := ScheduleRequest{ParentID: parentID}

			var err error
			if req.Input, err = parseObjectFlag("input", inputJSON); err != nil {
				return err
			}
			if req.Output, err = parseObjectFlag("output", outputJSON); err != nil {
				return err
			}
			if req.SuperTaskParams, err = parseObjectFlag("params", paramsJSON); err != nil {
				return err
			}

			if async {
				resp, err := client.ScheduleAsync(args[0], req)
				if err != nil {
					return err
				}

				out.Success(fmt.Sprintf("Job scheduled: %s", resp.JobID))
				return out.Print([]string{"JOB ID"}, [][]string{{resp.JobID}}, resp)
			}

			resp, err := client.Schedule(args[0], req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job completed: %s", resp.JobID))
			return out.JSON(resp)
		},
	}

	cmd.Flags().StringVar(&inputJSON, "input", "", "Task input as JSON object")
	cmd.Flags().StringVar(&outputJSON, "output", "", "Task output schema as JSON object")
	cmd.Flags().StringVar(&paramsJSON, "params", "", "SuperTask config override as JSON object")
	cmd.Flags().StringVar(&parentID, "parent", "", "Parent job ID")
	cmd.Flags().BoolVar(&async, "async", false, "Return job ID without waiting")

	return cmd
}

func parseObjectFlag(name, value string) (map[string]any, error) {
	if value == "" {
		return nil, nil
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(value), &m); err != nil {
		return nil, fmt.Errorf("invalid --%s JSON: %w", name, err)
	}
	return m, nil
}
