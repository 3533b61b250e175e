package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/SuperTask/internal/domain"
)

// NewSuperTaskCmd создаёт группу команд для управления SuperTask.
func NewSuperTaskCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "supertask",
		Aliases: []string{"st"},
		Short:   "Manage supertasks",
	}

	cmd.AddCommand(
		newSuperTaskListCmd(clientFn, outputFn),
		newSuperTaskShowCmd(clientFn, outputFn),
		newSuperTaskPutCmd(clientFn, outputFn),
		newSuperTaskDeleteCmd(clientFn, outputFn),
		newSuperTaskValidateCmd(outputFn),
	)

	return cmd
}

func newSuperTaskListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered supertasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			models, err := client.ListSuperTasks()
			if err != nil {
				return err
			}

			rows := make([][]string, len(models))
			for i, m := range models {
				rows[i] = superTaskRow(m)
			}

			return out.Print(superTaskHeaders, rows, models)
		},
	}
}

func newSuperTaskShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show supertask configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			model, err := client.GetSuperTask(args[0])
			if err != nil {
				return err
			}

			// Конфигурация вложенная, в таблицу не помещается
			return out.JSON(model)
		},
	}
}

func newSuperTaskPutCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "put NAME FILE",
		Short: "Register or update a supertask from a JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			name := args[0]
			body, err := readSuperTaskFile(args[1])
			if err != nil {
				return err
			}

			// Ошибки конфигурации видны до запроса к API
			if _, err := parseSuperTask(name, body); err != nil {
				return err
			}

			model, err := client.PutSuperTask(name, body)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("SuperTask registered: %s", model.Name))
			return out.Print(superTaskHeaders, [][]string{superTaskRow(*model)}, model)
		},
	}
}

func newSuperTaskDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a supertask",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().DeleteSuperTask(args[0]); err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("SuperTask deleted: %s", args[0]))
			return nil
		},
	}
}

func newSuperTaskValidateCmd(outputFn func() *Output) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a supertask file locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			body, err := readSuperTaskFile(args[0])
			if err != nil {
				return err
			}

			model, err := parseSuperTask(name, body)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("SuperTask %q is valid: %d workers, strategy %s",
				model.Name, len(model.Config.Workers), model.Config.Params.Strategy))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "SuperTask name (defaults to the name field of the file)")

	return cmd
}

var superTaskHeaders = []string{"NAME", "ROUTER", "STRATEGY", "WORKERS", "UPDATED"}

func superTaskRow(m SuperTaskResponse) []string {
	router := m.Router
	if router == "" {
		router = "default"
	}

	strategy := ""
	workers := 0
	if params, ok := m.Config["params"].(map[string]any); ok {
		strategy, _ = params["strategy"].(string)
	}
	if list, ok := m.Config["workers"].([]any); ok {
		workers = len(list)
	}

	return []string{m.Name, router, strategy, strconv.Itoa(workers), m.UpdatedAt}
}

func readSuperTaskFile(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("file %s is not valid JSON", path)
	}

	return data, nil
}

// parseSuperTask разбирает файл SuperTask так же, как это делает API:
// пустое имя шаблона заменяется именем SuperTask.
func parseSuperTask(name string, body []byte) (*domain.SuperTaskModel, error) {
	var m domain.SuperTaskModel
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("parse supertask: %w", err)
	}

	if name != "" {
		m.Name = name
	}
	m.Name = strings.TrimSpace(m.Name)

	if m.Template.Name == "" {
		m.Template.Name = m.Name
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}
