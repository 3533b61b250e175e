// SuperTask CLI — инструмент командной строки для управления
// SuperTask, запусками и jobs через HTTP API.
//
// Использование:
//
//	supertask [--api-url URL] [-o table|json] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	supertask  Управление типами SuperTask (list, show, put, delete, validate)
//	schedule   Запуск SuperTask
//	job        Просмотр и отмена jobs
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/SuperTask/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var (
		apiURL     string
		outputFlag string
		jsonOutput bool
		format     = cli.FormatTable
	)

	rootCmd := &cobra.Command{
		Use:           "supertask",
		Short:         "SuperTask CLI — task routing and retries",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput {
				format = cli.FormatJSON
				return nil
			}
			f, err := cli.ParseFormat(outputFlag)
			if err != nil {
				return err
			}
			format = f
			return nil
		},
	}

	apiDefault := "http://localhost:8080"
	if v := os.Getenv("SUPERTASK_API_URL"); v != "" {
		apiDefault = v
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", apiDefault, "API server URL")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", string(cli.FormatTable), "Output format: table or json")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Shorthand for --output json")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(format) }

	rootCmd.AddCommand(
		cli.NewSuperTaskCmd(clientFn, outputFn),
		cli.NewScheduleCmd(clientFn, outputFn),
		cli.NewJobCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		cli.NewOutput(format).Error(err)
		os.Exit(1)
	}
}
