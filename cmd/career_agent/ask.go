package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-transitions/internal/observability"
	"github.com/jonathan/career-transitions/internal/pipeline"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a career transition question",
	Long: `Answer a free-text question such as "Where do Bain consultants exit to?" and print the result.

Failed answers (unknown company, no matching people) are printed like any other answer and do not
change the exit status.`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: map[string]string{logLevelAnnotation: "warn"},
	RunE:        runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	printer := observability.NewPrinter(cmd.OutOrStdout())
	var onProgress pipeline.ProgressCallback
	if verbose && !askJSON {
		onProgress = func(event pipeline.ProgressEvent) {
			printer.PrintProgress(event.Step, event.Message)
		}
	}
	executor, err := a.executor(onProgress)
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}

	result := executor.Answer(ctx, strings.Join(args, " "))
	if askJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}
	printer.PrintResult(result)
	return nil
}
