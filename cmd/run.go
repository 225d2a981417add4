package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/benchpipe/benchpipe/internal/bench"
)

func newRunCmd() *cobra.Command {
	var (
		providerName string
		model        string
		apiKey       string
		baseURL      string
		noTools      bool
		timeout      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run <request-file>",
		Short: "Run a benchmark request against an LLM provider",
		Long: `Execute a benchmark request from a YAML or JSON file.

Events (answers, tool calls, evaluations and the final summary) are written
to stdout as newline-delimited JSON; logs go to stderr. Provider credentials
are read from the environment (OPENAI_API_KEY, ANTHROPIC_API_KEY,
DEEPSEEK_API_KEY, OLLAMA_URL, TAVILY_API_KEY).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			req, err := bench.LoadRequest(args[0])
			if err != nil {
				return err
			}

			// Flag overrides.
			if providerName != "" {
				req.Provider = providerName
			}
			if model != "" {
				req.Model = model
			}

			registry := newToolRegistry()
			if noTools {
				registry = nil
			}

			runner := bench.NewRunner(newAdapterFactory(apiKey, baseURL), registry)
			runner.Run(ctx, *req, bench.NDJSONEmitter(os.Stdout))
			return nil
		},
	}

	cmd.Flags().StringVar(&providerName, "provider", "", "Provider to use (overrides request file)")
	cmd.Flags().StringVar(&model, "model", "", "Model to use (overrides request file)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Provider API key (overrides environment)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Provider base URL (overrides environment)")
	cmd.Flags().BoolVar(&noTools, "no-tools", false, "Disable the tool round trip even when the request enables it")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Overall run timeout (0 = no timeout)")

	return cmd
}
