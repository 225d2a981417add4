package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "benchpipe",
	Short: "LLM benchmark pipeline with MCP server",
	Long: `benchpipe runs benchmark requests against LLM chat providers (OpenAI,
Anthropic, Ollama, DeepSeek), optionally letting models call tools during a
run, and scores the answers with a deterministic heuristic or an LLM judge.
Run progress is reported as an ordered event stream.

All functionality is also exposed via an MCP server ('benchpipe serve').`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		// Logs go to stderr so stdout stays clean for event output.
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	},
}

var (
	buildCommit = "unknown"
	buildDate   = "unknown"
)

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// SetBuildInfo sets the commit and build date for the version command.
func SetBuildInfo(commit, date string) {
	buildCommit = commit
	buildDate = date
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "benchpipe version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newModelsCmd())
	rootCmd.AddCommand(newToolsCmd())

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
}
