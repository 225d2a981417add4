package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	var (
		asJSON  bool
		apiKey  string
		baseURL string
	)

	cmd := &cobra.Command{
		Use:   "models <provider>",
		Short: "List the models a provider advertises",
		Long: `Query a provider's model listing endpoint. Providers without one report a
known-model list instead; an unreachable Ollama daemon reports no models.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := newAdapterFactory(apiKey, baseURL)(args[0], "")
			if err != nil {
				return err
			}

			models, err := adapter.ListModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list models: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(models, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}
			for _, m := range models {
				fmt.Fprintln(out, m.ID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Provider API key (overrides environment)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Provider base URL (overrides environment)")

	return cmd
}

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools available to benchmarked models",
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := newToolRegistry().Definitions()
			data, err := json.MarshalIndent(defs, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
