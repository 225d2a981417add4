package cmd

import (
	"os"

	"github.com/benchpipe/benchpipe/internal/bench"
	"github.com/benchpipe/benchpipe/internal/provider"
	"github.com/benchpipe/benchpipe/internal/tools"
)

// newAdapterFactory builds adapters from flag values with environment
// fallback. An empty key is passed through; adapters report an auth error on
// first use, which keeps key-free providers like Ollama working.
func newAdapterFactory(apiKey, baseURL string) bench.AdapterFactory {
	return func(providerName, model string) (provider.Adapter, error) {
		cfg := provider.Config{APIKey: apiKey, BaseURL: baseURL, Model: model}
		if cfg.APIKey == "" {
			switch providerName {
			case provider.ProviderOpenAI:
				cfg.APIKey = os.Getenv("OPENAI_API_KEY")
			case provider.ProviderDeepSeek:
				cfg.APIKey = os.Getenv("DEEPSEEK_API_KEY")
			case provider.ProviderAnthropic:
				cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			}
		}
		if cfg.BaseURL == "" {
			switch providerName {
			case provider.ProviderOpenAI:
				cfg.BaseURL = os.Getenv("OPENAI_BASE_URL")
			case provider.ProviderDeepSeek:
				cfg.BaseURL = os.Getenv("DEEPSEEK_BASE_URL")
			case provider.ProviderAnthropic:
				cfg.BaseURL = os.Getenv("ANTHROPIC_BASE_URL")
			case provider.ProviderOllama:
				cfg.BaseURL = os.Getenv("OLLAMA_URL")
			}
		}
		return provider.New(providerName, cfg)
	}
}

// newToolRegistry builds the tool registry with credentials from the
// environment.
func newToolRegistry() *tools.Registry {
	return tools.NewRegistry(tools.Config{
		TavilyAPIKey: os.Getenv("TAVILY_API_KEY"),
	})
}
