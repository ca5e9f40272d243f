package demo

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the demo server settings, read from the environment.
type Config struct {
	// Addr is the host:port the demo server listens on.
	Addr string `env:"DEMO_ADDR" envDefault:"127.0.0.1:4000"`

	// APIKey authenticates against the OpenAI or Azure OpenAI API. Leaving
	// it empty makes the joke and search tools report an error result.
	APIKey string `env:"AZURE_API_KEY"`
	// AzureEndpoint switches the completer to an Azure deployment when set.
	AzureEndpoint string `env:"ENDPOINT"`
	// AzureAPIVersion overrides the default Azure API version.
	AzureAPIVersion string `env:"VERSION"`
	// Model is the model name, or the deployment name on Azure, used for
	// completions.
	Model string `env:"MODEL" envDefault:"gpt-4o-mini"`
}

// LoadConfig populates a Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
