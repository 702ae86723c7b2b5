package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// modelPresets maps each provider to its default chat and embedding models.
var modelPresets = map[ProviderType]struct {
	Model             string
	EmbeddingProvider ProviderType
	EmbeddingModel    string
}{
	ProviderAnthropic: {"claude-sonnet-4-5-20250929", ProviderOpenAI, "text-embedding-3-small"},
	ProviderOpenAI:    {"gpt-4o", ProviderOpenAI, "text-embedding-3-small"},
	ProviderOllama:    {"llama3", ProviderOllama, "nomic-embed-text"},
}

// RunWizard runs an interactive configuration wizard, saves the result
// to path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to clipd! Let's configure your daemon.")
	fmt.Println()

	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"anthropic", "openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)
	preset := modelPresets[provider]

	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: preset.Model,
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	searchPrompt := promptui.Select{
		Label: "Enable semantic search",
		Items: []string{"yes", "no"},
	}
	searchIdx, _, err := searchPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("search selection: %w", err)
	}

	portPrompt := promptui.Prompt{
		Label:   "Port",
		Default: "7317",
		Validate: func(s string) error {
			p, err := strconv.Atoi(s)
			if err != nil || p <= 0 || p > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	port, _ := strconv.Atoi(portStr)

	dataDirPrompt := promptui.Prompt{
		Label:   "Data directory",
		Default: defaultDataDir(),
	}
	dataDir, err := dataDirPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	cfg := &Config{
		Provider:  provider,
		Model:     model,
		Host:      "127.0.0.1",
		Port:      port,
		DataDir:   dataDir,
		AutoIndex: true,
	}
	if searchIdx == 0 {
		cfg.EmbeddingProvider = preset.EmbeddingProvider
		cfg.EmbeddingModel = preset.EmbeddingModel
	}

	if envVar := APIKeyEnvVar(provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running clipd serve.\n", envVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}
