package providers

import (
	"fmt"
)

// ProviderFactory creates and returns appropriate embedding providers
type ProviderFactory struct {
	// ProviderConfigs stores configuration for each provider
	ProviderConfigs map[string]Config
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(configs map[string]Config) *ProviderFactory {
	return &ProviderFactory{
		ProviderConfigs: configs,
	}
}

// GetProvider returns an initialized provider instance for the specified provider name
func (f *ProviderFactory) GetProvider(providerName string) (Provider, error) {
	// The mock provider requires no API key and may be requested without
	// an explicit configuration entry
	if providerName == ProviderMock {
		config := f.ProviderConfigs[providerName]
		return NewMockProvider(config.Dimensions), nil
	}

	config, exists := f.ProviderConfigs[providerName]
	if !exists {
		return nil, fmt.Errorf("configuration for provider '%s' not found", providerName)
	}

	switch providerName {
	case ProviderOpenAI:
		return NewOpenAIProvider(config), nil
	case ProviderGoogle:
		return NewGoogleProvider(config), nil
	case ProviderVoyage:
		return NewVoyageProvider(config), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", providerName)
	}
}

// GetAllProviders returns all available providers based on configured providers
func (f *ProviderFactory) GetAllProviders() []Provider {
	var providers []Provider

	for providerName, config := range f.ProviderConfigs {
		// Skip remote providers with no API key
		if providerName != ProviderMock && config.APIKey == "" {
			continue
		}

		provider, err := f.GetProvider(providerName)
		if err == nil {
			providers = append(providers, provider)
		}
		// Silently skip providers that couldn't be created
	}

	return providers
}
