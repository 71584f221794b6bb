package domain

// Provider names the scoring backend variant.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// Settings keys shared with the settings surface.
const (
	SettingProvider    = "provider"
	SettingGeminiKey   = "geminiKey"
	SettingOpenAIKey   = "openaiKey"
	SettingOpenAIURL   = "openaiUrl"
	SettingOpenAIModel = "openaiModel"
)

// SettingKeys lists every key read per request cycle.
var SettingKeys = []string{
	SettingProvider,
	SettingGeminiKey,
	SettingOpenAIKey,
	SettingOpenAIURL,
	SettingOpenAIModel,
}

// ProviderConfig is the snapshot of provider settings used for one request.
type ProviderConfig struct {
	Provider Provider
	APIKey   string
	BaseURL  string
	Model    string
}

// ProviderConfigFromSettings resolves the active provider and its credential.
// Anything other than "gemini" selects the OpenAI-compatible variant; an empty
// provider defaults to gemini.
func ProviderConfigFromSettings(values map[string]string) ProviderConfig {
	provider := Provider(values[SettingProvider])
	if provider == "" {
		provider = ProviderGemini
	}

	if provider == ProviderGemini {
		return ProviderConfig{Provider: ProviderGemini, APIKey: values[SettingGeminiKey]}
	}

	return ProviderConfig{
		Provider: ProviderOpenAI,
		APIKey:   values[SettingOpenAIKey],
		BaseURL:  values[SettingOpenAIURL],
		Model:    values[SettingOpenAIModel],
	}
}
