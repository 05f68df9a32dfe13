package config

// CurrentV is the current config schema version.
const CurrentV = 1

const (
	defaultAPIListen = ":8080"

	defaultVectorProvider   = "sqlitevec"
	defaultVectorTarget     = "packrat.db"
	defaultVectorCollection = "packrat_facts"

	defaultProvider = "ollama"
	defaultTarget   = "http://localhost:11434"

	defaultEmbeddingModel      = "embeddinggemma"
	defaultEmbeddingDimensions = 768

	defaultLanguageModel = "llama3.1"

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "packrat.facts"

	defaultErrorPolicy = "fail_fast"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Target:     defaultVectorTarget,
			Collection: defaultVectorCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultProvider,
			Target:     defaultTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Language: LanguageConfig{
			Provider: defaultProvider,
			Target:   defaultTarget,
			Model:    defaultLanguageModel,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
		Memory: MemoryConfig{
			ErrorPolicy: defaultErrorPolicy,
		},
	}
}
