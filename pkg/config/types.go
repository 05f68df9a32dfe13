// Package config holds the persistent packrat configuration and its
// viper-backed loading.
package config

// Config represents the packrat configuration, stored as config.toml and
// overridable through PACKRAT_-prefixed environment variables.
type Config struct {
	Version     int               `mapstructure:"version"`
	API         APIConfig         `mapstructure:"api"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	Language    LanguageConfig    `mapstructure:"language"`
	Events      EventsConfig      `mapstructure:"events"`
	Memory      MemoryConfig      `mapstructure:"memory"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `mapstructure:"listen"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider   string `mapstructure:"provider"`
	Target     string `mapstructure:"target"`
	Collection string `mapstructure:"collection"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	Target     string `mapstructure:"target"`
	Model      string `mapstructure:"model"`
	Dimensions uint   `mapstructure:"dimensions"`
}

// LanguageConfig holds language model settings.
type LanguageConfig struct {
	Provider string `mapstructure:"provider"`
	Target   string `mapstructure:"target"`
	Model    string `mapstructure:"model"`
}

// EventsConfig holds fact-event stream settings.
type EventsConfig struct {
	Provider  string   `mapstructure:"provider"`
	Brokers   []string `mapstructure:"brokers"`
	Topic     string   `mapstructure:"topic"`
	Workers   int      `mapstructure:"workers"`
	QueueSize int      `mapstructure:"queue_size"`
}

// MemoryConfig holds memory pipeline settings.
type MemoryConfig struct {
	// ErrorPolicy is "fail_fast" or "collect_all".
	ErrorPolicy string `mapstructure:"error_policy"`
}
