// Package config loads the application configuration: compiled defaults,
// then an optional YAML file, then environment variables, each layer
// overriding the previous one.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the SQLite database location.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// ChromaConfig contains connection details for the vector store.
type ChromaConfig struct {
	URL              string `yaml:"url"`
	Collection       string `yaml:"collection"`
	ConnectAttempts  int    `yaml:"connect_attempts"`
	ConnectDelaySecs int    `yaml:"connect_delay_secs"`
}

// OllamaConfig points at a local Ollama instance and its models.
type OllamaConfig struct {
	URL           string `yaml:"url"`
	EmbedModel    string `yaml:"embed_model"`
	GenerateModel string `yaml:"generate_model"`
}

// GeminiConfig names the Gemini models; the API key comes from the
// environment only and never from a config file.
type GeminiConfig struct {
	APIKey        string `yaml:"-"`
	EmbedModel    string `yaml:"embed_model"`
	GenerateModel string `yaml:"generate_model"`
}

// EmbeddingConfig selects the embedding provider: "ollama" or "gemini".
type EmbeddingConfig struct {
	Provider string `yaml:"provider"`
}

// GenerationConfig selects the generation provider and bounds each call.
type GenerationConfig struct {
	Provider    string `yaml:"provider"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChunkingConfig sets the chunk geometry, measured in runes.
type ChunkingConfig struct {
	MaxChunkSize int `yaml:"max_chunk_size"`
	Overlap      int `yaml:"overlap"`
}

// RetrievalConfig carries the retrieval tunables. The defaults preserve the
// behavior existing clients expect; change them only deliberately.
type RetrievalConfig struct {
	SearchOverfetch   int     `yaml:"search_overfetch"`
	AnswerOverfetch   int     `yaml:"answer_overfetch"`
	DistanceThreshold float64 `yaml:"distance_threshold"`
	WindowQueryCap    int     `yaml:"window_query_cap"`
}

// ImporterConfig points at an optional watched drop directory; empty
// disables the importer.
type ImporterConfig struct {
	Dir string `yaml:"dir"`
}

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Chroma     ChromaConfig     `yaml:"chroma"`
	Ollama     OllamaConfig     `yaml:"ollama"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Importer   ImporterConfig   `yaml:"importer"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Host: "0.0.0.0", Port: 8080},
		Storage: StorageConfig{Path: "data/notevault.db"},
		Chroma: ChromaConfig{
			URL:              "http://localhost:8000",
			Collection:       "documents",
			ConnectAttempts:  10,
			ConnectDelaySecs: 3,
		},
		Ollama: OllamaConfig{
			URL:           "http://localhost:11434",
			EmbedModel:    "nomic-embed-text:v1.5",
			GenerateModel: "llama3.2",
		},
		Gemini: GeminiConfig{
			EmbedModel:    "text-embedding-004",
			GenerateModel: "gemini-2.5-flash",
		},
		Embedding:  EmbeddingConfig{Provider: "ollama"},
		Generation: GenerationConfig{Provider: "ollama", TimeoutSecs: 120},
		Chunking:   ChunkingConfig{MaxChunkSize: 1500, Overlap: 200},
		Retrieval: RetrievalConfig{
			SearchOverfetch:   3,
			AnswerOverfetch:   4,
			DistanceThreshold: 0.5,
			WindowQueryCap:    50,
		},
	}
}

// Load builds the effective configuration. A missing config file is fine;
// a present but unreadable one is not.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("NOTEVAULT_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Host, "HOST")
	setInt(&cfg.Server.Port, "PORT")
	setString(&cfg.Storage.Path, "SQLITE_PATH")
	setString(&cfg.Chroma.URL, "CHROMA_URL")
	setString(&cfg.Chroma.Collection, "CHROMA_COLLECTION")
	setString(&cfg.Ollama.URL, "OLLAMA_URL")
	setString(&cfg.Ollama.EmbedModel, "OLLAMA_EMBED_MODEL")
	setString(&cfg.Ollama.GenerateModel, "OLLAMA_GENERATE_MODEL")
	setString(&cfg.Gemini.EmbedModel, "GEMINI_EMBED_MODEL")
	setString(&cfg.Gemini.GenerateModel, "GEMINI_GENERATE_MODEL")
	setString(&cfg.Embedding.Provider, "EMBEDDING_PROVIDER")
	setString(&cfg.Generation.Provider, "GENERATION_PROVIDER")
	setString(&cfg.Importer.Dir, "IMPORT_DIR")
	cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("CONFIG WARN: ignoring non-numeric %s=%q", key, v)
		return
	}
	*dst = n
}

func (c *Config) validate() error {
	if c.Embedding.Provider != "ollama" && c.Embedding.Provider != "gemini" {
		return fmt.Errorf("config: unknown embedding provider %q", c.Embedding.Provider)
	}
	if c.Generation.Provider != "ollama" && c.Generation.Provider != "gemini" {
		return fmt.Errorf("config: unknown generation provider %q", c.Generation.Provider)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	if c.Chunking.MaxChunkSize <= 0 {
		return fmt.Errorf("config: max chunk size must be positive, got %d", c.Chunking.MaxChunkSize)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.MaxChunkSize {
		return fmt.Errorf("config: overlap %d must be in [0, %d)", c.Chunking.Overlap, c.Chunking.MaxChunkSize)
	}
	if c.Retrieval.SearchOverfetch < 3 {
		c.Retrieval.SearchOverfetch = 3
	}
	if c.Retrieval.AnswerOverfetch < 1 {
		c.Retrieval.AnswerOverfetch = 1
	}
	if c.Retrieval.WindowQueryCap < 1 {
		c.Retrieval.WindowQueryCap = 1
	}
	if c.Retrieval.DistanceThreshold <= 0 {
		return fmt.Errorf("config: distance threshold must be positive, got %v", c.Retrieval.DistanceThreshold)
	}
	if c.Chroma.ConnectAttempts < 1 {
		c.Chroma.ConnectAttempts = 1
	}
	if c.Chroma.ConnectDelaySecs < 0 {
		c.Chroma.ConnectDelaySecs = 0
	}
	if c.Generation.TimeoutSecs < 1 {
		c.Generation.TimeoutSecs = 1
	}
	return nil
}
