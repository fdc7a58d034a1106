package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the typed service configuration, loaded from environment
// variables with sensible development defaults.
type Config struct {
	Env  string
	Port string

	DB       DBConfig
	Search   SearchConfig
	Embedder EmbedderConfig
	Chat     ChatConfig
	Blob     BlobConfig
	Upload   UploadConfig
	Index    IndexConfig
	Download DownloadConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	MaxConns int
	MinConns int
}

// DSN renders the connection string for pgx.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", c.User, c.Password, c.Host, c.Port, c.Name)
}

type SearchConfig struct {
	MinScoreForAnswer   float64
	FollowUpMinScore    float64
	MaxSourcesForAnswer int
}

type EmbedderConfig struct {
	BaseURL           string
	APIKey            string
	Model             string
	Dimensions        int
	TimeoutSeconds    int
	RequestsPerSecond float64
}

type ChatConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	Language       string
	Temperature    float64
	TimeoutSeconds int
	MaxTokens      int
}

type BlobConfig struct {
	Bucket    string
	Container string
}

type UploadConfig struct {
	MaxFileSizeMB     int
	AllowedExtensions []string
	ChunkSize         int
	ChunkOverlap      int
	ExtractorURL      string
}

type IndexConfig struct {
	Name           string
	EmbeddingDim   int
	HNSWM          int
	EfConstruction int
	EfSearch       int
}

type DownloadConfig struct {
	TokenSecret   string
	TokenIssuer   string
	MaxTTLMinutes int
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9020"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "docqa-db"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "docqa_user"),
			Password: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "docqa_password"),
			Name:     getEnv("DB_NAME", "docqa_db"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
			MinConns: getEnvInt("DB_MIN_CONNS", 2),
		},
		Search: SearchConfig{
			MinScoreForAnswer:   getEnvFloat("SEARCH_MIN_SCORE", 0.15),
			FollowUpMinScore:    getEnvFloat("SEARCH_FOLLOWUP_MIN_SCORE", 0.05),
			MaxSourcesForAnswer: getEnvInt("SEARCH_MAX_SOURCES", 5),
		},
		Embedder: EmbedderConfig{
			BaseURL:           getEnvWithAlt("EMBEDDER_URL", "LLM_BASE_URL", "http://llm-gateway:8080"),
			APIKey:            getSecret("EMBEDDER_API_KEY", "EMBEDDER_API_KEY_FILE", ""),
			Model:             getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			Dimensions:        getEnvInt("EMBEDDING_DIM", 1536),
			TimeoutSeconds:    getEnvInt("EMBEDDER_TIMEOUT_SECONDS", 30),
			RequestsPerSecond: getEnvFloat("EMBEDDER_RPS", 10),
		},
		Chat: ChatConfig{
			BaseURL:        getEnvWithAlt("CHAT_URL", "LLM_BASE_URL", "http://llm-gateway:8080"),
			APIKey:         getSecret("CHAT_API_KEY", "CHAT_API_KEY_FILE", ""),
			Model:          getEnv("CHAT_MODEL", "gpt-4o-mini"),
			Language:       getEnv("CHAT_LANGUAGE", "en"),
			Temperature:    getEnvFloat("CHAT_TEMPERATURE", 0.2),
			TimeoutSeconds: getEnvInt("CHAT_TIMEOUT_SECONDS", 120),
			MaxTokens:      getEnvInt("CHAT_MAX_TOKENS", 1024),
		},
		Blob: BlobConfig{
			Bucket:    getEnv("BLOB_BUCKET", "docqa-documents"),
			Container: getEnv("BLOB_CONTAINER", "documents"),
		},
		Upload: UploadConfig{
			MaxFileSizeMB:     getEnvInt("UPLOAD_MAX_FILE_SIZE_MB", 20),
			AllowedExtensions: getEnvList("UPLOAD_ALLOWED_EXTENSIONS", []string{".pdf", ".docx", ".doc", ".txt", ".md", ".json", ".xml", ".csv", ".log"}),
			ChunkSize:         getEnvInt("UPLOAD_CHUNK_SIZE", 300),
			ChunkOverlap:      getEnvInt("UPLOAD_CHUNK_OVERLAP", 20),
			ExtractorURL:      getEnv("EXTRACTOR_URL", ""),
		},
		Index: IndexConfig{
			Name:           getEnv("INDEX_NAME", "document_chunks"),
			EmbeddingDim:   getEnvInt("EMBEDDING_DIM", 1536),
			HNSWM:          getEnvInt("HNSW_M", 4),
			EfConstruction: getEnvInt("HNSW_EF_CONSTRUCTION", 400),
			EfSearch:       getEnvInt("HNSW_EF_SEARCH", 500),
		},
		Download: DownloadConfig{
			TokenSecret:   getSecret("DOWNLOAD_TOKEN_SECRET", "DOWNLOAD_TOKEN_SECRET_FILE", "dev-only-secret"),
			TokenIssuer:   getEnv("DOWNLOAD_TOKEN_ISSUER", "docqa"),
			MaxTTLMinutes: getEnvInt("DOWNLOAD_TOKEN_MAX_TTL_MINUTES", 60),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvWithAlt(key, altKey, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if value, ok := os.LookupEnv(altKey); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		var items []string
		for _, item := range strings.Split(value, ",") {
			item = strings.TrimSpace(item)
			if item != "" {
				items = append(items, item)
			}
		}
		if len(items) > 0 {
			return items
		}
	}
	return fallback
}
