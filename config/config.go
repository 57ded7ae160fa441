package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Score normalization policies accepted by SCORE_NORMALIZATION.
const (
	NormalizeMinMax  = "minmax"
	NormalizeTopMean = "topmean"
)

// Config holds the application's configuration
type Config struct {
	// Fusion and ranking
	Alpha                   float64 `mapstructure:"ALPHA"`
	ScoreNormalization      string  `mapstructure:"SCORE_NORMALIZATION"`
	TopMeanN                int     `mapstructure:"TOP_MEAN_N"`
	RelevanceFloor          float64 `mapstructure:"RELEVANCE_FLOOR"`
	LiteralMatchBoost       float64 `mapstructure:"LITERAL_MATCH_BOOST"`
	ZeroOverlapPenalty      float64 `mapstructure:"ZERO_OVERLAP_PENALTY"`
	SemanticCandidates      int     `mapstructure:"SEMANTIC_CANDIDATES"`
	SemanticSimilarityFloor float64 `mapstructure:"SEMANTIC_SIMILARITY_FLOOR"`

	// Embeddings
	EmbeddingLLMHost    string        `mapstructure:"EMBEDDING_LLM_HOST"`
	EmbeddingModel      string        `mapstructure:"EMBEDDING_MODEL"`
	EmbedCacheSize      int           `mapstructure:"EMBED_CACHE_SIZE"`
	EmbedRequestTimeout time.Duration `mapstructure:"EMBED_REQUEST_TIMEOUT"`
	MaxRetries          int           `mapstructure:"MAX_RETRIES"`
	RetryDelaySeconds   time.Duration `mapstructure:"RETRY_DELAY_SECONDS"`

	// Excerpts and highlighting
	ExcerptLength             int     `mapstructure:"EXCERPT_LENGTH"`
	SemanticHighlightEnabled  bool    `mapstructure:"SEMANTIC_HIGHLIGHT_ENABLED"`
	SemanticHighlightFloor    float64 `mapstructure:"SEMANTIC_HIGHLIGHT_FLOOR"`
	SemanticHighlightMaxWords int     `mapstructure:"SEMANTIC_HIGHLIGHT_MAX_WORDS"`

	// Segmentation
	MinChunkChars    int `mapstructure:"MIN_CHUNK_CHARS"`
	ChunkTargetWords int `mapstructure:"CHUNK_TARGET_WORDS"`
	MinTokenLength   int `mapstructure:"MIN_TOKEN_LENGTH"`

	// Paths and serving
	IndexDir  string `mapstructure:"INDEX_DIR"`
	CorpusDir string `mapstructure:"CORPUS_DIR"`
	WebPort   int    `mapstructure:"WEB_PORT"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
}

func Load(logger *zap.Logger) *Config {
	var config Config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")        // For running locally
	viper.AddConfigPath("../")      // For running from docker subdir
	viper.AddConfigPath("./config") // Common config folder
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("ALPHA", 0.45)
	viper.SetDefault("SCORE_NORMALIZATION", NormalizeMinMax)
	viper.SetDefault("TOP_MEAN_N", 5)
	viper.SetDefault("RELEVANCE_FLOOR", 0.05)
	viper.SetDefault("LITERAL_MATCH_BOOST", 0.25)
	viper.SetDefault("ZERO_OVERLAP_PENALTY", 0.2)
	viper.SetDefault("SEMANTIC_CANDIDATES", 50)
	viper.SetDefault("SEMANTIC_SIMILARITY_FLOOR", 0.35)
	viper.SetDefault("EMBEDDING_LLM_HOST", "http://localhost:8081")
	viper.SetDefault("EMBEDDING_MODEL", "all-MiniLM-L6-v2")
	viper.SetDefault("EMBED_CACHE_SIZE", 512)
	viper.SetDefault("EMBED_REQUEST_TIMEOUT", 120)
	viper.SetDefault("MAX_RETRIES", 5)
	viper.SetDefault("RETRY_DELAY_SECONDS", 2)
	viper.SetDefault("EXCERPT_LENGTH", 600)
	viper.SetDefault("SEMANTIC_HIGHLIGHT_ENABLED", false)
	viper.SetDefault("SEMANTIC_HIGHLIGHT_FLOOR", 0.4)
	viper.SetDefault("SEMANTIC_HIGHLIGHT_MAX_WORDS", 8)
	viper.SetDefault("MIN_CHUNK_CHARS", 300)
	viper.SetDefault("CHUNK_TARGET_WORDS", 400)
	viper.SetDefault("MIN_TOKEN_LENGTH", 3)
	viper.SetDefault("INDEX_DIR", "data/idx")
	viper.SetDefault("CORPUS_DIR", "data/raw_pdfs")
	viper.SetDefault("WEB_PORT", 8089)
	viper.SetDefault("LOG_LEVEL", "info")

	if err := viper.ReadInConfig(); err != nil {
		if logger != nil {
			logger.Warn("Could not read config file, using defaults/env vars", zap.Error(err))
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		// Config unmarshaling is critical - fail fast during bootstrap
		if logger != nil {
			logger.Fatal("Unable to decode config into struct", zap.Error(err))
		} else {
			// Fallback if logger not available (should not happen in practice)
			fmt.Fprintf(os.Stderr, "FATAL: Unable to decode config into struct: %v\n", err)
			os.Exit(1)
		}
	}

	// Clamp the fusion weight and normalization policy to valid values.
	if config.Alpha < 0 {
		config.Alpha = 0
	}
	if config.Alpha > 1 {
		config.Alpha = 1
	}
	switch strings.ToLower(config.ScoreNormalization) {
	case NormalizeMinMax, NormalizeTopMean:
		config.ScoreNormalization = strings.ToLower(config.ScoreNormalization)
	default:
		if logger != nil {
			logger.Warn("Unknown score normalization policy, using minmax",
				zap.String("policy", config.ScoreNormalization))
		}
		config.ScoreNormalization = NormalizeMinMax
	}

	// Convert seconds to proper time.Duration
	config.RetryDelaySeconds = config.RetryDelaySeconds * time.Second
	config.EmbedRequestTimeout = config.EmbedRequestTimeout * time.Second

	return &config
}
