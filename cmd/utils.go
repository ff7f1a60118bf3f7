package cmd

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"programs-assistant/internal/chat"
	"programs-assistant/internal/config"
	"programs-assistant/internal/database"
	"programs-assistant/internal/grounding"
	"programs-assistant/internal/llm"
	"programs-assistant/internal/storage"

	"github.com/joho/godotenv"
)

type StorageConfig struct {
	Storage           string `env:"STORAGE" envDefault:"local"`
	StorageRoot       string `env:"STORAGE_ROOT" envDefault:"."`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket          string `env:"S3_BUCKET" envDefault:"programs-assistant"`
	S3Prefix          string `env:"S3_PREFIX"`
}

type ProgramsConfig struct {
	DataDir      string `env:"DATA_DIR" envDefault:"data"`
	PlansDir     string `env:"PLANS_DIR" envDefault:"study_plans"`
	ProgramsFile string `env:"PROGRAMS_FILE"`
}

type AssistantConfig struct {
	LLMProvider  string `env:"LLM_PROVIDER" envDefault:"gemini"`
	GoogleAPIKey string `env:"GOOGLE_API_KEY"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	LLMModel     string `env:"LLM_MODEL"`
	LLMBaseURL   string `env:"LLM_BASE_URL"`
	DatabaseURL  string `env:"DATABASE_URL"`
	MaxSessions  int    `env:"MAX_SESSIONS" envDefault:"10000"`
}

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	if err := godotenv.Load(configPath); err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

func CreateStorage(ctx context.Context, cfg StorageConfig, createBucket bool) storage.Provider {
	switch cfg.Storage {
	case "local", "":
		slog.Info("using local storage", "root", cfg.StorageRoot)
		return storage.NewLocalProvider(cfg.StorageRoot)
	case "s3":
		s3p, err := storage.NewS3Provider(&storage.S3ProviderConfig{
			S3EndpointURL:     cfg.S3EndpointURL,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
			S3Region:          cfg.S3Region,
			Bucket:            cfg.S3Bucket,
			Prefix:            cfg.S3Prefix,
		})
		if err != nil {
			log.Fatalf("Failed to create S3 storage: %v", err)
		}
		if createBucket {
			if err := s3p.CreateBucket(ctx); err != nil {
				log.Fatalf("Failed to create bucket %s: %v", cfg.S3Bucket, err)
			}
		}
		slog.Info("using s3 storage", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
		return s3p
	default:
		log.Fatalf("Invalid storage type '%s'. Must be either 'local' or 's3'", cfg.Storage)
		return nil
	}
}

func LoadPrograms(cfg ProgramsConfig) []config.Program {
	programs, err := config.LoadPrograms(cfg.ProgramsFile, cfg.DataDir, cfg.PlansDir)
	if err != nil {
		log.Fatalf("Failed to load programs: %v", err)
	}
	return programs
}

func (cfg AssistantConfig) apiKey() string {
	if cfg.LLMProvider == llm.ProviderOpenAI {
		return cfg.OpenAIAPIKey
	}
	return cfg.GoogleAPIKey
}

// Assistant bundles everything a chat front end needs.
type Assistant struct {
	Asker       *llm.Assistant
	Sessions    *chat.SessionCache
	Transcripts *database.Recorder
}

func CreateAssistant(ctx context.Context, cfg AssistantConfig, store storage.Provider, programs []config.Program) *Assistant {
	apiKey := cfg.apiKey()
	if apiKey == "" {
		if cfg.LLMProvider == llm.ProviderOpenAI {
			log.Fatalf("OPENAI_API_KEY must be set when LLM_PROVIDER=openai")
		}
		log.Fatalf("GOOGLE_API_KEY must be set")
	}

	client, err := llm.NewClient(ctx, llm.ClientConfig{
		Provider: cfg.LLMProvider,
		APIKey:   apiKey,
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
		Config:   llm.DefaultGenerationConfig,
	})
	if err != nil {
		log.Fatalf("Failed to create llm client: %v", err)
	}

	groundingText := grounding.Build(ctx, store, config.InstructionPrompt, programs)
	slog.Info("grounding context built", "programs", len(programs), "chars", len([]rune(groundingText)))
	asker := llm.NewAssistant(client, groundingText, config.Greeting, config.FallbackReply)

	var transcripts *database.Recorder
	var recorder chat.Recorder
	if cfg.DatabaseURL != "" {
		db, err := database.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to open transcript database: %v", err)
		}
		transcripts = database.NewRecorder(db, config.FallbackReply)
		recorder = transcripts
		slog.Info("chat transcripts enabled")
	} else {
		slog.Info("DATABASE_URL not set, chat transcripts disabled")
	}

	return &Assistant{
		Asker:       asker,
		Sessions:    chat.NewSessionCache(cfg.MaxSessions, chat.MaxHistory, recorder),
		Transcripts: transcripts,
	}
}
