package cmd

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"calore-bot/internal/chat"
	"calore-bot/internal/config"
	"calore-bot/internal/foodterms"
	"calore-bot/internal/llm"
	"calore-bot/internal/nutrition"

	"github.com/joho/godotenv"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

// SetupLogFile tees the standard logger, which slog writes through, into
// dir/name. It returns a nil file when dir is empty.
func SetupLogFile(dir, name string, console io.Writer) (*os.File, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("error creating directory for log file: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, name), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}

	log.SetOutput(io.MultiWriter(f, console))
	return f, nil
}

type ChatComponents struct {
	Table        *foodterms.Table
	Retriever    *nutrition.Retriever
	Generator    llm.Generator
	Orchestrator *chat.Orchestrator
}

func NewChatComponents(cfg *config.Config) ChatComponents {
	table := foodterms.Default()
	if cfg.FoodTermsPath != "" {
		var err error
		table, err = foodterms.LoadFile(cfg.FoodTermsPath)
		if err != nil {
			log.Fatalf("Failed to load food terms: %v", err)
		}
		slog.Info("loaded food terms", "path", cfg.FoodTermsPath)
	}

	retriever := nutrition.NewRetriever(nutrition.NewFDCClient(cfg.FDC()))

	generator, err := llm.NewGenerator(cfg.LLMProvider, cfg.LLM())
	if err != nil {
		log.Fatalf("Failed to create llm generator: %v", err)
	}

	return ChatComponents{
		Table:        table,
		Retriever:    retriever,
		Generator:    generator,
		Orchestrator: chat.NewOrchestrator(table, retriever, generator, cfg.DefaultLanguage),
	}
}
