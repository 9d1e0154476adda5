package cmd

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lehmann314159/vocabtyper/internal/config"
	"github.com/lehmann314159/vocabtyper/internal/database"
	"github.com/lehmann314159/vocabtyper/internal/reading"
	"github.com/lehmann314159/vocabtyper/internal/repository"
	"github.com/lehmann314159/vocabtyper/internal/services"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "vocabtyper",
	Short:        "Typing-based vocabulary trainer for English and Japanese",
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml if present)")
}

// app bundles the dependencies shared by all subcommands
type app struct {
	cfg    *config.Config
	logger *logrus.Logger
	db     *sqlx.DB
	study  *services.StudyService
	words  *services.WordService
}

// newApp loads configuration, opens the migrated database and wires the services
func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	romanizer, err := reading.NewRomanizer()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	repo := repository.NewSQLRepository(db)
	study := services.NewStudyService(repo)
	dictionary := services.NewDictionaryService(cfg.Dictionary.BaseURL)

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		study:  study,
		words:  services.NewWordService(repo, study, dictionary, romanizer),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
