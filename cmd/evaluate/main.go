package main

import (
	"flag"
	"fmt"
	"os"

	"fraud-scorer/internal/evaluate"
	"fraud-scorer/internal/ml"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Parse command line arguments
	var (
		dataPath   = flag.String("data", "data/transactions.csv", "Path to labelled CSV dataset")
		modelPath  = flag.String("model", "", "Path to model artifact (default: resolved like the server)")
		outputPath = flag.String("output", "reports", "Output directory for results")
		logLevel   = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	// Setup logging
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	fmt.Println("=== Evaluation Configuration ===")
	fmt.Printf("Data Path: %s\n", *dataPath)
	fmt.Printf("Model Path: %s\n", orResolved(*modelPath))
	fmt.Printf("Output Directory: %s\n", *outputPath)
	fmt.Printf("Log Level: %s\n", *logLevel)
	fmt.Println("================================")

	lifecycle := ml.NewLifecycle(ml.LifecycleConfig{ModelPath: *modelPath})
	if err := lifecycle.Load(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load model")
	}
	classifier, _ := lifecycle.Classifier()
	md, _ := lifecycle.Metadata()

	dataset, err := evaluate.LoadCSV(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load data")
	}

	engine := evaluate.NewEngine(classifier, md.Version)

	log.Info().Msg("Starting evaluation...")
	results, err := engine.Run(dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Evaluation failed")
	}

	reporter := evaluate.NewReporter(results, *outputPath)
	if err := reporter.GenerateReport(); err != nil {
		log.Error().Err(err).Msg("Failed to generate reports")
	}

	reporter.PrintSummary()

	log.Info().
		Str("output", *outputPath).
		Msg("Evaluation completed successfully")
}

func orResolved(path string) string {
	if path == "" {
		return "(resolved)"
	}
	return path
}
