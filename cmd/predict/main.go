package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/richard-senior/podds-au/internal/app"
	"github.com/richard-senior/podds-au/internal/logger"
	"github.com/richard-senior/podds-au/internal/processor"
	"github.com/richard-senior/podds-au/pkg/util/podds"
)

func main() {
	// Parse command line flags
	debug := flag.Bool("debug", false, "Enable debug logging")
	inputFile := flag.String("input", "", "Input file path (if not provided, stdin will be used)")
	outputFile := flag.String("output", "", "Output file path (if not provided, stdout will be used)")
	homeID := flag.String("home", "", "Home team id, used instead of a request document")
	awayID := flag.String("away", "", "Away team id")
	league := flag.String("league", "", "League code ie. A-LEAGUE")
	flag.Parse()

	// stdout carries the result
	logger.SetShowDateTime(true)
	logger.SetOutput(os.Stderr)

	cfg, err := podds.LoadConfigFromEnv()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}
	if *debug {
		cfg.LogLevel = "DEBUG"
	}
	a, err := app.New(cfg)
	if err != nil {
		logger.Fatal("Failed to start", err)
	}
	defer a.Close()

	// Determine input source
	var input []byte
	switch {
	case *inputFile != "":
		input, err = os.ReadFile(*inputFile)
		if err != nil {
			logger.Fatal("Failed to read input file", err)
		}
	case *homeID != "" || *awayID != "" || *league != "":
		input, err = json.Marshal(processor.PredictRequest{
			RequestID: fmt.Sprintf("cli-%d", os.Getpid()),
			HomeID:    podds.TeamID(*homeID),
			AwayID:    podds.TeamID(*awayID),
			League:    *league,
		})
		if err != nil {
			logger.Fatal("Failed to create request from command line arguments", err)
		}
	default:
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			logger.Fatal("Failed to read from stdin", err)
		}
	}

	result, procErr := processor.ProcessRequest(context.Background(), a.Service, input)

	// Determine output destination
	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, append(result, '\n'), 0644); err != nil {
			logger.Fatal("Failed to write to output file", err)
		}
	} else {
		fmt.Println(string(result))
	}

	if procErr != nil {
		a.Close()
		os.Exit(1)
	}
}
