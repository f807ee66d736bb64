package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/iwvelando/property-analyzer/internal/config"
	"github.com/iwvelando/property-analyzer/internal/logging"
	"github.com/iwvelando/property-analyzer/internal/pipeline"
	"github.com/iwvelando/property-analyzer/internal/portfolio"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/output"
	"github.com/iwvelando/property-analyzer/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	envFile := flag.String("env-file", ".env", "optional file of environment overrides")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	save := flag.Bool("save", false, "save the analyzed property to the portfolio")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load env file %s\", \"error\": \"%v\"}\n", *envFile, err)
		os.Exit(1)
	}

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	in, err := conf.PropertyInputs()
	if err != nil {
		logger.Fatal("failed to resolve property inputs",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	ctx := context.Background()

	if conf.Market.Enabled {
		provider, closeProvider := conf.MarketProvider(logger)
		in = conf.ApplyMarketRate(ctx, in, provider)
		if err := closeProvider(); err != nil {
			logger.Debug("failed to close rate cache",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}

	store, closeStore, err := portfolio.Open(conf.Portfolio.Driver, conf.Portfolio.Path)
	if err != nil {
		logger.Fatal("failed to open portfolio",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer func() {
		_ = closeStore()
	}()

	var summary *portfolio.Summary
	saved, err := store.List(ctx)
	if err != nil {
		logger.Warn("failed to load portfolio",
			zap.String("op", "main"),
			zap.Error(err),
		)
	} else if len(saved) > 0 {
		s := portfolio.Summarize(saved)
		summary = &s
	}

	report, err := pipeline.New(logger).Run(in, conf.Options(summary))
	if err != nil {
		logger.Fatal("failed to analyze property",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if *save {
		snapshot := portfolio.NewSnapshot(conf.Property.Name, report.Inputs, report.Analysis, time.Now())
		if err := store.Save(ctx, snapshot); err != nil {
			logger.Error("failed to save property",
				zap.String("op", "main"),
				zap.Error(err),
			)
		} else {
			logger.Info("saved property to portfolio",
				zap.String("op", "main"),
				zap.String("id", snapshot.ID),
			)
		}
	}

	if err := output.Write(os.Stdout, outputFormat, report); err != nil {
		logger.Fatal("failed to write report",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
