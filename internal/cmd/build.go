package cmd

import (
	"fmt"

	"github.com/omargawdat/pii-shield/internal/config"
	"github.com/omargawdat/pii-shield/internal/detector"
	"github.com/omargawdat/pii-shield/internal/llm"
	"github.com/omargawdat/pii-shield/internal/pipeline"
	"github.com/omargawdat/pii-shield/internal/validation"
)

// components is everything a command needs to process text, built once
// from the resolved configuration.
type components struct {
	cfg       *config.Config
	processor *pipeline.Processor
	validator *validation.Validator
}

func buildComponents(cfg *config.Config) (*components, error) {
	opts := []detector.Option{
		detector.WithEnabled(cfg.DetectorsEnabled...),
		detector.WithDisabled(cfg.DetectorsDisabled...),
	}
	if cfg.NEREnabled() {
		opts = append(opts, detector.WithRecognizer(detector.NewPresidioClient(cfg.NERURL), cfg.NERLanguage))
	}
	detectors, err := detector.Default(opts...)
	if err != nil {
		return nil, fmt.Errorf("building detectors: %w", err)
	}

	validator := validation.New(llm.NewClientCache(cfg.Credentials),
		validation.WithModel(cfg.LLMModel),
		validation.WithBatchSize(cfg.LLMBatchSize),
		validation.WithMaxConcurrency(cfg.LLMMaxConcurrency),
	)

	processor := pipeline.New(
		pipeline.WithDetectors(detectors...),
		pipeline.WithNormalization(cfg.Normalize),
	)
	return &components{cfg: cfg, processor: processor, validator: validator}, nil
}

func loadComponents() (*components, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return buildComponents(cfg)
}
