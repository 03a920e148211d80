package config

import (
	"fmt"
	"time"
)

// OrchestratorService exposes the orchestrator's environment and timeout
// settings behind an interface so callers do not reach into the raw
// OrchestratorConfig struct directly.
type OrchestratorService interface {
	// DispenseReadTimeout returns the per-patient dispense-fetch timeout.
	DispenseReadTimeout() time.Duration

	// ObservationWriteTimeout returns the per-observation write timeout.
	ObservationWriteTimeout() time.Duration

	// SummaryWriteTimeout returns the per-patient summary write timeout.
	SummaryWriteTimeout() time.Duration

	// BatchConcurrency returns the configured batch fan-out width.
	BatchConcurrency() int

	// IsProduction returns true if running in production environment.
	IsProduction() bool

	// IsDevelopment returns true if running in development environment.
	IsDevelopment() bool

	// IsTest returns true if running in test environment.
	IsTest() bool
}

// NewOrchestratorService creates a new orchestrator service from configuration.
func NewOrchestratorService(config *OrchestratorConfig) OrchestratorService {
	return &orchestratorService{config: config}
}

type orchestratorService struct {
	config *OrchestratorConfig
}

func (s *orchestratorService) DispenseReadTimeout() time.Duration { return s.config.DispenseReadTimeout }
func (s *orchestratorService) ObservationWriteTimeout() time.Duration {
	return s.config.ObservationWriteTimeout
}
func (s *orchestratorService) SummaryWriteTimeout() time.Duration { return s.config.SummaryWriteTimeout }
func (s *orchestratorService) BatchConcurrency() int              { return s.config.BatchConcurrency }

func (s *orchestratorService) IsProduction() bool {
	return s.config.Environment == "production"
}

func (s *orchestratorService) IsDevelopment() bool {
	return s.config.Environment == "development"
}

func (s *orchestratorService) IsTest() bool {
	return s.config.Environment == "test"
}

// GetBatchConcurrency returns the configured concurrency bound, falling
// back to a sequential default when unset.
func GetBatchConcurrency(config *OrchestratorConfig) int {
	if config.BatchConcurrency > 0 {
		return config.BatchConcurrency
	}
	return 1
}

// GetTimeoutConfig returns default timeout values per environment.
func GetTimeoutConfig(environment string) (dispenseRead, observationWrite, summaryWrite time.Duration) {
	switch environment {
	case "production":
		return 5 * time.Second, 5 * time.Second, 3 * time.Second
	case "test":
		return 1 * time.Second, 1 * time.Second, 1 * time.Second
	default: // development
		return 5 * time.Second, 5 * time.Second, 3 * time.Second
	}
}

// ValidateOrchestratorConfig validates orchestrator configuration.
func ValidateOrchestratorConfig(config *OrchestratorConfig) error {
	if config.Environment == "" {
		return fmt.Errorf("environment cannot be empty")
	}

	validEnvironments := map[string]bool{
		"development": true,
		"production":  true,
		"test":        true,
	}

	if !validEnvironments[config.Environment] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, production, test)", config.Environment)
	}

	if config.DispenseReadTimeout <= 0 {
		return fmt.Errorf("dispense read timeout must be positive")
	}

	if config.ObservationWriteTimeout <= 0 {
		return fmt.Errorf("observation write timeout must be positive")
	}

	if config.SummaryWriteTimeout <= 0 {
		return fmt.Errorf("summary write timeout must be positive")
	}

	if config.BatchConcurrency <= 0 {
		return fmt.Errorf("batch concurrency must be positive")
	}

	return nil
}
