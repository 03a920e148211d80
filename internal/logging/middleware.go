package logging

import (
	"time"

	"go.uber.org/zap"
)

// BatchRunLogger wraps a patient orchestrator batch run the way the
// teacher's HTTPLoggingMiddleware wraps an HTTP request: one start line
// and one completion line per unit of work, carrying a run ID so every
// patient's log lines in a single batch invocation can be correlated.
type BatchRunLogger struct {
	logger *zap.Logger
	runID  string
}

// NewBatchRunLogger returns a BatchRunLogger for a single batch invocation,
// identified by runID.
func NewBatchRunLogger(runID string) *BatchRunLogger {
	logger := GetLogger()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchRunLogger{logger: logger.With(WithComponent("orchestrator"), WithRunID(runID)), runID: runID}
}

// StartPatient logs the beginning of one patient's run and returns a
// function to call with the outcome once that run completes.
func (b *BatchRunLogger) StartPatient(patientID string) func(err error) {
	start := time.Now()
	b.logger.Info("patient run started", WithPatientID(patientID))

	return func(err error) {
		latency := time.Since(start)
		fields := []zap.Field{WithPatientID(patientID), WithLatency(latency)}
		if err != nil {
			fields = append(fields, WithError(err))
			b.logger.Error("patient run failed", fields...)
			return
		}
		b.logger.Info("patient run completed", fields...)
	}
}

// Summary logs the outcome of the whole batch: total patients, failures,
// and wall-clock duration.
func (b *BatchRunLogger) Summary(total, failed int, elapsed time.Duration) {
	b.logger.Info("batch run completed",
		zap.Int("total_patients", total),
		zap.Int("failed_patients", failed),
		WithLatency(elapsed),
	)
}

// WithRunID adds a batch run identifier as a structured field.
func WithRunID(runID string) zap.Field {
	return zap.String("run_id", runID)
}

// WithPatientID adds a patient identifier as a structured field.
func WithPatientID(patientID string) zap.Field {
	return zap.String("patient_id", patientID)
}

// WithMeasure adds a HEDIS measure code as a structured field.
func WithMeasure(measure string) zap.Field {
	return zap.String("measure", measure)
}
