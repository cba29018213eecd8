package research

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/Go-Pr0/stock-analyze-backend/config"
	"github.com/Go-Pr0/stock-analyze-backend/internal/telemetry"
)

// ReportSynthesizer reduces the pooled findings into one narrative. This is
// the single pipeline stage allowed to fail; the orchestrator catches it.
type ReportSynthesizer struct {
	cfg        *config.Config
	completion *GroundedCompletion
	telemetry  *telemetry.Telemetry
	logger     *log.Logger
}

// NewReportSynthesizer creates a new synthesizer instance.
func NewReportSynthesizer(cfg *config.Config, completion *GroundedCompletion, tele *telemetry.Telemetry) *ReportSynthesizer {
	return &ReportSynthesizer{
		cfg:        cfg,
		completion: completion,
		telemetry:  tele,
		logger:     log.New(log.Writer(), "[SYNTH] ", log.LstdFlags),
	}
}

// Synthesize produces the final narrative from topic and findings. The call
// is not grounded; the model only restructures what was already collected.
func (s *ReportSynthesizer) Synthesize(ctx context.Context, topic string, findings []string) (string, error) {
	prompt := synthesisPrompt(topic, findings)

	response, err := s.completion.Complete(ctx, prompt, s.cfg.LLM.Routing.Synthesis, nil)
	if err != nil {
		return "", fmt.Errorf("synthesis completion failed: %w", err)
	}

	doc, ok := ExtractStructured(response, "full_report")
	if !ok {
		s.telemetry.RecordExtractionFailure()
		return "", fmt.Errorf("synthesis response contained no structured report")
	}
	raw, ok := doc["full_report"]
	if !ok {
		return "", fmt.Errorf("synthesis response missing full_report field")
	}
	var report string
	if err := json.Unmarshal(raw, &report); err != nil {
		return "", fmt.Errorf("decoding full_report: %w", err)
	}
	if report == "" {
		return "", fmt.Errorf("synthesis produced an empty report")
	}
	return report, nil
}
