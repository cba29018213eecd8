package research

import (
	"context"
	"log"

	"github.com/Go-Pr0/stock-analyze-backend/internal/capability"
	"github.com/Go-Pr0/stock-analyze-backend/internal/telemetry"
)

// GroundedCompletion wraps the completion provider with an explicit ordered
// fallback over grounding modes. A mode reported unsupported advances to the
// next one; after the list is exhausted a single ungrounded call is made.
// Any other failure propagates untouched: capability-support failures are
// deterministic and worth falling back from, transient ones are not assumed
// recoverable here.
type GroundedCompletion struct {
	provider  CompletionProvider
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

// NewGroundedCompletion creates a grounded completion helper.
func NewGroundedCompletion(provider CompletionProvider, tele *telemetry.Telemetry) *GroundedCompletion {
	return &GroundedCompletion{
		provider:  provider,
		telemetry: tele,
		logger:    log.New(log.Writer(), "[COMPLETION] ", log.LstdFlags),
	}
}

// Complete runs prompt against model, attempting the grounding modes in
// preference order before the final ungrounded call.
func (g *GroundedCompletion) Complete(ctx context.Context, prompt, model string, modes []capability.GroundingMode) (string, error) {
	for _, mode := range modes {
		if mode == capability.GroundingNone {
			continue
		}
		text, err := g.provider.Generate(ctx, prompt, model, mode)
		g.telemetry.RecordCompletion(string(mode), err)
		if err == nil {
			return text, nil
		}
		if capability.IsUnsupported(err) {
			g.logger.Printf("grounding mode %s unsupported for %s, trying next", mode, model)
			g.telemetry.RecordGroundingFallback(string(mode))
			continue
		}
		return "", err
	}

	text, err := g.provider.Generate(ctx, prompt, model, capability.GroundingNone)
	g.telemetry.RecordCompletion("", err)
	if err != nil {
		return "", err
	}
	return text, nil
}
