package research

import (
	"context"
	"log"
	"sync"

	"github.com/Go-Pr0/stock-analyze-backend/config"
	"github.com/Go-Pr0/stock-analyze-backend/internal/capability"
	"github.com/Go-Pr0/stock-analyze-backend/internal/telemetry"
)

// BranchAnalyzer fans out one analysis task per branch and pools the
// findings. Fail-soft: a failing branch is logged and contributes nothing,
// siblings run to completion. It never fails as a whole.
type BranchAnalyzer struct {
	cfg        *config.Config
	completion *GroundedCompletion
	telemetry  *telemetry.Telemetry
	logger     *log.Logger
}

// NewBranchAnalyzer creates a new analyzer instance.
func NewBranchAnalyzer(cfg *config.Config, completion *GroundedCompletion, tele *telemetry.Telemetry) *BranchAnalyzer {
	return &BranchAnalyzer{
		cfg:        cfg,
		completion: completion,
		telemetry:  tele,
		logger:     log.New(log.Writer(), "[ANALYZER] ", log.LstdFlags),
	}
}

// AnalyzeAll analyzes every branch concurrently and returns the pooled
// findings. No ordering guarantee; downstream synthesis treats the result as
// an unordered bag.
func (a *BranchAnalyzer) AnalyzeAll(ctx context.Context, branches []string) []string {
	if len(branches) == 0 {
		return nil
	}
	a.logger.Printf("analyzing %d branches in parallel", len(branches))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		findings []string
	)
	for _, branch := range branches {
		wg.Add(1)
		go func(branch string) {
			defer wg.Done()
			items, ok := a.analyzeBranch(ctx, branch)
			a.telemetry.RecordBranchAnalysis(ok)
			if !ok || len(items) == 0 {
				return
			}
			// pooled append only after the branch's own work is complete
			mu.Lock()
			findings = append(findings, items...)
			mu.Unlock()
		}(branch)
	}
	wg.Wait()

	a.logger.Printf("collected %d findings from %d branches", len(findings), len(branches))
	return findings
}

func (a *BranchAnalyzer) analyzeBranch(ctx context.Context, branch string) ([]string, bool) {
	prompt := analyzePrompt(branch)
	modes := capability.ParseModes(a.cfg.LLM.Grounding)

	response, err := a.completion.Complete(ctx, prompt, a.cfg.LLM.Routing.Analysis, modes)
	if err != nil {
		a.logger.Printf("branch %q failed: %v", branch, err)
		return nil, false
	}

	items, ok := ExtractStringList(response, "findings")
	if !ok {
		a.telemetry.RecordExtractionFailure()
		a.logger.Printf("branch %q returned no parseable findings", branch)
		return nil, false
	}
	if len(items) == 0 {
		a.logger.Printf("branch %q returned zero findings", branch)
	}
	return items, true
}
