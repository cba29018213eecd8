package research

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/Go-Pr0/stock-analyze-backend/config"
	"github.com/Go-Pr0/stock-analyze-backend/internal/capability"
	"github.com/Go-Pr0/stock-analyze-backend/internal/telemetry"
)

// BranchPlanner turns a topic into an ordered list of research branches.
// It never fails: when the model response yields nothing usable the planner
// degrades to an empty list and the caller aborts the narrative path.
type BranchPlanner struct {
	cfg        *config.Config
	completion *GroundedCompletion
	telemetry  *telemetry.Telemetry
	logger     *log.Logger
}

// NewBranchPlanner creates a new planner instance.
func NewBranchPlanner(cfg *config.Config, completion *GroundedCompletion, tele *telemetry.Telemetry) *BranchPlanner {
	return &BranchPlanner{
		cfg:        cfg,
		completion: completion,
		telemetry:  tele,
		logger:     log.New(log.Writer(), "[PLANNER] ", log.LstdFlags),
	}
}

// branch line shapes accepted by the heuristic parser: numbered list,
// explicit "Branch N:" prefix, dash/asterisk/round bullets.
var branchLineRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\d+\.\s*(.+)`),
	regexp.MustCompile(`(?i)^Branch\s*\d+:\s*(.+)`),
	regexp.MustCompile(`^-\s*(.+)`),
	regexp.MustCompile(`^\*\s*(.+)`),
	regexp.MustCompile(`^•\s*(.+)`),
}

// Plan generates 0 to MaxBranches research branches for topic.
func (p *BranchPlanner) Plan(ctx context.Context, topic string) []string {
	prompt := branchPrompt(topic)
	modes := capability.ParseModes(p.cfg.LLM.Grounding)

	response, err := p.completion.Complete(ctx, prompt, p.cfg.LLM.Routing.Planning, modes)
	if err != nil {
		p.logger.Printf("branch generation failed for %q: %v", topic, err)
		return nil
	}

	if branches, ok := ExtractStringList(response, "branches"); ok && len(branches) > 0 {
		return p.truncate(branches)
	}
	p.telemetry.RecordExtractionFailure()

	p.logger.Printf("no structured envelope for %q, parsing branches from raw text", topic)
	branches := p.parseBranchesFromText(response)
	if len(branches) == 0 {
		p.logger.Printf("warning: could not extract any branches for %q", topic)
	}
	return p.truncate(branches)
}

// parseBranchesFromText recovers branches from free-form output. Lines
// matching a list shape are accepted once stripped of prefix and quotes when
// longer than MinBranchChars; if none match, any line longer than
// MinLooseChars containing a question mark or analyze/research is taken.
func (p *BranchPlanner) parseBranchesFromText(text string) []string {
	var branches []string
	lines := strings.Split(text, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, re := range branchLineRes {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			branch := strings.Trim(strings.TrimSpace(m[1]), `"'`)
			if len(branch) > p.minBranchChars() {
				branches = append(branches, branch)
			}
			break
		}
	}

	if len(branches) == 0 {
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if len(line) <= p.minLooseChars() {
				continue
			}
			lower := strings.ToLower(line)
			if strings.Contains(line, "?") || strings.Contains(lower, "analyze") || strings.Contains(lower, "research") {
				branches = append(branches, line)
			}
		}
	}

	return branches
}

func (p *BranchPlanner) truncate(branches []string) []string {
	max := p.cfg.Research.MaxBranches
	if max <= 0 {
		max = 15
	}
	if len(branches) > max {
		return branches[:max]
	}
	return branches
}

func (p *BranchPlanner) minBranchChars() int {
	if p.cfg.Research.MinBranchChars > 0 {
		return p.cfg.Research.MinBranchChars
	}
	return 10
}

func (p *BranchPlanner) minLooseChars() int {
	if p.cfg.Research.MinLooseChars > 0 {
		return p.cfg.Research.MinLooseChars
	}
	return 20
}
