package research

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Go-Pr0/stock-analyze-backend/config"
	"github.com/Go-Pr0/stock-analyze-backend/internal/telemetry"
)

// Orchestrator composes the research pipeline: company-data lookup, the
// narrative path (plan -> analyze -> synthesize) and the competitive path,
// the two paths running concurrently. Every internal failure is absorbed
// into a degraded-but-complete report; Run never returns an error.
type Orchestrator struct {
	cfg       *config.Config
	logger    *log.Logger
	telemetry *telemetry.Telemetry

	planner     *BranchPlanner
	analyzer    *BranchAnalyzer
	synthesizer *ReportSynthesizer
	discovery   *CompetitiveDiscovery
	companyData CompanyDataProvider
}

// NewOrchestrator wires the pipeline components around the two external
// capabilities.
func NewOrchestrator(cfg *config.Config, provider CompletionProvider, companyData CompanyDataProvider, tele *telemetry.Telemetry) *Orchestrator {
	completion := NewGroundedCompletion(provider, tele)
	return &Orchestrator{
		cfg:         cfg,
		logger:      log.New(log.Writer(), "[ORCH] ", log.LstdFlags),
		telemetry:   tele,
		planner:     NewBranchPlanner(cfg, completion, tele),
		analyzer:    NewBranchAnalyzer(cfg, completion, tele),
		synthesizer: NewReportSynthesizer(cfg, completion, tele),
		discovery:   NewCompetitiveDiscovery(cfg, completion, companyData, tele),
		companyData: companyData,
	}
}

// Run executes the full pipeline for topic and ticker and always returns a
// structurally complete report.
func (o *Orchestrator) Run(ctx context.Context, topic, ticker string) ResearchReport {
	start := time.Now()
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	degraded := false

	// Step 1: real company data, if a ticker was supplied. Failure is not fatal.
	var summary *CompanySummary
	if ticker != "" {
		if s, err := o.companyData.Lookup(ctx, ticker); err != nil {
			o.logger.Printf("could not fetch company data for %s: %v", ticker, err)
		} else {
			summary = &s
		}
	}

	companyName := displayName(topic, summary, ticker)

	// Step 2: narrative and competitive paths, joined before assembly.
	var (
		wg          sync.WaitGroup
		analysis    string
		narrativeOK bool
		competitive CompetitiveAnalysis
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		analysis, narrativeOK = o.narrative(ctx, companyName)
	}()
	if ticker != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			competitive = o.discovery.Discover(ctx, ticker)
		}()
	}
	wg.Wait()

	if !narrativeOK {
		degraded = true
		o.telemetry.RecordDegradation("narrative")
	}

	// Step 3: assemble. Competitive block only when at least one record exists.
	var compBlock *CompetitiveAnalysis
	if len(competitive.GlobalCompetitors) > 0 || len(competitive.NationalCompetitors) > 0 {
		c := competitive
		compBlock = &c
	} else if ticker != "" {
		o.telemetry.RecordDegradation("competitive")
	}

	var report ResearchReport
	if summary != nil {
		report = ResearchReport{
			ID:          summary.ID,
			CompanyName: summary.CompanyName,
			Timestamp:   summary.Timestamp,
			Data: ReportData{
				Overview:    summary.Overview,
				Financials:  summary.Financials,
				Analysis:    analysis,
				Competitive: compBlock,
			},
		}
	} else {
		degraded = true
		o.telemetry.RecordDegradation("overview")
		report = mockReport(companyName, analysis, compBlock)
	}

	o.telemetry.RecordPipeline(time.Since(start), degraded)
	o.logger.Printf("report %s assembled for %q (%s) in %v", report.ID, companyName, ticker, time.Since(start))
	return report
}

// RunMock produces a report with real company data but a canned narrative.
// Only the AI stage is simulated; competitor discovery still runs.
func (o *Orchestrator) RunMock(ctx context.Context, topic, ticker string) ResearchReport {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	var summary *CompanySummary
	if ticker != "" {
		if s, err := o.companyData.Lookup(ctx, ticker); err != nil {
			o.logger.Printf("could not fetch company data for %s: %v", ticker, err)
		} else {
			summary = &s
		}
	}

	companyName := displayName(topic, summary, ticker)
	analysis := mockAnalysisText(companyName, ticker)

	var compBlock *CompetitiveAnalysis
	if ticker != "" {
		competitive := o.discovery.Discover(ctx, ticker)
		if len(competitive.GlobalCompetitors) > 0 || len(competitive.NationalCompetitors) > 0 {
			compBlock = &competitive
		}
	}

	if summary != nil {
		return ResearchReport{
			ID:          summary.ID,
			CompanyName: summary.CompanyName,
			Timestamp:   summary.Timestamp,
			Data: ReportData{
				Overview:    summary.Overview,
				Financials:  summary.Financials,
				Analysis:    analysis,
				Competitive: compBlock,
			},
		}
	}
	return mockReport(companyName, analysis, compBlock)
}

// displayName picks the company name for the report: topic, then the looked-up
// name, then the ticker. All three may be empty; the report still needs a
// non-empty name, so the last resort is a fixed placeholder.
func displayName(topic string, summary *CompanySummary, ticker string) string {
	if topic != "" {
		return topic
	}
	if summary != nil && summary.Overview.Name != "" {
		return summary.Overview.Name
	}
	if ticker != "" {
		return ticker
	}
	return "Unknown Company"
}

// narrative runs plan -> analyze -> synthesize. Any shortfall along the way
// degrades to an explicit placeholder message instead of an error; the
// boolean reports whether a real synthesis was produced.
func (o *Orchestrator) narrative(ctx context.Context, companyName string) (string, bool) {
	branches := o.planner.Plan(ctx, companyName)
	if len(branches) == 0 {
		return fmt.Sprintf("Unable to generate detailed analysis for %s at this time.", companyName), false
	}
	o.logger.Printf("generated %d research branches for %q", len(branches), companyName)

	findings := o.analyzer.AnalyzeAll(ctx, branches)
	if len(findings) == 0 {
		return fmt.Sprintf("Research completed for %s, but no specific findings were collected.", companyName), false
	}
	o.logger.Printf("collected %d findings for %q", len(findings), companyName)

	analysis, err := o.synthesizer.Synthesize(ctx, companyName, findings)
	if err != nil {
		o.logger.Printf("synthesis failed for %q: %v", companyName, err)
		return fmt.Sprintf("AI analysis for %s is temporarily unavailable due to technical issues.", companyName), false
	}
	return analysis, true
}
