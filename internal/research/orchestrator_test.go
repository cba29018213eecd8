package research

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Go-Pr0/stock-analyze-backend/internal/capability"
)

// pipelineProvider routes on the prompt's role header so one stub can serve
// every pipeline stage.
type pipelineProvider struct {
	planResponse       string
	analyzeResponse    string
	synthesisResponse  string
	competitorResponse string
	err                error
}

func (p *pipelineProvider) Generate(ctx context.Context, prompt, model string, mode capability.GroundingMode) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	switch {
	case strings.Contains(prompt, "strategic research planner"):
		return p.planResponse, nil
	case strings.Contains(prompt, "focused research agent"):
		return p.analyzeResponse, nil
	case strings.Contains(prompt, "senior research analyst"):
		return p.synthesisResponse, nil
	case strings.Contains(prompt, "direct competitors"):
		return p.competitorResponse, nil
	}
	return "", errors.New("unrecognized prompt")
}

func newTestOrchestrator(provider CompletionProvider, data CompanyDataProvider) *Orchestrator {
	return NewOrchestrator(testConfig(), provider, data, testTelemetry())
}

func happyProvider() *pipelineProvider {
	return &pipelineProvider{
		planResponse:       "```json\n{\"branches\": [\"What drives current revenue growth?\", \"How does the regulatory outlook develop?\"]}\n```",
		analyzeResponse:    findingsEnvelope("fact one (2025-01-01)", "fact two (2025-02-01)"),
		synthesisResponse:  `{"full_report": "## Report\nA coherent narrative."}`,
		competitorResponse: "```json\n{\"global_competitors\": [\"MSFT\"], \"national_competitors\": []}\n```",
	}
}

func TestRunEndToEnd(t *testing.T) {
	data := &stubCompanyData{summaries: map[string]CompanySummary{
		"AAPL": {
			ID:          "rpt-1",
			CompanyName: "Analyze the growth potential for Apple Inc.",
			Timestamp:   "2026-01-01T00:00:00.000000Z",
			Overview:    CompanyOverview{Name: "Apple Inc.", Ticker: "AAPL", Sector: "Technology", MarketCap: "$2.8T", Price: "$185.92", Change: "+1.24%"},
			Financials:  Financials{Revenue: "$394.3B", NetIncome: "$99.8B", EPS: "$6.16", PERatio: "30.2"},
		},
		"MSFT": summaryFor("MSFT", "Microsoft Corporation"),
	}}
	o := newTestOrchestrator(happyProvider(), data)

	report := o.Run(context.Background(), "Apple", "AAPL")
	if report.Data.Overview.Ticker != "AAPL" {
		t.Fatalf("expected primary ticker AAPL, got %q", report.Data.Overview.Ticker)
	}
	if !strings.Contains(report.Data.Analysis, "A coherent narrative") {
		t.Fatalf("unexpected analysis: %q", report.Data.Analysis)
	}
	if report.Data.Competitive == nil {
		t.Fatalf("expected competitive block")
	}
	if got := report.Data.Competitive.GlobalCompetitors; len(got) != 1 || got[0].Ticker != "MSFT" {
		t.Fatalf("expected one global competitor MSFT, got %v", got)
	}
	if len(report.Data.Competitive.NationalCompetitors) != 0 {
		t.Fatalf("expected national set empty, got %v", report.Data.Competitive.NationalCompetitors)
	}
}

func TestRunNeverFailsWhenAllCompletionsFail(t *testing.T) {
	provider := &pipelineProvider{err: capability.Transient(capability.GroundingGoogleSearch, errors.New("service down"))}
	data := &stubCompanyData{errs: map[string]error{"AAPL": errors.New("lookup down")}}
	o := newTestOrchestrator(provider, data)

	report := o.Run(context.Background(), "Apple", "AAPL")
	if report.ID == "" || report.Timestamp == "" {
		t.Fatalf("report identity incomplete: %+v", report)
	}
	if report.Data.Overview.Name == "" || report.Data.Financials.Revenue == "" {
		t.Fatalf("placeholder data missing: %+v", report.Data)
	}
	if !strings.Contains(report.Data.Analysis, "Unable to generate") {
		t.Fatalf("expected unavailable narrative, got %q", report.Data.Analysis)
	}
	if report.Data.Competitive != nil {
		t.Fatalf("expected competitive block absent")
	}
}

func TestRunCompetitiveAbsentWhenAllLookupsFail(t *testing.T) {
	provider := happyProvider()
	provider.competitorResponse = "```json\n{\"global_competitors\": [\"AAA\", \"BBB\", \"CCC\"], \"national_competitors\": []}\n```"
	data := &stubCompanyData{
		summaries: map[string]CompanySummary{"AAPL": summaryFor("AAPL", "Apple Inc.")},
		errs: map[string]error{
			"AAA": errors.New("fail"), "BBB": errors.New("fail"), "CCC": errors.New("fail"),
		},
	}
	o := newTestOrchestrator(provider, data)

	report := o.Run(context.Background(), "Apple", "AAPL")
	if report.Data.Competitive != nil {
		t.Fatalf("expected competitive absent when no lookup succeeds, got %+v", report.Data.Competitive)
	}
}

func TestRunWithoutTicker(t *testing.T) {
	o := newTestOrchestrator(happyProvider(), &stubCompanyData{})

	report := o.Run(context.Background(), "Apple", "")
	if report.Data.Overview.Ticker != "AAPL" {
		t.Fatalf("expected mock AAPL profile, got %+v", report.Data.Overview)
	}
	if report.Data.Competitive != nil {
		t.Fatalf("competitive path must not run without a ticker")
	}
	if !strings.Contains(report.Data.Analysis, "A coherent narrative") {
		t.Fatalf("narrative path should still run: %q", report.Data.Analysis)
	}
}

func TestRunMandatoryFieldsAlwaysPopulated(t *testing.T) {
	providers := []*pipelineProvider{
		happyProvider(),
		{err: errors.New("total outage")},
		{planResponse: "nothing structured"},
	}
	for _, p := range providers {
		o := newTestOrchestrator(p, &stubCompanyData{})
		report := o.Run(context.Background(), "SomeCo", "")
		if report.Data.Overview.Name == "" || report.Data.Financials.Revenue == "" ||
			report.Data.Analysis == "" || report.Timestamp == "" {
			t.Fatalf("mandatory field empty: %+v", report)
		}
	}
}

func TestRunEmptyTopicAndTicker(t *testing.T) {
	provider := &pipelineProvider{err: errors.New("total outage")}
	o := newTestOrchestrator(provider, &stubCompanyData{})

	report := o.Run(context.Background(), "", "")
	if report.Data.Overview.Name == "" {
		t.Fatalf("overview name empty: %+v", report.Data.Overview)
	}
	if report.Data.Overview.Name != "Unknown Company" {
		t.Fatalf("expected placeholder name, got %q", report.Data.Overview.Name)
	}
	if report.ID == "" || report.Timestamp == "" || report.CompanyName == "" {
		t.Fatalf("report identity incomplete: %+v", report)
	}
	if report.Data.Financials.Revenue == "" || report.Data.Analysis == "" {
		t.Fatalf("mandatory field empty: %+v", report.Data)
	}

	mock := o.RunMock(context.Background(), "", "")
	if mock.Data.Overview.Name != "Unknown Company" {
		t.Fatalf("mock run: expected placeholder name, got %q", mock.Data.Overview.Name)
	}
}

func TestRunMockUsesCannedNarrative(t *testing.T) {
	data := &stubCompanyData{summaries: map[string]CompanySummary{
		"AAPL": summaryFor("AAPL", "Apple Inc."),
	}}
	provider := happyProvider()
	o := newTestOrchestrator(provider, data)

	report := o.RunMock(context.Background(), "Apple", "AAPL")
	if !strings.Contains(report.Data.Analysis, "Mock Analysis") {
		t.Fatalf("expected mock narrative, got %q", report.Data.Analysis)
	}
	if report.Data.Overview.Name != "Apple Inc." {
		t.Fatalf("expected real company data, got %+v", report.Data.Overview)
	}
}
