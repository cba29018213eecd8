package research

import (
	"context"
	"time"

	"github.com/Go-Pr0/stock-analyze-backend/internal/capability"
)

// FormatTimestamp renders t as the ISO-8601 UTC timestamp used on the wire.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z07:00")
}

// CompanyOverview is the identity block of a report. Field names follow the
// wire format consumed by the frontend.
type CompanyOverview struct {
	Name      string `json:"name"`
	Ticker    string `json:"ticker"`
	Sector    string `json:"sector"`
	MarketCap string `json:"marketCap"`
	Price     string `json:"price"`
	Change    string `json:"change"`
}

// Financials is the headline financial block of a report.
type Financials struct {
	Revenue   string `json:"revenue"`
	NetIncome string `json:"netIncome"`
	EPS       string `json:"eps"`
	PERatio   string `json:"peRatio"`
}

// CompetitorRecord is one enriched competitor: its ticker plus the same
// overview/financial fields as the primary company.
type CompetitorRecord struct {
	Ticker    string `json:"ticker"`
	Name      string `json:"name"`
	Sector    string `json:"sector"`
	MarketCap string `json:"marketCap"`
	Price     string `json:"price"`
	Change    string `json:"change"`
	Revenue   string `json:"revenue"`
	NetIncome string `json:"netIncome"`
	EPS       string `json:"eps"`
	PERatio   string `json:"peRatio"`
}

// CompetitiveAnalysis holds the two competitor sets. The sets are independent
// and the same ticker may appear in both.
type CompetitiveAnalysis struct {
	GlobalCompetitors   []CompetitorRecord `json:"global_competitors"`
	NationalCompetitors []CompetitorRecord `json:"national_competitors"`
}

// CompetitorTickers is the validated discovery result before enrichment.
type CompetitorTickers struct {
	Global   []string `json:"global_competitors"`
	National []string `json:"national_competitors"`
}

// ReportData nests the report payload.
type ReportData struct {
	Overview    CompanyOverview      `json:"overview"`
	Financials  Financials           `json:"financials"`
	Analysis    string               `json:"analysis"`
	Competitive *CompetitiveAnalysis `json:"competitive,omitempty"`
}

// ResearchReport is the terminal artifact of a pipeline run. Overview,
// financials and analysis are always populated; when real data is
// unavailable they carry placeholder values instead of being absent.
type ResearchReport struct {
	ID          string     `json:"id"`
	CompanyName string     `json:"companyName"`
	Timestamp   string     `json:"timestamp"`
	Data        ReportData `json:"data"`
}

// CompanySummary is the fixed record shape produced by the company-data
// lookup capability.
type CompanySummary struct {
	ID          string          `json:"id"`
	CompanyName string          `json:"companyName"`
	Timestamp   string          `json:"timestamp"`
	Overview    CompanyOverview `json:"overview"`
	Financials  Financials      `json:"financials"`
}

// CompletionProvider is the AI text-completion capability. A non-empty mode
// attaches the corresponding grounding tool; providers report unavailable
// modes with capability.Error{Kind: Unsupported}.
type CompletionProvider interface {
	Generate(ctx context.Context, prompt, model string, mode capability.GroundingMode) (string, error)
}

// CompanyDataProvider is the company-data lookup capability.
type CompanyDataProvider interface {
	Lookup(ctx context.Context, ticker string) (CompanySummary, error)
}

// ReportSink persists a finished report for an owner. The orchestrator never
// persists; the API layer calls the sink at most once per run.
type ReportSink interface {
	SaveReport(ctx context.Context, report ResearchReport, ownerID string) error
}
