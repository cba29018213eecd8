package research

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// mockProfiles holds deterministic placeholder data for well-known names.
// Used when the company-data lookup produced nothing; the report must still
// be structurally complete.
var mockProfiles = map[string]struct {
	overview   CompanyOverview
	financials Financials
}{
	"Apple": {
		overview:   CompanyOverview{Ticker: "AAPL", Sector: "Technology", MarketCap: "$2.8T", Price: "$185.92", Change: "+1.24%"},
		financials: Financials{Revenue: "$394.3B", NetIncome: "$99.8B", EPS: "$6.16", PERatio: "30.2"},
	},
	"Microsoft": {
		overview:   CompanyOverview{Ticker: "MSFT", Sector: "Technology", MarketCap: "$2.4T", Price: "$338.11", Change: "+0.87%"},
		financials: Financials{Revenue: "$211.9B", NetIncome: "$72.4B", EPS: "$9.65", PERatio: "35.0"},
	},
	"Tesla": {
		overview:   CompanyOverview{Ticker: "TSLA", Sector: "Automotive", MarketCap: "$800B", Price: "$248.50", Change: "-2.15%"},
		financials: Financials{Revenue: "$96.8B", NetIncome: "$15.0B", EPS: "$4.73", PERatio: "52.5"},
	},
}

// mockReport builds a fully populated placeholder report for companyName.
func mockReport(companyName, analysis string, competitive *CompetitiveAnalysis) ResearchReport {
	now := time.Now().UTC()

	profile, ok := mockProfiles[companyName]
	if !ok {
		ticker := "UNKN"
		if runes := []rune(companyName); len(runes) >= 4 {
			ticker = strings.ToUpper(string(runes[:4]))
		}
		profile.overview = CompanyOverview{Ticker: ticker, Sector: "Technology", MarketCap: "$1.2T", Price: "$150.00", Change: "+1.50%"}
		profile.financials = Financials{Revenue: "$200.0B", NetIncome: "$50.0B", EPS: "$5.00", PERatio: "30.0"}
	}
	profile.overview.Name = companyName

	return ResearchReport{
		ID:          uuid.New().String(),
		CompanyName: companyName,
		Timestamp:   FormatTimestamp(now),
		Data: ReportData{
			Overview:    profile.overview,
			Financials:  profile.financials,
			Analysis:    analysis,
			Competitive: competitive,
		},
	}
}

// mockAnalysisText is the canned narrative used by the mock-AI mode, where
// only the AI stage is simulated and company data stays real.
func mockAnalysisText(companyName, ticker string) string {
	return `## Executive Summary (Mock Analysis)

This is a mock AI analysis for **` + companyName + `**. The financial data below is real, but this text is a placeholder for development and testing purposes.

### Key Findings (Mock):
* **Market Position:** The company is presented as a leader in its sector for testing.
* **Financial Health:** Real-time financial data is included below.
* **Future Outlook:** This section is a mock-up and does not represent a real forecast.

This report for **` + ticker + `** was generated using real-time financial data combined with a simulated AI analysis to facilitate testing.`
}
