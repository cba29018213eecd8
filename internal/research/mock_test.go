package research

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestMockReportKnownProfile(t *testing.T) {
	report := mockReport("Apple", "analysis", nil)
	if report.Data.Overview.Ticker != "AAPL" {
		t.Fatalf("ticker = %q, want AAPL", report.Data.Overview.Ticker)
	}
	if report.Data.Overview.Name != "Apple" {
		t.Fatalf("name = %q", report.Data.Overview.Name)
	}
	if report.Data.Financials.EPS != "$6.16" {
		t.Fatalf("eps = %q", report.Data.Financials.EPS)
	}
}

func TestMockReportDerivedTicker(t *testing.T) {
	report := mockReport("Contoso", "analysis", nil)
	if report.Data.Overview.Ticker != "CONT" {
		t.Fatalf("ticker = %q, want CONT", report.Data.Overview.Ticker)
	}

	short := mockReport("Al", "analysis", nil)
	if short.Data.Overview.Ticker != "UNKN" {
		t.Fatalf("ticker = %q, want UNKN for short name", short.Data.Overview.Ticker)
	}
}

func TestMockReportMultibyteName(t *testing.T) {
	report := mockReport("日本電産株式会社", "analysis", nil)
	ticker := report.Data.Overview.Ticker
	if !utf8.ValidString(ticker) {
		t.Fatalf("ticker is not valid UTF-8: %q", ticker)
	}
	if strings.ContainsRune(ticker, utf8.RuneError) {
		t.Fatalf("ticker contains replacement characters: %q", ticker)
	}
	if got := []rune(ticker); len(got) != 4 {
		t.Fatalf("ticker = %q, want first 4 characters", ticker)
	}
	if ticker != "日本電産" {
		t.Fatalf("ticker = %q, want 日本電産", ticker)
	}
}
