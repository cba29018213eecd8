package stockdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Go-Pr0/stock-analyze-backend/config"
	"github.com/Go-Pr0/stock-analyze-backend/internal/research"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

const quoteModules = "price,summaryDetail,assetProfile,financialData,defaultKeyStatistics"

// Client fetches company overview and financial data from the quote summary
// API and shapes it into the fixed record the pipeline consumes.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a company-data lookup client.
func NewClient(cfg config.StockDataConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// rawValue is the {raw, fmt} pair the quote API wraps numbers in.
type rawValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				LongName                   string   `json:"longName"`
				ShortName                  string   `json:"shortName"`
				RegularMarketPrice         rawValue `json:"regularMarketPrice"`
				RegularMarketChangePercent rawValue `json:"regularMarketChangePercent"`
				MarketCap                  rawValue `json:"marketCap"`
			} `json:"price"`
			AssetProfile struct {
				Sector string `json:"sector"`
			} `json:"assetProfile"`
			FinancialData struct {
				TotalRevenue rawValue `json:"totalRevenue"`
				CurrentPrice rawValue `json:"currentPrice"`
			} `json:"financialData"`
			DefaultKeyStatistics struct {
				TrailingEps       rawValue `json:"trailingEps"`
				NetIncomeToCommon rawValue `json:"netIncomeToCommon"`
			} `json:"defaultKeyStatistics"`
			SummaryDetail struct {
				TrailingPE rawValue `json:"trailingPE"`
			} `json:"summaryDetail"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// Lookup fetches the quote summary for ticker. The returned record is always
// fully populated; unavailable values carry "N/A" placeholders.
func (c *Client) Lookup(ctx context.Context, ticker string) (research.CompanySummary, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if symbol == "" {
		return research.CompanySummary{}, fmt.Errorf("empty ticker")
	}

	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s", c.baseURL, symbol, quoteModules)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return research.CompanySummary{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "stock-analyze-backend/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return research.CompanySummary{}, fmt.Errorf("quote summary request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return research.CompanySummary{}, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return research.CompanySummary{}, fmt.Errorf("quote summary API returned status %d", resp.StatusCode)
	}

	var parsed quoteSummaryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return research.CompanySummary{}, fmt.Errorf("parsing response: %w", err)
	}
	if parsed.QuoteSummary.Error != nil {
		return research.CompanySummary{}, fmt.Errorf("quote summary error for %s: %s", symbol, parsed.QuoteSummary.Error.Description)
	}
	if len(parsed.QuoteSummary.Result) == 0 {
		return research.CompanySummary{}, fmt.Errorf("no quote summary result for %s", symbol)
	}

	r := parsed.QuoteSummary.Result[0]
	now := time.Now().UTC()

	name := r.Price.LongName
	if name == "" {
		name = "N/A"
	}
	shortName := r.Price.ShortName
	if shortName == "" {
		shortName = symbol
	}
	sector := r.AssetProfile.Sector
	if sector == "" {
		sector = "N/A"
	}
	price := r.FinancialData.CurrentPrice
	if price.Raw == nil {
		price = r.Price.RegularMarketPrice
	}

	return research.CompanySummary{
		ID:          fmt.Sprintf("%d", now.UnixMilli()),
		CompanyName: fmt.Sprintf("Analyze the growth potential for %s", shortName),
		Timestamp:   research.FormatTimestamp(now),
		Overview: research.CompanyOverview{
			Name:      name,
			Ticker:    symbol,
			Sector:    sector,
			MarketCap: formatBillions(r.Price.MarketCap),
			Price:     formatDollars(price),
			Change:    formatPercent(r.Price.RegularMarketChangePercent),
		},
		Financials: research.Financials{
			Revenue:   formatBillions(r.FinancialData.TotalRevenue),
			NetIncome: formatBillions(r.DefaultKeyStatistics.NetIncomeToCommon),
			EPS:       formatDollars(r.DefaultKeyStatistics.TrailingEps),
			PERatio:   formatRatio(r.SummaryDetail.TrailingPE),
		},
	}, nil
}

func formatBillions(v rawValue) string {
	if v.Raw == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.1fB", *v.Raw/1e9)
}

func formatDollars(v rawValue) string {
	if v.Raw == nil {
		return "$0.00"
	}
	return fmt.Sprintf("$%.2f", *v.Raw)
}

func formatPercent(v rawValue) string {
	if v.Raw == nil {
		return "+0.00%"
	}
	return fmt.Sprintf("%+.2f%%", *v.Raw)
}

func formatRatio(v rawValue) string {
	if v.Raw == nil {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", *v.Raw)
}
