package research

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/Go-Pr0/stock-analyze-backend/config"
	"github.com/Go-Pr0/stock-analyze-backend/internal/capability"
	"github.com/Go-Pr0/stock-analyze-backend/internal/telemetry"
)

// CompetitiveDiscovery finds peer tickers for a company and enriches each
// with company data. It never fails: every failure degrades to empty lists.
type CompetitiveDiscovery struct {
	cfg         *config.Config
	completion  *GroundedCompletion
	companyData CompanyDataProvider
	telemetry   *telemetry.Telemetry
	logger      *log.Logger
}

// NewCompetitiveDiscovery creates a new discovery instance.
func NewCompetitiveDiscovery(cfg *config.Config, completion *GroundedCompletion, companyData CompanyDataProvider, tele *telemetry.Telemetry) *CompetitiveDiscovery {
	return &CompetitiveDiscovery{
		cfg:         cfg,
		completion:  completion,
		companyData: companyData,
		telemetry:   tele,
		logger:      log.New(log.Writer(), "[COMPETITORS] ", log.LstdFlags),
	}
}

// Discover asks for global and national competitor tickers, then fans out
// company-data lookups per surviving ticker. The two sets are processed
// independently and may overlap in membership.
func (d *CompetitiveDiscovery) Discover(ctx context.Context, ticker string) CompetitiveAnalysis {
	tickers := d.discoverTickers(ctx, ticker)
	if len(tickers.Global) == 0 && len(tickers.National) == 0 {
		d.logger.Printf("no competitors found for %s", ticker)
		return CompetitiveAnalysis{}
	}
	d.logger.Printf("found %d global and %d national competitors for %s", len(tickers.Global), len(tickers.National), ticker)

	var (
		wg       sync.WaitGroup
		global   []CompetitorRecord
		national []CompetitorRecord
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		global = d.enrich(ctx, tickers.Global)
	}()
	go func() {
		defer wg.Done()
		national = d.enrich(ctx, tickers.National)
	}()
	wg.Wait()

	return CompetitiveAnalysis{GlobalCompetitors: global, NationalCompetitors: national}
}

// discoverTickers runs the single grounded discovery call. Both lists empty
// on any failure.
func (d *CompetitiveDiscovery) discoverTickers(ctx context.Context, ticker string) CompetitorTickers {
	prompt := competitorPrompt(ticker)
	modes := capability.ParseModes(d.cfg.LLM.Grounding)

	response, err := d.completion.Complete(ctx, prompt, d.cfg.LLM.Routing.Competitor, modes)
	if err != nil {
		d.logger.Printf("competitor discovery failed for %s: %v", ticker, err)
		return CompetitorTickers{}
	}

	doc, ok := ExtractStructured(response, "global_competitors")
	if !ok {
		d.telemetry.RecordExtractionFailure()
		d.logger.Printf("no structured competitor payload for %s", ticker)
		return CompetitorTickers{}
	}

	return CompetitorTickers{
		Global:   d.validTickers(decodeStringList(doc["global_competitors"])),
		National: d.validTickers(decodeStringList(doc["national_competitors"])),
	}
}

// enrich fetches company data for each ticker concurrently. A failing lookup
// drops that one ticker; there is no retry and no cross-cancellation.
func (d *CompetitiveDiscovery) enrich(ctx context.Context, tickers []string) []CompetitorRecord {
	if len(tickers) == 0 {
		return nil
	}
	records := make([]*CompetitorRecord, len(tickers))
	var wg sync.WaitGroup
	for i, t := range tickers {
		wg.Add(1)
		go func(i int, t string) {
			defer wg.Done()
			summary, err := d.companyData.Lookup(ctx, t)
			d.telemetry.RecordCompetitorLookup(err == nil)
			if err != nil {
				d.logger.Printf("dropping competitor %s: %v", t, err)
				return
			}
			records[i] = &CompetitorRecord{
				Ticker:    t,
				Name:      summary.Overview.Name,
				Sector:    summary.Overview.Sector,
				MarketCap: summary.Overview.MarketCap,
				Price:     summary.Overview.Price,
				Change:    summary.Overview.Change,
				Revenue:   summary.Financials.Revenue,
				NetIncome: summary.Financials.NetIncome,
				EPS:       summary.Financials.EPS,
				PERatio:   summary.Financials.PERatio,
			}
		}(i, t)
	}
	wg.Wait()

	var out []CompetitorRecord
	for _, r := range records {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// validTickers cleans candidate symbols: trim, uppercase, reject empty,
// longer than 5 characters or non-alphabetic; cap at MaxCompetitors.
func (d *CompetitiveDiscovery) validTickers(candidates []string) []string {
	max := d.cfg.Research.MaxCompetitors
	if max <= 0 {
		max = 3
	}
	var out []string
	for _, c := range candidates {
		clean, ok := CleanTicker(c)
		if !ok {
			continue
		}
		out = append(out, clean)
		if len(out) == max {
			break
		}
	}
	return out
}

// CleanTicker normalizes a candidate ticker symbol. Valid symbols are
// non-empty, alphabetic only and at most 5 characters after trimming.
func CleanTicker(s string) (string, bool) {
	clean := strings.ToUpper(strings.TrimSpace(s))
	if clean == "" || len(clean) > 5 {
		return "", false
	}
	for _, ch := range clean {
		if ch < 'A' || ch > 'Z' {
			return "", false
		}
	}
	return clean, true
}
