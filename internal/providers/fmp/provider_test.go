package fmp

import (
	"errors"
	"testing"
	"time"

	"github.com/optifolio/optifolio/internal/provider"
)

func TestProviderInfo(t *testing.T) {
	p := New()
	info := p.Info()
	if info.Name != "fmp" {
		t.Errorf("expected name fmp, got %s", info.Name)
	}
	if info.Website == "" {
		t.Error("expected non-empty website")
	}
	if len(info.Credentials) != 1 {
		t.Fatalf("expected 1 credential, got %d", len(info.Credentials))
	}
	cred := info.Credentials[0]
	if cred.Name != CredAPIKey {
		t.Errorf("expected credential name %s, got %s", CredAPIKey, cred.Name)
	}
	if !cred.Required {
		t.Error("api_key should be required")
	}
	if cred.EnvVar != EnvAPIKey {
		t.Errorf("expected env var %s, got %s", EnvAPIKey, cred.EnvVar)
	}
}

func TestProviderSupportedModels(t *testing.T) {
	p := New()
	supported := p.SupportedModels()

	expected := []provider.ModelType{
		provider.ModelDailyHistorical,
		provider.ModelInstrumentInfo,
		provider.ModelCompanyNews,
	}

	modelSet := make(map[provider.ModelType]bool)
	for _, m := range supported {
		modelSet[m] = true
	}

	for _, m := range expected {
		if !modelSet[m] {
			t.Errorf("missing expected model: %s", m)
		}
	}
	if len(supported) != len(expected) {
		t.Errorf("expected %d models, got %d", len(expected), len(supported))
	}
}

func TestInitRequiresAPIKey(t *testing.T) {
	p := New()

	err := p.Init(nil)
	if err == nil {
		t.Fatal("Init without credentials should fail")
	}
	var credErr *provider.ErrInvalidCredentials
	if !errors.As(err, &credErr) {
		t.Fatalf("expected ErrInvalidCredentials, got %T: %v", err, err)
	}

	if err := p.Init(map[string]string{CredAPIKey: "test-key"}); err != nil {
		t.Fatalf("Init with key: %v", err)
	}
	if p.apiKey != "test-key" {
		t.Errorf("api key not stored: %q", p.apiKey)
	}
}

func TestFetcherInjectsAPIKey(t *testing.T) {
	p := New()
	if err := p.Init(map[string]string{CredAPIKey: "test-key"}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	f := p.Fetcher(provider.ModelDailyHistorical)
	if f == nil {
		t.Fatal("expected non-nil fetcher for DailyHistorical")
	}
	if _, ok := f.(*keyedFetcher); !ok {
		t.Errorf("expected keyedFetcher wrapper, got %T", f)
	}
	if got := f.Spec().Model; got != provider.ModelDailyHistorical {
		t.Errorf("wrapper changed model type: %s", got)
	}
	if got := f.Spec().Required; len(got) != 1 || got[0] != provider.ParamSymbol {
		t.Errorf("wrapper changed required params: %v", got)
	}

	if f := p.Fetcher(provider.ModelIndexConstituents); f != nil {
		t.Error("expected nil fetcher for unsupported model")
	}
}

func TestFMPURL(t *testing.T) {
	tests := []struct {
		path, want string
	}{
		{"/profile/AAPL", baseURL + "/profile/AAPL?apikey=k"},
		{"/stock_news?tickers=AAPL&limit=5", baseURL + "/stock_news?tickers=AAPL&limit=5&apikey=k"},
	}
	for _, tt := range tests {
		if got := fmpURL(tt.path, "k"); got != tt.want {
			t.Errorf("fmpURL(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestParseHistoricalSortsAscending(t *testing.T) {
	// FMP returns newest first.
	entries := []priceBar{
		{Date: "2023-10-04", Open: 102, High: 104, Low: 101, Close: 103, AdjClose: 103, Volume: 1200},
		{Date: "2023-10-03", Open: 101, High: 103, Low: 100, Close: 102, AdjClose: 102, Volume: 1100},
		{Date: "2023-10-02", Open: 100, High: 102, Low: 99, Close: 101, AdjClose: 101, Volume: 1000},
	}

	bars := parseHistorical(entries)
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i-1].Timestamp.Before(bars[i].Timestamp) {
			t.Fatalf("bars not chronological: %v then %v", bars[i-1].Timestamp, bars[i].Timestamp)
		}
	}
	if bars[0].Close != 101 {
		t.Errorf("bars[0].Close = %v, want 101", bars[0].Close)
	}
	if bars[2].Volume != 1200 {
		t.Errorf("bars[2].Volume = %v, want 1200", bars[2].Volume)
	}
}

func TestParseHistoricalSkipsBadDates(t *testing.T) {
	entries := []priceBar{
		{Date: "2023-10-02", Close: 101},
		{Date: "not-a-date", Close: 999},
	}
	bars := parseHistorical(entries)
	if len(bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(bars))
	}
	if bars[0].Close != 101 {
		t.Errorf("Close = %v, want 101", bars[0].Close)
	}
}

func TestBuildInstrumentInfo(t *testing.T) {
	info := buildInstrumentInfo(companyProfile{
		Symbol:            "AAPL",
		CompanyName:       "Apple Inc.",
		Currency:          "USD",
		Exchange:          "NASDAQ Global Select",
		ExchangeShortName: "NASDAQ",
		Sector:            "Technology",
		Industry:          "Consumer Electronics",
		Country:           "US",
		Website:           "https://www.apple.com",
		Description:       "Apple designs consumer electronics.",
		MarketCap:         2.8e12,
	})

	if info.Symbol != "AAPL" {
		t.Errorf("Symbol = %q", info.Symbol)
	}
	if info.Exchange != "NASDAQ" {
		t.Errorf("Exchange = %q (short name should win)", info.Exchange)
	}
	if info.MarketCap != 2.8e12 {
		t.Errorf("MarketCap = %v", info.MarketCap)
	}
	if info.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}

	// Long exchange name is the fallback.
	info = buildInstrumentInfo(companyProfile{Symbol: "X", Exchange: "New York Stock Exchange"})
	if info.Exchange != "New York Stock Exchange" {
		t.Errorf("Exchange fallback = %q", info.Exchange)
	}
}

func TestDefaultDateRange(t *testing.T) {
	start, end := defaultDateRange(provider.QueryParams{
		provider.ParamStartDate: "2020-01-01",
		provider.ParamEndDate:   "2021-06-30",
	})
	if start != "2020-01-01" || end != "2021-06-30" {
		t.Errorf("got %s..%s", start, end)
	}

	start, end = defaultDateRange(provider.QueryParams{})
	st, err := time.Parse("2006-01-02", start)
	if err != nil {
		t.Fatalf("default start unparseable: %v", err)
	}
	et, err := time.Parse("2006-01-02", end)
	if err != nil {
		t.Fatalf("default end unparseable: %v", err)
	}
	if !st.Before(et) {
		t.Error("default start should precede end")
	}
}
