package nasdaqomx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/optifolio/optifolio/internal/infra"
	"github.com/optifolio/optifolio/internal/provider"
	"github.com/optifolio/optifolio/pkg/models"
)

const weightingsPage = `<html><body>
<table id="weightings">
<thead><tr><th>Company Name</th><th>Security Symbol</th><th>Market Value</th><th>Weight</th></tr></thead>
<tbody>
<tr><td>Ericsson B</td><td>ERIC B</td><td>241,552,527,407</td><td>3.52%</td></tr>
<tr><td>Volvo B</td><td>VOLV B</td><td>341,552,527,407</td><td>7.91%</td></tr>
<tr><td>Telia Company</td><td>TELIA</td><td>141,552,527,407</td><td>2.04%</td></tr>
<tr><td>Total</td><td></td><td></td><td>100%</td></tr>
</tbody>
</table>
</body></html>`

func TestProviderInfo(t *testing.T) {
	p := New(nil)
	info := p.Info()
	if info.Name != "nasdaqomx" {
		t.Errorf("expected name nasdaqomx, got %s", info.Name)
	}
	if len(info.Credentials) != 0 {
		t.Errorf("nasdaqomx should have no credentials, got %d", len(info.Credentials))
	}
}

func TestProviderSupportedModels(t *testing.T) {
	p := New(nil)
	supported := p.SupportedModels()
	if len(supported) != 1 {
		t.Fatalf("expected 1 supported model, got %d", len(supported))
	}
	if supported[0] != provider.ModelIndexConstituents {
		t.Errorf("expected ModelIndexConstituents, got %s", supported[0])
	}
}

func TestImplementedIndexes(t *testing.T) {
	idx := ImplementedIndexes()
	want := map[string]bool{"NDX": true, "OMXS30": true, "OMXSBESGNI": true, "OMXSPI": true}
	if len(idx) != len(want) {
		t.Fatalf("expected %d indexes, got %d", len(want), len(idx))
	}
	for _, name := range idx {
		if !want[name] {
			t.Errorf("unexpected index %q", name)
		}
	}
}

func TestLastTradeDate(t *testing.T) {
	day := func(y int, m time.Month, d, hour int) time.Time {
		return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"monday morning uses friday", day(2023, time.October, 16, 9), "2023-10-13"},
		{"monday afternoon uses monday", day(2023, time.October, 16, 13), "2023-10-16"},
		{"saturday clamps to friday", day(2023, time.October, 14, 15), "2023-10-13"},
		{"sunday morning clamps to friday", day(2023, time.October, 15, 9), "2023-10-13"},
		{"midweek afternoon uses same day", day(2023, time.October, 18, 14), "2023-10-18"},
	}

	for _, tt := range tests {
		got := lastTradeDate(tt.now)
		if got.Format("2006-01-02") != tt.want {
			t.Errorf("%s: lastTradeDate(%v) = %s, want %s",
				tt.name, tt.now, got.Format("2006-01-02"), tt.want)
		}
		if got.Hour() != 0 || got.Minute() != 0 {
			t.Errorf("%s: trade date should be midnight, got %v", tt.name, got)
		}
	}
}

func TestSymbolFilterFor(t *testing.T) {
	tests := []struct {
		index, in, want string
	}{
		{"OMXS30", "ERIC B", "ERIC-B.ST"},
		{"OMXS30", "TELIA", "TELIA.ST"},
		{"OMXSPI", "VOLV B", "VOLV-B.ST"},
		{"OMXSBESGNI", "HM B", "HM-B.ST"},
		{"NDX", "AAPL", "AAPL"},
		{"NDX", "MSFT", "MSFT"},
	}
	for _, tt := range tests {
		got := symbolFilterFor(tt.index)(tt.in)
		if got != tt.want {
			t.Errorf("symbolFilterFor(%s)(%q) = %q, want %q", tt.index, tt.in, got, tt.want)
		}
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"3.52%", 3.52},
		{"3.52 %", 3.52},
		{" 12.1% ", 12.1},
		{"100%", 100},
		{"n/a", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := parsePercent(tt.in); got != tt.want {
			t.Errorf("parsePercent(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseWeightings(t *testing.T) {
	constituents, err := parseWeightings([]byte(weightingsPage), symbolFilterFor("OMXS30"))
	if err != nil {
		t.Fatalf("parseWeightings: %v", err)
	}
	if len(constituents) != 3 {
		t.Fatalf("expected 3 constituents (Total row skipped), got %d", len(constituents))
	}

	want := []models.IndexConstituent{
		{Name: "Ericsson B", Symbol: "ERIC-B.ST", Weight: 3.52},
		{Name: "Volvo B", Symbol: "VOLV-B.ST", Weight: 7.91},
		{Name: "Telia Company", Symbol: "TELIA.ST", Weight: 2.04},
	}
	for i, w := range want {
		if constituents[i] != w {
			t.Errorf("constituents[%d] = %+v, want %+v", i, constituents[i], w)
		}
	}
}

func TestParseWeightingsEmpty(t *testing.T) {
	_, err := parseWeightings([]byte("<html><body><p>maintenance</p></body></html>"), symbolFilterFor("NDX"))
	if err == nil {
		t.Fatal("expected error for page without constituents")
	}
}

func TestFetchFromMockServer(t *testing.T) {
	var gotURL atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL.Store(r.URL.String())
		w.Write([]byte(weightingsPage))
	}))
	defer srv.Close()

	f := newIndexConstituentsFetcher(nil)
	f.baseURL = srv.URL + "/Index/Weighting/"

	params := provider.QueryParams{
		provider.ParamIndex:     "OMXS30",
		provider.ParamTradeDate: "2023-10-13",
	}
	result, err := f.Fetch(context.Background(), params)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	constituents, ok := result.Data.([]models.IndexConstituent)
	if !ok {
		t.Fatalf("unexpected data type %T", result.Data)
	}
	if len(constituents) != 3 {
		t.Errorf("expected 3 constituents, got %d", len(constituents))
	}
	if constituents[0].Symbol != "ERIC-B.ST" {
		t.Errorf("first symbol = %q, want ERIC-B.ST", constituents[0].Symbol)
	}

	url, _ := gotURL.Load().(string)
	if url != "/Index/Weighting/OMXS30?tradeDate=2023-10-13T00:00:00.000&timeOfDay=SOD" {
		t.Errorf("unexpected request URL: %s", url)
	}

	// Second fetch with identical params should come from the in-memory cache.
	result, err = f.Fetch(context.Background(), params)
	if err != nil {
		t.Fatalf("cached Fetch: %v", err)
	}
	if !result.Cached {
		t.Error("second fetch should be cached")
	}
}

func TestFetchInvalidTradeDate(t *testing.T) {
	f := newIndexConstituentsFetcher(nil)
	_, err := f.Fetch(context.Background(), provider.QueryParams{
		provider.ParamIndex:     "OMXS30",
		provider.ParamTradeDate: "13/10/2023",
	})
	if err == nil {
		t.Fatal("expected error for malformed trade_date")
	}
}

func TestFetchUsesHTTPCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(weightingsPage))
	}))
	defer srv.Close()

	cache, err := infra.NewHTTPCache(":memory:", time.Hour)
	if err != nil {
		t.Fatalf("NewHTTPCache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })

	params := provider.QueryParams{
		provider.ParamIndex:     "OMXSPI",
		provider.ParamTradeDate: "2023-10-13",
	}

	// Two independent fetchers sharing the HTTP cache: the second must
	// be served from sqlite, not the network.
	for i := 0; i < 2; i++ {
		f := newIndexConstituentsFetcher(cache)
		f.baseURL = srv.URL + "/Index/Weighting/"
		if _, err := f.Fetch(context.Background(), params); err != nil {
			t.Fatalf("Fetch %d: %v", i, err)
		}
	}

	if got := hits.Load(); got != 1 {
		t.Errorf("expected 1 network hit, got %d", got)
	}
}
