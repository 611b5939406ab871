package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/optifolio/optifolio/pkg/models"
)

func TestSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()

	gapped := bar(day(2), 0)
	gapped.Open, gapped.High, gapped.Low, gapped.Close = math.NaN(), math.NaN(), math.NaN(), math.NaN()

	d, err := New([]string{"Aaa", "Bbb"}, []string{"AAA.ST", "BBB.ST"}, WithSaveDir(dir))
	if err != nil {
		t.Fatal(err)
	}
	d.data = map[string][]models.OHLCV{
		"AAA.ST": {bar(day(1), 10.5), gapped, bar(day(3), 12)},
		"BBB.ST": {bar(day(1), 50), bar(day(2), 51), bar(day(3), 52)},
	}
	d.info = map[string]*models.InstrumentInfo{
		"AAA.ST": {Symbol: "AAA.ST", Name: "Aaa", Currency: "SEK"},
	}
	if err := d.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	for _, path := range []string{
		filepath.Join(dir, "data", "AAA.ST.csv"),
		filepath.Join(dir, "data", "BBB.ST.csv"),
		filepath.Join(dir, "info", "AAA.ST.json"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected file %s: %v", path, err)
		}
	}

	loaded, err := New([]string{"Aaa", "Bbb"}, []string{"AAA.ST", "BBB.ST"}, WithSaveDir(dir))
	if err != nil {
		t.Fatal(err)
	}
	if err := loaded.LoadLocal(); err != nil {
		t.Fatalf("LoadLocal: %v", err)
	}

	bars, ok := loaded.Bars("AAA.ST")
	if !ok || len(bars) != 3 {
		t.Fatalf("AAA.ST bars = %d, want 3", len(bars))
	}
	if bars[0].Close != 10.5 || bars[0].Volume != 1000 {
		t.Errorf("bars[0] = %+v", bars[0])
	}
	if !math.IsNaN(bars[1].Close) {
		t.Errorf("NaN gap must survive the roundtrip, got %v", bars[1].Close)
	}
	if !bars[2].Timestamp.Equal(day(3)) {
		t.Errorf("bars[2] date = %v, want %v", bars[2].Timestamp, day(3))
	}
	if len(loaded.Dates()) != 3 {
		t.Errorf("date universe = %d, want 3", len(loaded.Dates()))
	}

	info, ok := loaded.Info("AAA.ST")
	if !ok || info.Currency != "SEK" {
		t.Errorf("AAA.ST info = %+v", info)
	}
	if _, ok := loaded.Info("BBB.ST"); ok {
		t.Error("BBB.ST has no profile on disk")
	}
}

func TestSaveWithoutDir(t *testing.T) {
	d, err := New([]string{"Aaa"}, []string{"AAA.ST"})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Save(); err == nil {
		t.Error("Save without a directory should fail")
	}
	if err := d.LoadLocal(); err == nil {
		t.Error("LoadLocal without a directory should fail")
	}
}

func TestLoadLocalMissingSeries(t *testing.T) {
	d, err := New([]string{"Aaa"}, []string{"AAA.ST"}, WithSaveDir(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	err = d.LoadLocal()
	if err == nil {
		t.Fatal("expected error for missing CSV")
	}
	if !strings.Contains(err.Error(), "AAA.ST") {
		t.Errorf("error %q should name the symbol", err)
	}
}

func TestSaveCustomSeparator(t *testing.T) {
	dir := t.TempDir()
	d, err := New([]string{"Aaa"}, []string{"AAA.ST"}, WithSaveDir(dir), WithSeparator(','))
	if err != nil {
		t.Fatal(err)
	}
	d.data = map[string][]models.OHLCV{"AAA.ST": {bar(day(1), 10)}}

	if err := d.Save(); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "data", "AAA.ST.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(raw), "Date,Open,High,Low,Close") {
		t.Errorf("header = %q, want comma-separated", strings.SplitN(string(raw), "\n", 2)[0])
	}
}

func TestAllTickersSaved(t *testing.T) {
	dir := t.TempDir()
	d, err := New([]string{"Aaa", "Bbb"}, []string{"AAA.ST", "BBB.ST"}, WithSaveDir(dir))
	if err != nil {
		t.Fatal(err)
	}
	if d.AllTickersSaved() {
		t.Error("nothing saved yet")
	}

	d.data = map[string][]models.OHLCV{
		"AAA.ST": {bar(day(1), 10)},
		"BBB.ST": {bar(day(1), 50)},
	}
	if err := d.Save(); err != nil {
		t.Fatal(err)
	}
	if !d.AllTickersSaved() {
		t.Error("all series are on disk")
	}

	if err := os.Remove(filepath.Join(dir, "data", "BBB.ST.csv")); err != nil {
		t.Fatal(err)
	}
	if d.AllTickersSaved() {
		t.Error("BBB.ST was removed")
	}
}
