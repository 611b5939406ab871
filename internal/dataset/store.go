package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/optifolio/optifolio/pkg/models"
)

var csvHeader = []string{"Date", "Open", "High", "Low", "Close", "Volume", "AdjClose"}

// Save writes every series to <saveDir>/data/<symbol>.csv and every
// fetched profile to <saveDir>/info/<symbol>.json.
func (d *Dataset) Save() error {
	if d.saveDir == "" {
		return &InvalidConfigError{Reason: "no save directory configured"}
	}
	dataDir := filepath.Join(d.saveDir, "data")
	infoDir := filepath.Join(d.saveDir, "info")
	for _, dir := range []string{dataDir, infoDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	for _, symbol := range d.symbols {
		if err := d.saveSeries(filepath.Join(dataDir, symbol+".csv"), d.data[symbol]); err != nil {
			return fmt.Errorf("save %s: %w", symbol, err)
		}
		if info, ok := d.info[symbol]; ok {
			if err := saveInfo(filepath.Join(infoDir, symbol+".json"), info); err != nil {
				return fmt.Errorf("save %s info: %w", symbol, err)
			}
		}
	}

	d.log.Debug().Str("dir", d.saveDir).Int("instruments", len(d.symbols)).Msg("dataset saved")
	return nil
}

func (d *Dataset) saveSeries(path string, bars []models.OHLCV) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = d.separator
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, b := range bars {
		record := []string{
			b.Timestamp.Format("2006-01-02"),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			strconv.FormatInt(b.Volume, 10),
			formatFloat(b.AdjClose),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func saveInfo(path string, info *models.InstrumentInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadLocal populates the dataset from a previous Save instead of the
// network. Every symbol's CSV must exist; profiles are optional.
func (d *Dataset) LoadLocal() error {
	if d.saveDir == "" {
		return &InvalidConfigError{Reason: "no save directory configured"}
	}

	data := make(map[string][]models.OHLCV, len(d.symbols))
	info := make(map[string]*models.InstrumentInfo, len(d.symbols))

	for _, symbol := range d.symbols {
		bars, err := d.loadSeries(filepath.Join(d.saveDir, "data", symbol+".csv"))
		if err != nil {
			return fmt.Errorf("load %s: %w", symbol, err)
		}
		data[symbol] = bars

		infoPath := filepath.Join(d.saveDir, "info", symbol+".json")
		if profile, err := loadInfo(infoPath); err == nil {
			info[symbol] = profile
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("load %s info: %w", symbol, err)
		}
	}

	d.data = data
	d.info = info
	d.dates, _ = DateUniverse(data)

	d.log.Debug().Str("dir", d.saveDir).Int("instruments", len(d.symbols)).Msg("dataset loaded")
	return nil
}

func (d *Dataset) loadSeries(path string) ([]models.OHLCV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = d.separator
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s holds no rows", path)
	}

	bars := make([]models.OHLCV, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != len(csvHeader) {
			return nil, fmt.Errorf("%s: malformed row with %d fields", path, len(record))
		}
		ts, err := time.ParseInLocation("2006-01-02", record[0], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		volume, err := strconv.ParseInt(record[5], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		bars = append(bars, models.OHLCV{
			Timestamp: ts,
			Open:      parseFloat(record[1]),
			High:      parseFloat(record[2]),
			Low:       parseFloat(record[3]),
			Close:     parseFloat(record[4]),
			Volume:    volume,
			AdjClose:  parseFloat(record[6]),
		})
	}
	return bars, nil
}

func loadInfo(path string) (*models.InstrumentInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info models.InstrumentInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// AllTickersSaved reports whether every symbol has a CSV under the save
// directory, so callers can skip the network entirely.
func (d *Dataset) AllTickersSaved() bool {
	if d.saveDir == "" {
		return false
	}
	for _, symbol := range d.symbols {
		if _, err := os.Stat(filepath.Join(d.saveDir, "data", symbol+".csv")); err != nil {
			return false
		}
	}
	return true
}

// formatFloat renders NaN as an empty field so reconciliation gaps
// survive a save/load roundtrip.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloat(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
