package forecast

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gridloop/recap/core/horizon"
)

// HistoryConfig configures a forecaster replaying a CSV column.
type HistoryConfig struct {
	TWindow float64 `json:"t_window"`
	Dt      float64 `json:"dt"`
	// History is the path to a CSV file with a header row.
	History string `json:"history"`
	// Name selects the column holding the reward/price samples.
	Name string `json:"name"`
}

// History replays a fixed historical series in sliding windows. Call k serves
// samples [k, k+H); once the window would run past the end of the data,
// GenReward fails with ErrExhausted and the counter stays where it is, so the
// same step can be retried after more data is supplied.
type History struct {
	counter
	n      int
	name   string
	series []float64
}

// NewHistory loads the named column from the CSV file at cfg.History.
func NewHistory(cfg HistoryConfig) (*History, error) {
	w := horizon.Window{TWindow: cfg.TWindow, Dt: cfg.Dt}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("forecast: history column name is required")
	}
	f, err := os.Open(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("forecast: open history: %w", err)
	}
	defer f.Close()
	series, err := readColumn(f, cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("forecast: %s: %w", cfg.History, err)
	}
	return &History{n: w.Steps(), name: cfg.Name, series: series}, nil
}

// GenReward returns the next window of historical samples.
func (h *History) GenReward() ([]float64, error) {
	start := h.Calls()
	end := start + h.n
	if end > len(h.series) {
		return nil, fmt.Errorf("forecast: %s window [%d,%d) exceeds %d samples: %w",
			h.name, start, end, len(h.series), ErrExhausted)
	}
	out := make([]float64, h.n)
	copy(out, h.series[start:end])
	h.inc()
	return out, nil
}

// Horizon returns the number of samples per call.
func (h *History) Horizon() int { return h.n }

// Remaining reports how many more windows can still be served.
func (h *History) Remaining() int {
	left := len(h.series) - h.n - h.Calls() + 1
	if left < 0 {
		return 0
	}
	return left
}

func readColumn(r io.Reader, name string) ([]float64, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := -1
	for i, h := range header {
		if h == name {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("column %q not found in header %v", name, header)
	}
	var series []float64
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		v, err := strconv.ParseFloat(rec[col], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d column %q: %w", row, name, err)
		}
		series = append(series, v)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("column %q has no samples", name)
	}
	return series, nil
}
