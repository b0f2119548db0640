// Package export writes dispatch histories to tabular and JSON formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/gridloop/recap/core/dispatch"
)

// WriteJSON writes the history to w in JSON format.
func WriteJSON(w io.Writer, h dispatch.History) error {
	enc := json.NewEncoder(w)
	return enc.Encode(h)
}

// WriteCSV writes the committed decisions to w, one row per step: timestamp,
// step index, then states, control, measurements and rewards in declared
// order.
func WriteCSV(w io.Writer, h dispatch.History) error {
	cw := csv.NewWriter(w)
	header := []string{"time", "step"}
	header = append(header, h.Columns.States...)
	header = append(header, h.Columns.Control...)
	header = append(header, h.Columns.Measurements...)
	header = append(header, h.Columns.Rewards...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, rec := range h.Optimal {
		row := make([]string, 0, len(header))
		row = append(row, rec.Time.Format(time.RFC3339), strconv.Itoa(rec.Step))
		row = appendFloats(row, rec.States)
		row = appendFloats(row, rec.Control)
		row = appendFloats(row, rec.Measurements)
		row = appendFloats(row, rec.Rewards)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteInitialCSV writes the pre-step state rows, mirroring WriteCSV.
func WriteInitialCSV(w io.Writer, h dispatch.History) error {
	cw := csv.NewWriter(w)
	header := append([]string{"time", "step"}, h.Columns.States...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, rec := range h.Initial {
		row := []string{rec.Time.Format(time.RFC3339), strconv.Itoa(rec.Step)}
		row = appendFloats(row, rec.States)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func appendFloats(row []string, vals []float64) []string {
	for _, v := range vals {
		row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return row
}
