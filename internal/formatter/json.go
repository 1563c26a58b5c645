package formatter

import (
	"encoding/json"

	"github.com/harunnryd/jarvis/internal/stats"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) FormatBatch(r *stats.BatchReport) (string, error) {
	return marshalJSON(viewOf(r))
}

func (f *JSONFormatter) FormatDays(days []*stats.DayTotals) (string, error) {
	return marshalJSON(daysOf(days))
}

func marshalJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
