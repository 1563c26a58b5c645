// Package formatter renders batch results and training-day summaries for
// the command line as a table, JSON or YAML.
package formatter

import (
	"fmt"
	"strings"

	"github.com/harunnryd/jarvis/internal/stats"
)

type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

type Formatter interface {
	FormatBatch(*stats.BatchReport) (string, error)
	FormatDays([]*stats.DayTotals) (string, error)
}

// batchView is the serialisable shape of a BatchReport.
type batchView struct {
	Job       string   `json:"job" yaml:"job"`
	Processed int      `json:"processed" yaml:"processed"`
	Filled    int      `json:"filled" yaml:"filled"`
	Skipped   int      `json:"skipped" yaml:"skipped"`
	Failed    int      `json:"failed" yaml:"failed"`
	Errors    []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func viewOf(r *stats.BatchReport) batchView {
	v := batchView{Job: r.Job, Processed: r.Processed, Filled: r.Filled, Skipped: r.Skipped, Failed: r.Failed}
	for _, err := range r.Errors() {
		v.Errors = append(v.Errors, err.Error())
	}
	return v
}

type dayView struct {
	Date      string   `json:"date" yaml:"date"`
	Exercises int      `json:"exercises" yaml:"exercises"`
	Sets      int      `json:"sets" yaml:"sets"`
	Volume    float64  `json:"volume" yaml:"volume"`
	BodyParts []string `json:"body_parts" yaml:"body_parts"`
}

func daysOf(days []*stats.DayTotals) []dayView {
	out := make([]dayView, 0, len(days))
	for _, d := range days {
		out = append(out, dayView{Date: d.Date, Exercises: d.Exercises, Sets: d.Sets, Volume: d.Volume, BodyParts: d.BodyParts})
	}
	return out
}

func New(format OutputFormat) (Formatter, error) {
	switch format {
	case OutputFormatTable:
		return NewTableFormatter(), nil
	case OutputFormatJSON:
		return NewJSONFormatter(), nil
	case OutputFormatYAML:
		return NewYAMLFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, json, yaml)", format)
	}
}

func ParseOutputFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(s))
	switch format {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("invalid output format: %s (supported: table, json, yaml)", s)
	}
}
