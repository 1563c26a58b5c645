package formatter

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harunnryd/jarvis/internal/stats"
)

type YAMLFormatter struct{}

func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

func (f *YAMLFormatter) FormatBatch(r *stats.BatchReport) (string, error) {
	return marshalYAML(viewOf(r))
}

func (f *YAMLFormatter) FormatDays(days []*stats.DayTotals) (string, error) {
	return marshalYAML(daysOf(days))
}

func marshalYAML(v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
