package stats

import (
	"testing"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumbers(t *testing.T) {
	assert.Equal(t, []float64{20, 40, 60}, ParseNumbers("20, 40, 60"))
	assert.Equal(t, []float64{62.5, 8}, ParseNumbers("62.5kg x 8"))
	assert.Empty(t, ParseNumbers("bodyweight"))
	assert.Empty(t, ParseNumbers(""))
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name       string
		weight     string
		reps       string
		sets       string
		wantVolume float64
		wantOneRM  float64
	}{
		{"pyramid weights, single reps", "20, 40, 60", "10", "", 1200, 80},
		{"single weight, reps per set", "100", "12, 10, 8", "", 3000, 140},
		{"single weight and reps times sets", "80", "10", "3", 2400, 80 * (1 + 10.0/30)},
		{"paired weights and reps", "50, 60, 70", "10, 8, 6", "", 500 + 480 + 420, 70 * (1 + 6.0/30)},
		{"unreadable sets default to one", "40", "12", "a few", 480, 40 * (1 + 12.0/30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseSetRecord(tt.weight, tt.reps, tt.sets)
			require.NoError(t, err)

			got, err := Compute(rec)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantVolume, got.Volume, 1e-9)
			assert.InDelta(t, tt.wantOneRM, got.OneRepMax, 1e-9)
		})
	}
}

func TestParseSetRecordFailures(t *testing.T) {
	_, err := ParseSetRecord("bodyweight", "12", "3")
	assert.ErrorIs(t, err, jarvisErrors.ErrParseFailure)

	_, err = ParseSetRecord("60", "", "3")
	assert.ErrorIs(t, err, jarvisErrors.ErrParseFailure)

	_, err = Compute(SetRecord{})
	assert.ErrorIs(t, err, jarvisErrors.ErrParseFailure)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "80", FormatNumber(80))
	assert.Equal(t, "106.7", FormatNumber(80*(1+10.0/30)))
	assert.Equal(t, "1200", FormatNumber(1200))
}
