package tool

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mealSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"item":      map[string]interface{}{"type": "string"},
			"quantity":  map[string]interface{}{"type": "string"},
			"meal_type": map[string]interface{}{"type": "string", "enum": []string{"breakfast", "lunch", "dinner", "snack", "supplement"}},
		},
		"required": []string{"item"},
	}
}

func TestCheckArguments(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ArgReport
		wantErr bool
	}{
		{
			name:  "clean",
			input: `{"item":"oatmeal","meal_type":"breakfast"}`,
		},
		{
			name:  "missing required",
			input: `{"quantity":"2 bowls"}`,
			want:  ArgReport{Missing: []string{"item"}},
		},
		{
			name:  "unknown field",
			input: `{"item":"oatmeal","calories":300,"brand":"x"}`,
			want:  ArgReport{Unknown: []string{"brand", "calories"}},
		},
		{
			name:  "enum and type mismatch",
			input: `{"item":3,"meal_type":"brunch"}`,
			want:  ArgReport{Mismatched: []string{"item", "meal_type"}},
		},
		{
			name:  "empty input treated as empty object",
			input: ``,
			want:  ArgReport{Missing: []string{"item"}},
		},
		{
			name:    "not an object",
			input:   `["oatmeal"]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckArguments(mealSchema(), json.RawMessage(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckArgumentsInterfaceRequired(t *testing.T) {
	schema := map[string]interface{}{
		"properties": map[string]interface{}{"fact": map[string]interface{}{"type": "string"}},
		"required":   []interface{}{"fact"},
	}

	report, err := CheckArguments(schema, json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"fact"}, report.Missing)
	assert.False(t, report.Clean())
}
