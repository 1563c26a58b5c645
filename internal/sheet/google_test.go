package sheet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestGoogleSheetsAgainstFakeAPI(t *testing.T) {
	var updatedRange, appendedRange string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"range": "chest!A1:I3",
				"values": [][]any{
					{"date", "exercise", "sets", "weight", "reps", "1rm", "volume", "note", "feedback"},
					{"2026-10-17", "bench press", "3", "60", "10"},
					{"2026-10-18", "incline press", "", "20,40,60", "10"},
				},
			})
		case r.Method == http.MethodPut:
			updatedRange = r.URL.Path
			_ = json.NewEncoder(w).Encode(map[string]any{"updatedCells": 1})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
			appendedRange = r.URL.Path
			_ = json.NewEncoder(w).Encode(map[string]any{
				"updates": map[string]any{"updatedRange": "chest!A4:I4"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	g, err := NewGoogleSheets(ctx, "sheet-id", "",
		option.WithEndpoint(srv.URL),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	table, err := g.Rows(ctx, Chest)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, 3, table.Rows[1].Number)
	assert.Equal(t, "20,40,60", table.Get(table.Rows[1], ColWeight))

	row, err := g.FindRow(ctx, Chest, "2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, 3, row.Number)

	require.NoError(t, g.UpdateCell(ctx, Chest, 3, 7, "1200"))
	assert.Contains(t, updatedRange, "chest!G3")

	n, err := g.AppendRow(ctx, Chest, []string{"2026-10-19", "dips"})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Contains(t, appendedRange, "chest!A1:B1")
}

func TestNewGoogleSheetsRequiresID(t *testing.T) {
	_, err := NewGoogleSheets(context.Background(), "", "")
	assert.Error(t, err)
}

func TestGoogleSheetsMissingTabIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		msg := "Unable to parse range: back"
		if strings.Contains(r.URL.Path, "/values/legs") {
			msg = "Invalid value at 'data'"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{
			"code": 400, "message": msg, "status": "INVALID_ARGUMENT",
		}})
	}))
	defer srv.Close()

	ctx := context.Background()
	g, err := NewGoogleSheets(ctx, "sheet-id", "",
		option.WithEndpoint(srv.URL),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	_, err = g.Rows(ctx, Back)
	assert.True(t, jarvisErrors.IsCategory(err, jarvisErrors.ErrNotFound), "got %v", err)

	_, err = g.FindRow(ctx, Back, "2026-10-18")
	assert.True(t, jarvisErrors.IsCategory(err, jarvisErrors.ErrNotFound))

	_, err = g.Rows(ctx, Legs)
	assert.True(t, jarvisErrors.IsCategory(err, jarvisErrors.ErrExternalService), "got %v", err)
}
