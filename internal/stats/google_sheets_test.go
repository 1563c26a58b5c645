package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/harunnryd/jarvis/internal/sheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// fakeSpreadsheet serves the parts of the Sheets v4 API the store uses.
// Reading a tab that does not exist answers 400 like the real service.
type fakeSpreadsheet struct {
	mu   sync.Mutex
	tabs map[string][][]any
}

func tabName(rng string) string {
	name, _, _ := strings.Cut(rng, "!")
	return strings.Trim(name, "'")
}

func (f *fakeSpreadsheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		name := tabName(path[strings.Index(path, "/values/")+len("/values/"):])
		rows, ok := f.tabs[name]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{
				"code": 400, "message": "Unable to parse range: " + name, "status": "INVALID_ARGUMENT",
			}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"range": name, "values": rows})

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		rng := path[strings.Index(path, "/values/")+len("/values/") : len(path)-len(":append")]
		name := tabName(rng)
		var body struct {
			Values [][]any `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.tabs[name] = append(f.tabs[name], body.Values...)
		_ = json.NewEncoder(w).Encode(map[string]any{"updates": map[string]any{
			"updatedRange": name + "!A" + strconv.Itoa(len(f.tabs[name])) + ":E" + strconv.Itoa(len(f.tabs[name])),
		}})

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var body struct {
			Requests []struct {
				AddSheet struct {
					Properties struct {
						Title string `json:"title"`
					} `json:"properties"`
				} `json:"addSheet"`
			} `json:"requests"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, req := range body.Requests {
			f.tabs[req.AddSheet.Properties.Title] = nil
		}
		_ = json.NewEncoder(w).Encode(map[string]any{})

	case r.Method == http.MethodGet:
		var sheets []any
		for name := range f.tabs {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": name}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})

	default:
		http.NotFound(w, r)
	}
}

func TestSummaryBuildOnGoogleSheetsWithMissingTabs(t *testing.T) {
	fake := &fakeSpreadsheet{tabs: map[string][][]any{
		sheet.Chest: {
			{"date", "exercise", "sets", "weight", "reps", "1rm", "volume", "note", "feedback"},
			{"2026-10-17", "bench press", "3", "80", "10"},
		},
	}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	g, err := sheet.NewGoogleSheets(ctx, "sheet-id", "",
		option.WithEndpoint(srv.URL),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	rep, err := NewSummaryBuilder(g).Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Processed)
	assert.Equal(t, 1, rep.Filled)
	assert.Empty(t, rep.Errors())

	fake.mu.Lock()
	summary := fake.tabs[sheet.Summary]
	fake.mu.Unlock()
	require.Len(t, summary, 2)
	assert.Equal(t, "2026-10-17", summary[1][0])
	assert.Equal(t, "2400", summary[1][3])
}
