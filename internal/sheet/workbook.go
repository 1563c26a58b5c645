package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"

	"github.com/natefinch/atomic"
)

// Workbook is a Store kept in a single JSON file. Every operation reloads the
// file under a cross-process lock, so it is safe to share between commands.
type Workbook struct {
	path string
	lock *fileLock
	mu   sync.Mutex
}

type workbookFile struct {
	Sheets map[string][][]string `json:"sheets"`
}

func NewWorkbook(path string, lockRetry time.Duration, lockMaxRetry int) (*Workbook, error) {
	if path == "" {
		return nil, jarvisErrors.InvalidInput("workbook path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create workbook dir: %w", err)
	}
	return &Workbook{path: path, lock: newFileLock(path, lockRetry, lockMaxRetry)}, nil
}

func (w *Workbook) Rows(ctx context.Context, sheet string) (*Table, error) {
	var table *Table
	err := w.view(ctx, func(f *workbookFile) error {
		values, ok := f.Sheets[sheet]
		if !ok {
			return jarvisErrors.NotFound(fmt.Sprintf("sheet %s", sheet))
		}
		table = NewTable(sheet, values)
		return nil
	})
	return table, err
}

func (w *Workbook) FindRow(ctx context.Context, sheet, key string) (*Row, error) {
	var row *Row
	err := w.view(ctx, func(f *workbookFile) error {
		values, ok := f.Sheets[sheet]
		if !ok {
			return jarvisErrors.NotFound(fmt.Sprintf("sheet %s", sheet))
		}
		row = findInValues(values, key)
		if row == nil {
			return jarvisErrors.NotFound(fmt.Sprintf("row %q in %s", key, sheet))
		}
		return nil
	})
	return row, err
}

func (w *Workbook) UpdateCell(ctx context.Context, sheet string, row, col int, value string) error {
	return w.update(ctx, func(f *workbookFile) error {
		values, ok := f.Sheets[sheet]
		if !ok {
			return jarvisErrors.NotFound(fmt.Sprintf("sheet %s", sheet))
		}
		if row < 1 || col < 1 {
			return jarvisErrors.InvalidInput(fmt.Sprintf("cell %d,%d out of range", row, col))
		}
		for len(values) < row {
			values = append(values, nil)
		}
		for len(values[row-1]) < col {
			values[row-1] = append(values[row-1], "")
		}
		values[row-1][col-1] = value
		f.Sheets[sheet] = values
		return nil
	})
}

func (w *Workbook) AppendRow(ctx context.Context, sheet string, values []string) (int, error) {
	var rowNumber int
	err := w.update(ctx, func(f *workbookFile) error {
		existing, ok := f.Sheets[sheet]
		if !ok {
			return jarvisErrors.NotFound(fmt.Sprintf("sheet %s", sheet))
		}
		f.Sheets[sheet] = append(existing, append([]string(nil), values...))
		rowNumber = len(f.Sheets[sheet])
		return nil
	})
	return rowNumber, err
}

func (w *Workbook) EnsureSheet(ctx context.Context, sheet string, header []string) error {
	return w.update(ctx, func(f *workbookFile) error {
		if _, ok := f.Sheets[sheet]; ok {
			return nil
		}
		f.Sheets[sheet] = [][]string{append([]string(nil), header...)}
		return nil
	})
}

func (w *Workbook) view(ctx context.Context, fn func(*workbookFile) error) error {
	return w.withLock(ctx, func() error {
		f, err := w.load()
		if err != nil {
			return err
		}
		return fn(f)
	})
}

func (w *Workbook) update(ctx context.Context, fn func(*workbookFile) error) error {
	return w.withLock(ctx, func() error {
		f, err := w.load()
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			return err
		}
		return w.save(f)
	})
}

func (w *Workbook) withLock(ctx context.Context, fn func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.lock.acquire(ctx); err != nil {
		return jarvisErrors.External("workbook lock", err)
	}
	defer w.lock.release()

	return fn()
}

func (w *Workbook) load() (*workbookFile, error) {
	f := &workbookFile{Sheets: map[string][][]string{}}
	data, err := os.ReadFile(w.path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, jarvisErrors.External("read workbook", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, jarvisErrors.External("decode workbook", err)
	}
	if f.Sheets == nil {
		f.Sheets = map[string][][]string{}
	}
	return f, nil
}

func (w *Workbook) save(f *workbookFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(w.path, bytes.NewReader(data)); err != nil {
		return jarvisErrors.External("write workbook", err)
	}
	return nil
}
