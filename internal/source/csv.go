package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

func readCSV(ctx context.Context, path string, fn func(rawRow) error) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err //nolint:wrapcheck // cancellation
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		if err := fn(rawRow{
			id:       cols.get(row, ColumnID),
			text:     cols.get(row, ColumnResume),
			category: cols.get(row, ColumnCategory),
		}); err != nil {
			return err
		}
	}
}
