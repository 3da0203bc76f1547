package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

const parquetReadBuffer = 256

func readParquet(ctx context.Context, path string, fn func(rawRow) error) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return fmt.Errorf("open parquet: %w", err)
	}

	// leaf column index → top-level field name
	columns := pf.Schema().Columns()
	header := make([]string, len(columns))
	for i, path := range columns {
		if len(path) > 0 {
			header[i] = path[0]
		}
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return err
	}

	buf := make([]parquet.Row, parquetReadBuffer)
	for _, rg := range pf.RowGroups() {
		if err := readRowGroup(ctx, rg, cols, buf, fn); err != nil {
			return err
		}
	}
	return nil
}

func readRowGroup(
	ctx context.Context, rg parquet.RowGroup, cols columnIndex, buf []parquet.Row, fn func(rawRow) error,
) error {
	rows := parquet.NewRowGroupReader(rg)
	defer func() { _ = rows.Close() }()

	for {
		if err := ctx.Err(); err != nil {
			return err //nolint:wrapcheck // cancellation
		}
		n, readErr := rows.ReadRows(buf)
		for i := range n {
			if err := fn(rowToRaw(buf[i], cols)); err != nil {
				return err
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return fmt.Errorf("read rows: %w", readErr)
		}
	}
}

func rowToRaw(row parquet.Row, cols columnIndex) rawRow {
	var r rawRow
	for _, v := range row {
		if v.IsNull() {
			continue
		}
		switch v.Column() {
		case colOr(cols, ColumnID):
			r.id = v.String()
		case colOr(cols, ColumnResume):
			r.text = v.String()
		case colOr(cols, ColumnCategory):
			r.category = v.String()
		}
	}
	return r
}

// colOr returns the column position or -1 when the column is absent.
func colOr(cols columnIndex, name string) int {
	if i, ok := cols[name]; ok {
		return i
	}
	return -1
}
