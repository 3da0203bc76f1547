// Package source reads resume records from CSV and Parquet files.
package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/kailas-cloud/resumeqa/internal/domain"
	"github.com/kailas-cloud/resumeqa/internal/domain/category"
	"github.com/kailas-cloud/resumeqa/internal/domain/resume"
)

// Canonical column names after normalization.
const (
	ColumnID       = "id"
	ColumnResume   = "resume"
	ColumnCategory = "category"
)

// columnAliases maps lower-cased header names to canonical columns.
var columnAliases = map[string]string{
	"id":         ColumnID,
	"resume":     ColumnResume,
	"resume_str": ColumnResume,
	"category":   ColumnCategory,
}

// ErrNoFiles is returned when a source pattern matches nothing.
var ErrNoFiles = errors.New("no source files matched")

// Record is one source row accepted for ingestion.
type Record struct {
	Doc   resume.Document
	RowID string
}

// Stats summarizes a read.
type Stats struct {
	Files   int
	Rows    int
	Skipped int
}

// rawRow is a row before validation. index is the position in the run.
type rawRow struct {
	id       string
	text     string
	category string
}

// rowReader streams raw rows out of a single file.
type rowReader func(ctx context.Context, path string, fn func(rawRow) error) error

var readers = map[string]rowReader{
	".csv":     readCSV,
	".parquet": readParquet,
}

// Resolve expands a file path or doublestar pattern into a sorted list of
// supported files.
func Resolve(pattern string) ([]string, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("%w: source path is required", domain.ErrConfiguration)
	}
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: bad source pattern %q: %w", domain.ErrConfiguration, pattern, err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := readers[strings.ToLower(filepath.Ext(m))]; ok {
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, pattern)
	}
	sort.Strings(files)
	return files, nil
}

// Load reads every file matched by pattern. Row ids are "row_<i>" where i
// counts rows across the whole run from zero, so a single file gets its own
// 0-based row numbers. Rows whose category is outside the taxonomy, or
// whose text is empty, are skipped and counted.
func Load(ctx context.Context, pattern string, logger *zap.Logger) ([]Record, Stats, error) {
	files, err := Resolve(pattern)
	if err != nil {
		return nil, Stats{}, err
	}

	var (
		records []Record
		stats   = Stats{Files: len(files)}
		skipped = map[string]int{}
	)
	for _, path := range files {
		read := readers[strings.ToLower(filepath.Ext(path))]
		err := read(ctx, path, func(r rawRow) error {
			rowID := "row_" + strconv.Itoa(stats.Rows)
			stats.Rows++

			id := strings.TrimSpace(r.id)
			if id == "" {
				id = rowID
			}
			cat, err := category.Parse(r.category)
			if err != nil {
				stats.Skipped++
				skipped[strings.TrimSpace(r.category)]++
				return nil
			}
			doc, err := resume.New(id, cat, r.text)
			if err != nil {
				stats.Skipped++
				logger.Debug("Skipping invalid row", zap.String("row_id", rowID), zap.Error(err))
				return nil
			}
			records = append(records, Record{Doc: doc, RowID: rowID})
			return nil
		})
		if err != nil {
			return nil, Stats{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
	}

	for label, n := range skipped {
		logger.Warn("Skipped rows with unknown category",
			zap.String("category", label),
			zap.Int("rows", n),
		)
	}
	logger.Info("Source loaded",
		zap.Int("files", stats.Files),
		zap.Int("rows", stats.Rows),
		zap.Int("accepted", len(records)),
		zap.Int("skipped", stats.Skipped),
	)
	return records, stats, nil
}

// columnIndex maps canonical columns to their positions in a header.
type columnIndex map[string]int

// resolveColumns normalizes a header. Resume and Category are required;
// an exact "Resume" wins over "Resume_str".
func resolveColumns(header []string) (columnIndex, error) {
	cols := columnIndex{}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		canonical, ok := columnAliases[key]
		if !ok {
			continue
		}
		if _, seen := cols[canonical]; seen && key != canonical {
			continue
		}
		cols[canonical] = i
	}

	for _, required := range []string{ColumnResume, ColumnCategory} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing %q column", domain.ErrConfiguration, required)
		}
	}
	return cols, nil
}

func (c columnIndex) get(row []string, column string) string {
	i, ok := c[column]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
