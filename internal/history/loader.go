// Package history loads historical match results from CSV files and turns
// them into probability estimates for upcoming events.
package history

import (
	"compress/gzip"
	"encoding/csv"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/XavierBriggs/Augur/pkg/contracts"
)

// Table is the union of every CSV file found for one category.
// Rows keep their original column names; columns missing from a file are
// simply absent from that file's rows.
type Table struct {
	Category string
	Columns  []string
	Rows     []map[string]string
	Files    []string

	once    sync.Once
	matches []match
}

// Len returns the number of rows in the table
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Loader finds and reads history files under a set of directories
type Loader struct {
	dirs   []string
	logger zerolog.Logger
}

// NewLoader creates a loader scanning the given directories
func NewLoader(dirs []string) *Loader {
	return &Loader{
		dirs:   dirs,
		logger: log.With().Str("component", "history").Logger(),
	}
}

// Load reads every CSV for category. It returns (nil, nil) when no file is
// found. Files that cannot be parsed are skipped with a warning.
func (l *Loader) Load(category string) (*Table, error) {
	if category == "" {
		return nil, nil
	}

	files, err := l.findFiles(category)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		l.logger.Debug().Str("category", category).Msg("no history files found")
		return nil, nil
	}

	table := &Table{Category: category}
	seenCols := make(map[string]struct{})

	for _, path := range files {
		header, rows, err := readCSV(path)
		if err != nil {
			l.logger.Warn().Err(err).Str("file", path).Msg("skipping unreadable history file")
			continue
		}
		for _, col := range header {
			if _, ok := seenCols[col]; !ok {
				seenCols[col] = struct{}{}
				table.Columns = append(table.Columns, col)
			}
		}
		table.Rows = append(table.Rows, rows...)
		table.Files = append(table.Files, path)
	}

	if len(table.Files) == 0 {
		return nil, nil
	}

	l.logger.Info().
		Str("category", category).
		Int("files", len(table.Files)).
		Int("rows", len(table.Rows)).
		Msg("history loaded")

	return table, nil
}

// findFiles returns <dir>/<category>/**.csv(.gz) plus files directly in
// <dir> whose name contains the category, sorted for a stable row order.
func (l *Loader) findFiles(category string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	lowerCat := strings.ToLower(category)

	for _, dir := range l.dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}

		sub := filepath.Join(dir, category)
		if info, err := os.Stat(sub); err == nil && info.IsDir() {
			err := filepath.WalkDir(sub, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && isCSV(d.Name()) {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, errors.Wrapf(err, "walk %s", sub)
			}
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, "read dir %s", dir)
		}
		for _, e := range entries {
			if e.IsDir() || !isCSV(e.Name()) {
				continue
			}
			if strings.Contains(strings.ToLower(e.Name()), lowerCat) {
				add(filepath.Join(dir, e.Name()))
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

func isCSV(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".csv") || strings.HasSuffix(lower, ".csv.gz")
}

// readCSV parses one file into header and rows keyed by column name
func readCSV(path string) ([]string, []map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, errors.Mark(errors.Wrap(err, "gzip"), contracts.ErrMalformed)
		}
		defer gz.Close()
		r = gz
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, errors.Mark(errors.Wrap(err, "read header"), contracts.ErrMalformed)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []map[string]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Mark(errors.Wrap(err, "read record"), contracts.ErrMalformed)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}

	return header, rows, nil
}
