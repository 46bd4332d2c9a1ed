package ingest

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVSource reads one delimited text file whose first line is a header
// naming each column. Ground truth: original_source's DbCsvFile, which
// reorders each row to match a caller-declared field order by matching
// header names rather than assuming column position — so a data file's
// columns may appear in any order as long as every declared field name
// appears once in the header.
type CSVSource struct {
	path   string
	delim  rune
	fields []string // declared field order, matches IndexSpec.FieldOrder()
}

// NewCSVSource returns a Source reading path, splitting fields on delim,
// and reordering columns to fields (the order Load will pass rows in).
func NewCSVSource(path string, delim rune, fields []string) *CSVSource {
	return &CSVSource{path: path, delim: delim, fields: fields}
}

// Fields implements Source.
func (s *CSVSource) Fields() []string { return s.fields }

// Stream implements Source. It opens the file, maps the header row's
// column names onto s.fields, and emits each subsequent row reordered to
// that field order. Blank lines are skipped, matching the original's
// `if (!line.length()) continue`.
func (s *CSVSource) Stream(ctx context.Context, emit func(row []string) error) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("ingest: opening %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.Comma = s.delim
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := readNonBlank(r)
	if err == io.EOF {
		return fmt.Errorf("ingest: %s is empty", s.path)
	}
	if err != nil {
		return fmt.Errorf("ingest: reading header of %s: %w", s.path, err)
	}

	order := make([]int, len(s.fields))
	for i, want := range s.fields {
		pos := -1
		for j, have := range header {
			if strings.TrimSpace(have) == want {
				pos = j
				break
			}
		}
		if pos < 0 {
			return fmt.Errorf("ingest: %s: header missing declared field %q", s.path, want)
		}
		order[i] = pos
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := readNonBlank(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("ingest: reading %s: %w", s.path, err)
		}
		out := make([]string, len(order))
		for i, pos := range order {
			if pos >= len(row) {
				return fmt.Errorf("ingest: %s: row has fewer fields than header", s.path)
			}
			out[i] = strings.TrimSpace(row[pos])
		}
		if err := emit(out); err != nil {
			return err
		}
	}
}

// readNonBlank returns the next record from r, skipping fully blank
// lines (csv.Reader surfaces a blank line as a single empty field).
func readNonBlank(r *csv.Reader) ([]string, error) {
	for {
		rec, err := r.Read()
		if err != nil {
			return nil, err
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		return rec, nil
	}
}
