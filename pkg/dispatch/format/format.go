// Package format renders kNN query results into the wire formats spec.md
// §4.9 names: JSON (the default) and CSV (optional). Grounded on
// original_source's Dout formatter, which zips a declared field-name list
// against each OutT tuple; since geo.Result already carries attributes as
// a name-keyed map, no external field list needs threading through here.
package format

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/therealutkarshpriyadarshi/geoknn/pkg/geo"
)

// ErrUnknownFormat is returned by Render for any fmt value other than
// "" (treated as JSON), "json" or "csv".
type ErrUnknownFormat string

func (e ErrUnknownFormat) Error() string {
	return fmt.Sprintf("format: unknown format %q", string(e))
}

// Render encodes results in the named format, returning the body and the
// MIME content type to serve it with.
func Render(name string, results []geo.Result) (body []byte, contentType string, err error) {
	switch name {
	case "", "json":
		b, err := JSON(results)
		return b, "application/json", err
	case "csv":
		b, err := CSV(results)
		return b, "text/csv", err
	default:
		return nil, "", ErrUnknownFormat(name)
	}
}

// jsonResult is the wire shape of one result: id and dist, with the
// attributes nested as one object under "attributes" (the CSV encoder
// instead flattens them into columns).
type jsonResult struct {
	ID         uint64            `json:"id"`
	Dist       uint64            `json:"dist"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// jsonBody is the top-level response envelope: an object carrying the
// result array under "result", per spec.md §4.9 and
// original_source/src/Dout.hpp's {result:[...]} shape.
type jsonBody struct {
	Result []jsonResult `json:"result"`
}

// JSON encodes results as {"result": [...]}, nearest first.
func JSON(results []geo.Result) ([]byte, error) {
	out := make([]jsonResult, len(results))
	for i, r := range results {
		out[i] = jsonResult{ID: r.ID, Dist: r.Dist, Attributes: r.Attributes}
	}
	return json.Marshal(jsonBody{Result: out})
}

// CSV encodes results as id,dist,<attribute columns...>, with attribute
// columns taken from the union of attribute keys across all results,
// sorted for a deterministic header. Any result missing a given
// attribute leaves that cell blank.
func CSV(results []geo.Result) ([]byte, error) {
	cols := attributeColumns(results)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append([]string{"id", "dist"}, cols...)
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, r := range results {
		row := make([]string, 0, len(header))
		row = append(row, fmt.Sprintf("%d", r.ID), fmt.Sprintf("%d", r.Dist))
		for _, c := range cols {
			row = append(row, r.Attributes[c])
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func attributeColumns(results []geo.Result) []string {
	set := make(map[string]struct{})
	for _, r := range results {
		for k := range r.Attributes {
			set[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(set))
	for k := range set {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
