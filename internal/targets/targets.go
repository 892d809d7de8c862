// Package targets reads vacancy ids from pasted text and uploaded files.
package targets

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	separators = regexp.MustCompile(`[\s,;]+`)
	digitRun   = regexp.MustCompile(`\d+`)
)

// UnsupportedFormatError is returned for file extensions no reader handles.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported ids file extension %q (want .txt, .csv, .tsv, .tab, .jsonl or .ndjson)", e.Ext)
}

// ExtractFromText splits text on whitespace, commas and semicolons. Numeric
// tokens are kept as is; other tokens contribute their first run of digits.
//
//	"123, 456\nabc789xyz 42; id=555" -> [123 456 789 42 555]
func ExtractFromText(text string) []string {
	var ids []string
	for _, tok := range separators.Split(strings.TrimSpace(text), -1) {
		if id := firstID(tok); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// ReadFile reads ids from path, choosing the format by extension.
// Plain text files are read line by line, one id per line.
func ReadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ids file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".txt" || ext == "" {
		return fromLines(data), nil
	}
	return parse(ext, data)
}

// ReadBytes parses an uploaded file. name only selects the format; plain text
// is tokenized like ExtractFromText so pasted lists work too.
func ReadBytes(name string, data []byte) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".txt" || ext == "" {
		return ExtractFromText(string(data)), nil
	}
	return parse(ext, data)
}

func parse(ext string, data []byte) ([]string, error) {
	switch ext {
	case ".csv":
		return fromDelimited(data, ',')
	case ".tsv", ".tab":
		return fromDelimited(data, '\t')
	case ".jsonl", ".ndjson":
		return fromJSONLines(data), nil
	default:
		return nil, &UnsupportedFormatError{Ext: ext}
	}
}

// firstID returns s if it is all digits, else its first digit run.
func firstID(s string) string {
	return digitRun.FindString(strings.TrimSpace(s))
}

func fromLines(data []byte) []string {
	var ids []string
	for _, line := range strings.Split(string(data), "\n") {
		if id := firstID(line); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// fromDelimited treats the first row as a header and reads the vacancy_id
// column, else id, else the first column.
func fromDelimited(data []byte, comma rune) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	col := 0
	if i := indexFold(header, "vacancy_id"); i >= 0 {
		col = i
	} else if i := indexFold(header, "id"); i >= 0 {
		col = i
	}

	var ids []string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ids, fmt.Errorf("failed to read row: %w", err)
		}
		if col >= len(row) {
			continue
		}
		if id := firstID(row[col]); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func indexFold(fields []string, name string) int {
	for i, f := range fields {
		if strings.EqualFold(strings.TrimSpace(f), name) {
			return i
		}
	}
	return -1
}

// fromJSONLines accepts one JSON value per line: a string or number id, an
// object with vacancy_id or id, or anything else containing a digit run.
// Lines that are not valid JSON are skipped.
func fromJSONLines(data []byte) []string {
	var ids []string
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			continue
		}

		var id string
		switch val := v.(type) {
		case string:
			id = firstID(val)
		case json.Number:
			id = firstID(val.String())
		case map[string]any:
			id = objectID(val)
			if id == "" {
				id = firstID(string(line))
			}
		default:
			id = firstID(string(line))
		}
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func objectID(obj map[string]any) string {
	for _, key := range []string{"vacancy_id", "id"} {
		switch val := obj[key].(type) {
		case string:
			if id := firstID(val); id != "" {
				return id
			}
		case json.Number:
			if id := firstID(val.String()); id != "" {
				return id
			}
		}
	}
	return ""
}
