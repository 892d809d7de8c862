// Package report renders mass-response results as text, JSON, YAML or CSV.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/hhcli/internal/respond"
)

// Format selects the report encoding.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
	CSV  Format = "csv"
)

// CSVHeader is the column order of CSV reports.
var CSVHeader = []string{"vacancy_id", "status", "http_code", "negotiation_id", "error", "request_id"}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Text, JSON, YAML, CSV:
		return f, nil
	case "yml":
		return YAML, nil
	case "":
		return Text, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, json, yaml or csv)", s)
	}
}

// FormatForPath guesses the format from a file extension, defaulting to text.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON
	case ".yaml", ".yml":
		return YAML
	case ".csv":
		return CSV
	default:
		return Text
	}
}

// Write renders r to w.
func Write(w io.Writer, f Format, r *respond.Result) error {
	if r == nil {
		return fmt.Errorf("no result to report")
	}
	switch f {
	case Text, "":
		return writeText(w, r)
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode yaml report: %w", err)
		}
		return enc.Close()
	case CSV:
		return writeCSV(w, r.Outcomes)
	default:
		return fmt.Errorf("unknown report format %q", f)
	}
}

// WriteFile renders r into path, creating parent directories.
func WriteFile(path string, f Format, r *respond.Result) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return Write(file, f, r)
}

func writeCSV(w io.Writer, outcomes []respond.Outcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, o := range outcomes {
		code := ""
		if o.HTTPStatus != 0 {
			code = strconv.Itoa(o.HTTPStatus)
		}
		if err := cw.Write([]string{o.TargetID, string(o.Status), code, o.NegotiationID, o.Reason, o.RequestID}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
