// Package dataset loads the cleaned CSV datasets behind the overview pages.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Options controls how a CSV file is read.
type Options struct {
	Name     string
	Encoding string
	Required []string
	Rules    []Rule
}

// Decoder returns the x/text decoder for a charset name.
func Decoder(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM.NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1.NewDecoder(), nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", name)
}

// Load reads a CSV file into a Frame.
func Load(path string, opts Options) (*Frame, Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Report{}, &LoadError{Path: path, Err: err}
	}
	defer file.Close()

	if opts.Name == "" {
		opts.Name = path
	}
	frame, report, err := Parse(file, opts)
	if err != nil {
		return nil, report, &LoadError{Path: path, Err: err}
	}
	return frame, report, nil
}

// Parse reads CSV from r. The first record is the header.
func Parse(r io.Reader, opts Options) (*Frame, Report, error) {
	report := newReport()

	dec, err := Decoder(opts.Encoding)
	if err != nil {
		return nil, report, err
	}
	reader := csv.NewReader(transform.NewReader(r, dec))
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, report, errors.New("empty file")
	}
	if err != nil {
		return nil, report, fmt.Errorf("read header: %w", err)
	}
	frame, err := newFrame(opts.Name, header, nil)
	if err != nil {
		return nil, report, err
	}
	for _, col := range opts.Required {
		if !frame.HasColumn(col) {
			return nil, report, &ColumnError{Frame: opts.Name, Column: col}
		}
	}

	rules := append([]Rule{WidthRule{}}, opts.Rules...)
	header = frame.columns

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, report, fmt.Errorf("read record %d: %w", report.Total+1, err)
		}
		report.Total++

		rejected := false
		for _, rule := range rules {
			if err := rule.Check(header, record); err != nil {
				report.reject(rule.Name())
				rejected = true
				break
			}
		}
		if rejected {
			report.Rejected++
			continue
		}
		report.Passed++
		rows = append(rows, record)
	}

	frame.rows = rows
	return frame, report, nil
}

func trimmed(s string) string { return strings.TrimSpace(s) }
