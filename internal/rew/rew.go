// Package rew reads and writes Room EQ Wizard filter exports.
//
// A REW export lists one band per line:
//
//	Filter  1: ON  PK       Fc   63.00 Hz  Gain  -5.00 dB  Q  4.000
//	Filter  2: ON  LS       Fc   105.0 Hz  Gain   6.00 dB
//	Filter  3: OFF None
//
// Only "ON" peaking and shelf bands are imported. Every other filter line is
// reported as a Skip so the caller can show it, and the rest of the file is
// still read.
package rew

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/linuxmatters/pweq/internal/eq"
)

var (
	// filterLine matches anything that claims to be a filter entry
	filterLine = regexp.MustCompile(`^\s*Filter\s+\d+\s*:`)

	offLine = regexp.MustCompile(`^\s*Filter\s+\d+\s*:\s*OFF\b`)

	typeToken = regexp.MustCompile(`^\s*Filter\s+\d+\s*:\s*ON\s+(\S+)`)

	onLine = regexp.MustCompile(`^\s*Filter\s+\d+\s*:\s*ON\s+(\S+)\s+Fc\s+([-+]?[\d.]+)\s+Hz\s+Gain\s+([-+]?[\d.]+)\s+dB(?:\s+Q\s+([-+]?[\d.]+))?`)
)

// Skip describes a filter line that was not imported
type Skip struct {
	Line   int    // 1-based line number in the source
	Text   string // trimmed line content
	Reason string
}

func (s Skip) String() string {
	return fmt.Sprintf("line %d: %s (%s)", s.Line, s.Text, s.Reason)
}

// Result holds the imported bands plus one Skip per rejected filter line
type Result struct {
	Filters []eq.Filter
	Skipped []Skip
}

// ReadError reports a REW file that could not be opened or read
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read REW file %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError reports an output file that could not be written
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// MaxLineLength is the longest line Parse will look at. Longer lines are
// reported as a Skip and reading carries on with the next line.
const MaxLineLength = 64 * 1024

// Parse reads REW text from r. Output order follows line order; the numbers
// in the "Filter <n>:" labels are ignored. A file with no usable lines
// yields an empty Result and no error.
func Parse(r io.Reader) (Result, error) {
	var result Result

	br := bufio.NewReader(r)
	for lineNo := 1; ; lineNo++ {
		raw, err := readLine(br)
		if err != nil && !errors.Is(err, io.EOF) {
			return Result{}, err
		}

		if len(raw) > MaxLineLength {
			result.Skipped = append(result.Skipped, Skip{
				Line:   lineNo,
				Text:   strings.TrimSpace(raw[:40]) + "...",
				Reason: fmt.Sprintf("line longer than %d bytes", MaxLineLength),
			})
		} else if line := strings.TrimSpace(raw); filterLine.MatchString(line) {
			f, reason := parseLine(line)
			if reason != "" {
				result.Skipped = append(result.Skipped, Skip{Line: lineNo, Text: line, Reason: reason})
			} else {
				result.Filters = append(result.Filters, f)
			}
		}

		if err != nil {
			return result, nil
		}
	}
}

// readLine returns the next line without its terminator. At most
// MaxLineLength+1 bytes are kept, so a longer line is still consumed whole
// but comes back over the limit.
func readLine(br *bufio.Reader) (string, error) {
	var buf []byte
	for {
		chunk, err := br.ReadSlice('\n')
		if room := MaxLineLength + 1 - len(buf); room > 0 {
			buf = append(buf, chunk[:min(room, len(chunk))]...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return strings.TrimRight(string(buf), "\r\n"), err
	}
}

// parseLine parses a single filter line. The returned reason is empty on
// success and describes the rejection otherwise.
func parseLine(line string) (eq.Filter, string) {
	if offLine.MatchString(line) {
		return eq.Filter{}, "filter is OFF"
	}

	t := typeToken.FindStringSubmatch(line)
	if t == nil {
		return eq.Filter{}, "no match"
	}
	kind, err := eq.ParseKind(t[1])
	if err != nil {
		return eq.Filter{}, err.Error()
	}

	m := onLine.FindStringSubmatch(line)
	if m == nil {
		return eq.Filter{}, "no match"
	}

	freq, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return eq.Filter{}, fmt.Sprintf("invalid frequency %q", m[2])
	}

	gain, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return eq.Filter{}, fmt.Sprintf("invalid gain %q", m[3])
	}

	if kind != eq.Peaking {
		return eq.NewShelf(kind, freq, gain), ""
	}

	if m[4] == "" {
		return eq.Filter{}, "missing Q for PK filter"
	}
	q, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return eq.Filter{}, fmt.Sprintf("invalid Q %q", m[4])
	}

	return eq.NewPeaking(freq, gain, q), ""
}

// ParseFile opens and parses a REW export
func ParseFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	result, err := Parse(f)
	if err != nil {
		return Result{}, &ReadError{Path: path, Err: err}
	}
	return result, nil
}

// FormatLine renders one band in the fixed REW column layout.
// The band is always written as ON.
func FormatLine(n int, f eq.Filter) string {
	line := fmt.Sprintf("Filter %d: ON  %-7s Fc   %.2f Hz  Gain  %+.2f dB",
		n, f.Kind().Token(), f.FrequencyHz, f.GainDB)
	if q, ok := f.Q(); ok {
		line += fmt.Sprintf("  Q  %.3f", q)
	}
	return line
}

// Write emits every filter it is given, numbered from 1. Callers that want
// to drop bypassed bands filter with eq.Enabled first.
func Write(w io.Writer, filters []eq.Filter) error {
	for i, f := range filters {
		if _, err := fmt.Fprintln(w, FormatLine(i+1, f)); err != nil {
			return err
		}
	}
	return nil
}

// Format returns the REW text for filters
func Format(filters []eq.Filter) string {
	var sb strings.Builder
	_ = Write(&sb, filters)
	return sb.String()
}

// WriteFile writes the REW text for filters to path
func WriteFile(path string, filters []eq.Filter) error {
	if err := os.WriteFile(path, []byte(Format(filters)), 0644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
