// Package parser turns raw text lines into typed group identifiers using an
// ordered set of format strategies.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParsedIdentifier is a typed reference to an external group. At least one of
// ID and ScreenName is set; both are set for a canonical club<id> token.
// Immutable once produced.
type ParsedIdentifier struct {
	Raw        string
	Line       int
	ID         int64 // 0 = unset
	ScreenName string
	Strategy   string
}

// Ref returns the reference string the directory service understands
func (p *ParsedIdentifier) Ref() string {
	if p.ID > 0 {
		return strconv.FormatInt(p.ID, 10)
	}
	return p.ScreenName
}

// ParseError describes a single failed or duplicated line. Accumulated, never
// fatal to the overall parse.
type ParseError struct {
	Line      int
	Raw       string
	Reason    string
	Duplicate bool // intra-file duplicate id, tallied separately from invalid lines
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s (%q)", e.Line, e.Reason, e.Raw)
}

// FileResult aggregates one file's parse outcome
type FileResult struct {
	Identifiers []*ParsedIdentifier
	Errors      []*ParseError
	Skipped     int // blank and comment-only lines, not counted toward the task total
}

// DuplicateCount returns how many errors are intra-file duplicates
func (r *FileResult) DuplicateCount() int {
	n := 0
	for _, e := range r.Errors {
		if e.Duplicate {
			n++
		}
	}
	return n
}

// InvalidCount returns how many errors are plain parse failures
func (r *FileResult) InvalidCount() int {
	return len(r.Errors) - r.DuplicateCount()
}

// LineParser matches lines against its strategies in priority order
type LineParser struct {
	strategies []Strategy
}

// NewLineParser creates a parser with the given strategies, or the default
// set when none are supplied. The strategy list is fixed per parser; swapping
// formats means constructing a new parser, not touching the matching loop.
func NewLineParser(strategies ...Strategy) *LineParser {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &LineParser{strategies: strategies}
}

// Parse matches one pre-cleaned line. The first strategy whose CanParse
// returns true is used; its Parse failure fails the line with no fallback.
func (p *LineParser) Parse(line string, lineNumber int) (*ParsedIdentifier, *ParseError) {
	for _, strategy := range p.strategies {
		if !strategy.CanParse(line) {
			continue
		}
		ident, err := strategy.Parse(line)
		if err != nil {
			return nil, &ParseError{Line: lineNumber, Raw: line, Reason: err.Error()}
		}
		ident.Line = lineNumber
		return ident, nil
	}
	return nil, &ParseError{Line: lineNumber, Raw: line, Reason: "unrecognized identifier format"}
}

// ParseFile reads newline-delimited text, cleaning each line (trim, strip
// trailing # comments, skip blanks) before matching. A per-file seen-set of
// ids flags later occurrences of an already-parsed id as duplicate errors;
// the first occurrence stands.
func (p *LineParser) ParseFile(r io.Reader) (*FileResult, error) {
	result := &FileResult{}
	seen := make(map[int64]int) // id -> first line number

	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := CleanLine(scanner.Text())
		if line == "" {
			result.Skipped++
			continue
		}

		ident, parseErr := p.Parse(line, lineNumber)
		if parseErr != nil {
			result.Errors = append(result.Errors, parseErr)
			continue
		}

		if ident.ID > 0 {
			if first, dup := seen[ident.ID]; dup {
				result.Errors = append(result.Errors, &ParseError{
					Line:      lineNumber,
					Raw:       line,
					Reason:    fmt.Sprintf("duplicate group id %d, first seen at line %d", ident.ID, first),
					Duplicate: true,
				})
				continue
			}
			seen[ident.ID] = lineNumber
		}

		result.Identifiers = append(result.Identifiers, ident)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	return result, nil
}

// CleanLine trims whitespace and strips a trailing # comment
func CleanLine(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
