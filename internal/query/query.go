// Package query turns free text, files and audio libraries into the ordered list of search queries.
package query

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/ndx/internal/shared"
)

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Extract splits text into one query per non-blank line.
//
// Lines are trimmed of surrounding whitespace; order and duplicates are kept and case is untouched.
// Text with no non-blank line yields [shared.ErrEmptyInput].
func Extract(text string) ([]string, error) {
	var queries []string
	for _, line := range strings.Split(lineBreaks.Replace(text), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			queries = append(queries, line)
		}
	}

	if len(queries) == 0 {
		return nil, shared.ErrEmptyInput
	}
	return queries, nil
}

// FromReader reads r to the end and extracts its lines.
func FromReader(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read queries: %w", err)
	}
	return Extract(string(data))
}

// FromFile extracts the lines of the file at path.
func FromFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}
	return Extract(string(data))
}

// FromArgs treats each argument as a block of text, so quoted multi-line arguments work too.
func FromArgs(args []string) ([]string, error) {
	return Extract(strings.Join(args, "\n"))
}
