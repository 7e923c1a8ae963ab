// package formatter exports a match session to various formats (JSON, CSV, Markdown, plain text, YAML)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/ndx/internal/models"
	"github.com/desertthunder/ndx/internal/shared"
	"gopkg.in/yaml.v3"
)

// Format names an export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
	FormatYAML     Format = "yaml"
)

// Formats lists the supported formats in the order they are shown in help text.
var Formats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText, FormatYAML}

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	default:
		return string(f)
	}
}

// ParseFormat accepts a format name or a common alias (md, text, yml).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
}

// ExportToJSON renders the whole snapshot as indented JSON.
func ExportToJSON(snap models.SessionSnapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToYAML renders the whole snapshot as YAML.
func ExportToYAML(snap models.SessionSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToCSV writes one row per outcome with columns: Position, Query, Status, ID, Title, Artist, Album, Path.
// Song columns are empty for missing outcomes. Positions are 1-based.
func ExportToCSV(snap models.SessionSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Query", "Status", "ID", "Title", "Artist", "Album", "Path"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, o := range snap.Outcomes {
		var song models.Song
		if o.Song != nil {
			song = *o.Song
		}
		record := []string{
			strconv.Itoa(o.Position + 1),
			o.Query,
			string(o.Status),
			song.ID,
			song.Title,
			song.Artist,
			song.Album,
			song.Path,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func runState(snap models.SessionSnapshot) string {
	if snap.Finalized {
		return "complete"
	}
	return "incomplete"
}

// ExportToMarkdown renders matched songs as a numbered list and missing queries as a bullet list.
// The title defaults to the run id.
func ExportToMarkdown(snap models.SessionSnapshot, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Run " + snap.ID
	}

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Matched**: %d\n", len(snap.Matched))
	fmt.Fprintf(&buf, "**Missing**: %d\n", len(snap.Missing))
	fmt.Fprintf(&buf, "**Status**: %s\n\n", runState(snap))

	buf.WriteString("## Matched\n\n")
	for i, song := range snap.Matched {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, song)
	}

	if len(snap.Missing) > 0 {
		buf.WriteString("\n## Missing\n\n")
		for _, q := range snap.Missing {
			fmt.Fprintf(&buf, "- %s\n", q)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a session to plain text
func ExportToText(snap models.SessionSnapshot) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Run: %s (%s)\n", snap.ID, runState(snap))
	fmt.Fprintf(&buf, "Matched: %d\n", len(snap.Matched))
	fmt.Fprintf(&buf, "Missing: %d\n\n", len(snap.Missing))

	for i, song := range snap.Matched {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, song.Artist, song.Title)
	}

	if len(snap.Missing) > 0 {
		buf.WriteString("\nNot found:\n")
		for _, q := range snap.Missing {
			fmt.Fprintf(&buf, "  %s\n", q)
		}
	}

	return buf.Bytes(), nil
}

// Render exports snap in the given format.
func Render(format Format, snap models.SessionSnapshot) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ExportToJSON(snap)
	case FormatCSV:
		return ExportToCSV(snap)
	case FormatMarkdown:
		return ExportToMarkdown(snap, "")
	case FormatText:
		return ExportToText(snap)
	case FormatYAML:
		return ExportToYAML(snap)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
}

// WriteExport renders snap and writes it to path.
//
// Defaults to ndx_{run id}.{ext} in the working directory. Missing parent directories are created.
func WriteExport(snap models.SessionSnapshot, format Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("ndx_%s.%s", snap.ID, format.Extension())
	}

	data, err := Render(format, snap)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}

	return path, nil
}
