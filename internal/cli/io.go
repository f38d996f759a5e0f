package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kailas-cloud/emvex/internal/domain"
)

// maxLineBytes bounds a single input line. Documents larger than this are
// rejected instead of silently truncated.
const maxLineBytes = 1 << 20

// collectTexts merges positional arguments with the lines of --file.
// "-" reads stdin. Blank lines are skipped.
func collectTexts(args []string, file string) ([]string, error) {
	texts := append([]string(nil), args...)
	if file == "" {
		return texts, nil
	}

	r, closeFn, err := openInput(file)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	scanner := newLineScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			texts = append(texts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return texts, nil
}

// docLine is the JSON Lines layout accepted by the index command.
type docLine struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// readDocuments parses a JSON Lines file into documents. "-" reads stdin.
func readDocuments(file string) ([]domain.Document, error) {
	r, closeFn, err := openInput(file)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var docs []domain.Document
	scanner := newLineScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var d docLine
		if err := json.Unmarshal([]byte(line), &d); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", file, n, err)
		}
		if d.Text == "" {
			return nil, fmt.Errorf("%s line %d: document has no text", file, n)
		}
		docs = append(docs, domain.Document{ID: d.ID, Text: d.Text, Metadata: d.Metadata})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return docs, nil
}

// parseFilter turns repeated key=value flags into a metadata filter.
func parseFilter(pairs []string) (domain.Filter, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	f := make(domain.Filter, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("filter %q is not key=value", p)
		}
		f[k] = v
	}
	return f, nil
}

func openInput(file string) (io.Reader, func(), error) {
	if file == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return s
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// truncate shortens s to at most n runes for single-line display.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
