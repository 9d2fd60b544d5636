package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatHTML Format = "html"
	FormatText Format = "text"
)

// WriteFile saves the report as HTML or plain text, adding the matching
// extension when path lacks it, and returns the final path.
func WriteFile(r *Report, path string, format Format) (string, error) {
	var (
		content string
		ext     string
	)
	switch format {
	case FormatHTML, "":
		html, err := r.HTML()
		if err != nil {
			return "", err
		}
		content, ext = html, ".html"
	case FormatText:
		content, ext = r.summaryOrGenerate(), ".txt"
	default:
		return "", fmt.Errorf("unsupported report format %q", format)
	}

	if !strings.EqualFold(filepath.Ext(path), ext) {
		path += ext
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func (r *Report) summaryOrGenerate() string {
	if r.Summary != "" {
		return r.Summary
	}
	return r.GenerateSummary()
}
