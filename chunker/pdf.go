package chunker

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// page holds the extracted text of one PDF page, split into lines so the
// segmenter can attribute line ranges to chunks.
type page struct {
	Number int
	Lines  []string
}

// extractPDF pulls text out of every page of a PDF. Pages that yield no
// text are skipped; a document where every page is empty yields nil.
func extractPDF(path string, logger *zap.Logger) ([]page, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	totalPages := r.NumPage()
	logger.Debug("Extracting text from PDF",
		zap.String("path", path),
		zap.Int("pages", totalPages))

	var pages []page
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		p := r.Page(pageNum)
		if p.V.IsNull() {
			logger.Warn("Skipping null page",
				zap.String("path", path),
				zap.Int("page", pageNum))
			continue
		}

		lines := extractPageLines(p)
		if len(lines) == 0 {
			// Row extraction can fail on exotic encodings; fall back to
			// the plain-text reader before giving up on the page.
			text, err := p.GetPlainText(nil)
			if err != nil {
				logger.Warn("Failed to extract text from page",
					zap.String("path", path),
					zap.Int("page", pageNum),
					zap.Error(err))
				continue
			}
			lines = splitLines(text)
		}
		if len(lines) == 0 {
			continue
		}
		pages = append(pages, page{Number: pageNum, Lines: lines})
	}

	logger.Info("PDF text extraction completed",
		zap.String("path", path),
		zap.Int("pages", totalPages),
		zap.Int("pages_with_text", len(pages)))

	return pages, nil
}

// extractPageLines reads a page row by row, preserving line structure.
func extractPageLines(p pdf.Page) []string {
	rows, err := p.GetTextByRow()
	if err != nil {
		return nil
	}
	var lines []string
	for _, row := range rows {
		var b strings.Builder
		for _, word := range row.Content {
			if b.Len() > 0 && needsSpace(b.String(), word.S) {
				b.WriteString(" ")
			}
			b.WriteString(word.S)
		}
		line := strings.TrimSpace(b.String())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// needsSpace guards against gluing separately positioned text runs
// together when the extractor drops the whitespace between them.
func needsSpace(prev, next string) bool {
	if prev == "" || next == "" {
		return false
	}
	last := prev[len(prev)-1]
	first := next[0]
	return last != ' ' && first != ' '
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
