package chunker

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"article-finder/normalize"

	"go.uber.org/zap"
)

// headingPattern detects structural unit markers at the start of a line.
// Labels may be decimal (possibly dotted), roman, or a single letter.
var headingPattern = regexp.MustCompile(`^\s*(?i:article|section|chapter)\s+(\d+(?:\.\d+)*|[IVXLCivxlc]+|[A-Za-z])\b`)

// Segmenter splits extracted document text into chunks. Tier one follows
// detected article/section headings; tier two falls back to fixed-size
// word windows when a document has no detectable structure.
type Segmenter struct {
	minChunkChars int
	targetWords   int
	logger        *zap.Logger
}

func NewSegmenter(minChunkChars, targetWords int, logger *zap.Logger) *Segmenter {
	if minChunkChars <= 0 {
		minChunkChars = 300
	}
	if targetWords <= 0 {
		targetWords = 400
	}
	return &Segmenter{
		minChunkChars: minChunkChars,
		targetWords:   targetWords,
		logger:        logger,
	}
}

// taggedLine carries page/line provenance through segmentation.
type taggedLine struct {
	Page int
	Line int
	Text string
}

// rawChunk is a chunk before normalization and ID assignment.
type rawChunk struct {
	articleNo string
	pageStart int
	pageEnd   int
	lineStart int
	lineEnd   int
	text      string
}

// SegmentDocument converts one extracted document into its ordered chunks.
func (s *Segmenter) SegmentDocument(docID string, pages []page, roles []string) []Chunk {
	lines := flattenPages(pages)
	if len(lines) == 0 {
		return nil
	}

	raw := s.segmentStructured(lines)
	if raw == nil {
		s.logger.Debug("No headings detected, using fixed-size windows",
			zap.String("doc_id", docID))
		raw = s.segmentWindows(lines)
	}
	raw = s.mergeShortChunks(raw)

	chunks := make([]Chunk, 0, len(raw))
	for seq, rc := range raw {
		text := strings.TrimSpace(rc.text)
		if text == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			ID:        buildChunkID(docID, rc.articleNo, rc.pageStart, rc.pageEnd, seq),
			DocID:     docID,
			ArticleNo: rc.articleNo,
			PageStart: rc.pageStart,
			PageEnd:   rc.pageEnd,
			LineStart: rc.lineStart,
			LineEnd:   rc.lineEnd,
			Text:      text,
			NormText:  normalize.Normalize(text),
			Roles:     roles,
		})
	}
	return chunks
}

func flattenPages(pages []page) []taggedLine {
	var lines []taggedLine
	for _, p := range pages {
		for i, text := range p.Lines {
			lines = append(lines, taggedLine{Page: p.Number, Line: i + 1, Text: text})
		}
	}
	return lines
}

// segmentStructured splits on heading markers. A chunk runs from its
// heading line to the line before the next heading. Text preceding the
// first heading keeps the Unknown sentinel. Returns nil when the document
// has no headings at all, signalling the fallback pass.
func (s *Segmenter) segmentStructured(lines []taggedLine) []rawChunk {
	var chunks []rawChunk
	var current *rawChunk
	sawHeading := false

	for _, line := range lines {
		if m := headingPattern.FindStringSubmatch(line.Text); m != nil {
			sawHeading = true
			if current != nil {
				chunks = append(chunks, *current)
			}
			current = &rawChunk{
				articleNo: m[1],
				pageStart: line.Page,
				pageEnd:   line.Page,
				lineStart: line.Line,
				lineEnd:   line.Line,
				text:      line.Text,
			}
			continue
		}

		if current == nil {
			current = &rawChunk{
				articleNo: ArticleUnknown,
				pageStart: line.Page,
				pageEnd:   line.Page,
				lineStart: line.Line,
				lineEnd:   line.Line,
				text:      line.Text,
			}
			continue
		}
		current.text += "\n" + line.Text
		current.pageEnd = line.Page
		current.lineEnd = line.Line
	}

	if !sawHeading {
		return nil
	}
	if current != nil {
		chunks = append(chunks, *current)
	}
	return chunks
}

// segmentWindows accumulates lines in reading order into windows of
// roughly targetWords words. Labels are positional placeholders.
func (s *Segmenter) segmentWindows(lines []taggedLine) []rawChunk {
	var chunks []rawChunk
	var current *rawChunk
	partOnPage := make(map[int]int)
	words := 0

	flush := func() {
		if current == nil {
			return
		}
		partOnPage[current.pageStart]++
		current.articleNo = fmt.Sprintf("Page %d-Part%d", current.pageStart, partOnPage[current.pageStart])
		chunks = append(chunks, *current)
		current = nil
		words = 0
	}

	for _, line := range lines {
		if current == nil {
			current = &rawChunk{
				pageStart: line.Page,
				pageEnd:   line.Page,
				lineStart: line.Line,
				lineEnd:   line.Line,
				text:      line.Text,
			}
		} else {
			current.text += "\n" + line.Text
			current.pageEnd = line.Page
			current.lineEnd = line.Line
		}
		words += len(strings.Fields(line.Text))
		if words >= s.targetWords {
			flush()
		}
	}
	flush()
	return chunks
}

// mergeShortChunks absorbs the following chunk into any chunk shorter
// than the minimum length, so near-empty units neither pollute nor
// starve ranking. The absorbing chunk keeps its label and extends its
// page/line end to the absorbed chunk's.
func (s *Segmenter) mergeShortChunks(chunks []rawChunk) []rawChunk {
	if len(chunks) < 2 {
		return chunks
	}
	var merged []rawChunk
	var buffer *rawChunk
	for i := range chunks {
		if buffer == nil {
			c := chunks[i]
			buffer = &c
			continue
		}
		if len(buffer.text) < s.minChunkChars {
			buffer.text += "\n" + chunks[i].text
			buffer.pageEnd = chunks[i].pageEnd
			buffer.lineEnd = chunks[i].lineEnd
			continue
		}
		merged = append(merged, *buffer)
		c := chunks[i]
		buffer = &c
	}
	if buffer != nil {
		merged = append(merged, *buffer)
	}
	return merged
}

// ProcessDirectory runs extraction and segmentation over every PDF in a
// directory, in filename order so rebuilds are deterministic. Documents
// that fail extraction or yield no text are skipped with a warning and
// never abort the build.
func (s *Segmenter) ProcessDirectory(dir string) ([]Chunk, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus directory: %w", err)
	}

	var chunks []Chunk
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		docID := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		roles := RolesFromFilename(entry.Name())

		pages, err := extractPDF(path, s.logger)
		if err != nil {
			s.logger.Warn("Skipping unreadable document",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		if len(pages) == 0 {
			s.logger.Warn("Document yielded no extractable text, skipping",
				zap.String("path", path))
			continue
		}

		docChunks := s.SegmentDocument(docID, pages, roles)
		s.logger.Info("Segmented document",
			zap.String("doc_id", docID),
			zap.Strings("roles", roles),
			zap.Int("chunks", len(docChunks)))
		chunks = append(chunks, docChunks...)
	}
	return chunks, nil
}
