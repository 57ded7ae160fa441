// Package chunker converts a directory of source PDFs into the ordered
// list of retrieval units the indices are built from.
package chunker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role vocabulary is closed: role assignment happens once at ingestion
// time from the source filename and never changes afterwards.
const (
	RoleStaff = "staff"
	RoleLegal = "legal"
	RoleAdmin = "admin"
)

// ArticleUnknown labels a chunk whose structure detection failed entirely.
const ArticleUnknown = "Unknown"

// Chunk is the atomic retrieval unit. Text is stored untruncated;
// NormText is only ever used for lexical scoring and substring checks.
type Chunk struct {
	ID        uuid.UUID `json:"id"`
	DocID     string    `json:"doc_id"`
	ArticleNo string    `json:"article_no"`
	PageStart int       `json:"page_start"`
	PageEnd   int       `json:"page_end"`
	LineStart int       `json:"line_start,omitempty"`
	LineEnd   int       `json:"line_end,omitempty"`
	Text      string    `json:"text"`
	NormText  string    `json:"norm_text"`
	Roles     []string  `json:"roles"`
}

// HasAnyRole reports whether the chunk's role set intersects the caller's,
// case-insensitively. An empty intersection excludes the chunk entirely.
func (c *Chunk) HasAnyRole(roles []string) bool {
	for _, want := range roles {
		for _, have := range c.Roles {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

// RolesFromFilename assigns the access-role set for every chunk of a
// document. Filenames carrying a "restricted" marker get the reduced set;
// everything else gets the full set. There is no per-chunk override.
func RolesFromFilename(filename string) []string {
	if strings.Contains(strings.ToLower(filename), "restricted") {
		return []string{RoleLegal, RoleAdmin}
	}
	return []string{RoleStaff, RoleLegal, RoleAdmin}
}

// buildChunkID derives a stable UUID for a chunk so that rebuilding from
// an unchanged corpus reproduces identical IDs.
func buildChunkID(docID, articleNo string, pageStart, pageEnd, seq int) uuid.UUID {
	basis := fmt.Sprintf("%s|%s|%d|%d|%d", docID, articleNo, pageStart, pageEnd, seq)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(basis))
}
