// Package export moves saved view definitions and seed records in and out of
// the engine as JSON documents.
package export

import (
	"time"

	"viewengine/internal/domain"
)

const FormatVersion = "1.0"

// ViewExport is the document written by Exporter and read by Importer.
type ViewExport struct {
	Version    string      `json:"version"`
	Timestamp  time.Time   `json:"timestamp"`
	EntityType string      `json:"entity_type"`
	Views      []*ViewData `json:"views"`
}

// ViewData is a portable view definition. Ownership, ids and cached counts
// are not exported; the importing user owns every imported view.
type ViewData struct {
	Name       string            `json:"name"`
	Visibility domain.Visibility `json:"visibility"`
	Pinned     bool              `json:"pinned"`
	Layout     domain.ViewLayout `json:"layout"`
}

// ImportSummary reports what an import did, by view name.
type ImportSummary struct {
	Created     []string `json:"created"`
	Overwritten []string `json:"overwritten,omitempty"`
	Skipped     []string `json:"skipped,omitempty"`
}

type ConflictStrategy string

const (
	ConflictStrategySkip      ConflictStrategy = "skip"
	ConflictStrategyOverwrite ConflictStrategy = "overwrite"
	ConflictStrategyRename    ConflictStrategy = "rename"
)

func (s ConflictStrategy) IsValid() bool {
	switch s {
	case ConflictStrategySkip, ConflictStrategyOverwrite, ConflictStrategyRename:
		return true
	}
	return false
}
