package chat

import (
	"context"

	"github.com/healthguard/assistant/pkg/pagination"
)

// SearchLimit caps chat log search results.
const SearchLimit = 50

// LogRepository is the append-only chat log.
type LogRepository interface {
	Append(ctx context.Context, r *Record) error
	// Search returns the patient's records whose user message contains
	// keyword (case-insensitive), newest first. An empty keyword matches all.
	// page.Limit is capped at SearchLimit.
	Search(ctx context.Context, patientID, keyword string, page pagination.Params) ([]*Record, error)
}
