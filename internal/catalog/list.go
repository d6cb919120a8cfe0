package catalog

import (
	"github.com/arlomercer/beatvault-backend/pkg/pagination"
)

// BeatListFilters describe the supported filter knobs for the browse endpoint.
type BeatListFilters struct {
	Query     string  `json:"q,omitempty"`
	Genre     string  `json:"genre,omitempty"`
	TrackType string  `json:"track_type,omitempty"`
	Tag       string  `json:"tag,omitempty"`
	Key       string  `json:"key,omitempty"`
	BPMMin    *int    `json:"bpm_min,omitempty"`
	BPMMax    *int    `json:"bpm_max,omitempty"`
	PriceMin  *string `json:"price_min,omitempty"`
	PriceMax  *string `json:"price_max,omitempty"`
}

// ListBeatsInput captures the inputs needed to paginate and filter listings.
type ListBeatsInput struct {
	Filters         BeatListFilters
	Pagination      pagination.Params
	IncludeInactive bool
}
