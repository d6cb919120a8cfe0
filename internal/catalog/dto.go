package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	"github.com/arlomercer/beatvault-backend/pkg/pagination"
)

// BeatDTO is the storefront view of a listing. Deliverable asset URLs are
// withheld; buyers only ever see the cover and preview.
type BeatDTO struct {
	ID                uuid.UUID `json:"id"`
	Title             string    `json:"title"`
	BeatNumber        string    `json:"beatNumber"`
	BPM               int       `json:"bpm"`
	MusicalKey        string    `json:"musicalKey"`
	Genres            string    `json:"genres"`
	TrackType         string    `json:"trackType"`
	Tags              []string  `json:"tags"`
	DurationSeconds   int       `json:"durationSeconds"`
	CoverImageURL     string    `json:"coverImageUrl"`
	PreviewMP3URL     string    `json:"previewMp3Url"`
	HasStems          bool      `json:"hasStems"`
	HasMIDI           bool      `json:"hasMidi"`
	NonExclusivePrice string    `json:"nonExclusivePrice"`
	ExclusivePrice    string    `json:"exclusivePrice"`
	BuyoutPrice       string    `json:"buyoutPrice"`
	CreatedAt         time.Time `json:"createdAt"`
}

// AdminBeatDTO extends the storefront view with the gated asset URLs and the
// active flag for catalog management.
type AdminBeatDTO struct {
	BeatDTO
	WavURL    string    `json:"wavUrl"`
	StemsURL  *string   `json:"stemsUrl,omitempty"`
	MIDIURL   *string   `json:"midiUrl,omitempty"`
	IsActive  bool      `json:"isActive"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeatListResult is one page of storefront listings.
type BeatListResult struct {
	Beats []BeatDTO       `json:"beats"`
	Meta  pagination.Meta `json:"meta"`
}

// AdminBeatListResult is one page of admin listings.
type AdminBeatListResult struct {
	Beats []AdminBeatDTO  `json:"beats"`
	Meta  pagination.Meta `json:"meta"`
}

// NewBeatDTO maps a catalog row to its storefront view.
func NewBeatDTO(beat *models.Beat) *BeatDTO {
	if beat == nil {
		return nil
	}
	return &BeatDTO{
		ID:                beat.ID,
		Title:             beat.Title,
		BeatNumber:        beat.BeatNumber,
		BPM:               beat.BPM,
		MusicalKey:        beat.MusicalKey,
		Genres:            beat.Genres,
		TrackType:         beat.TrackType,
		Tags:              append([]string(nil), beat.Tags...),
		DurationSeconds:   beat.DurationSeconds,
		CoverImageURL:     beat.CoverImageURL,
		PreviewMP3URL:     beat.PreviewMP3URL,
		HasStems:          beat.StemsURL != nil && *beat.StemsURL != "",
		HasMIDI:           beat.MIDIURL != nil && *beat.MIDIURL != "",
		NonExclusivePrice: beat.NonExclusivePrice.StringFixed(2),
		ExclusivePrice:    beat.ExclusivePrice.StringFixed(2),
		BuyoutPrice:       beat.BuyoutPrice.StringFixed(2),
		CreatedAt:         beat.CreatedAt,
	}
}

// NewAdminBeatDTO maps a catalog row to its admin view.
func NewAdminBeatDTO(beat *models.Beat) *AdminBeatDTO {
	if beat == nil {
		return nil
	}
	return &AdminBeatDTO{
		BeatDTO:   *NewBeatDTO(beat),
		WavURL:    beat.WavURL,
		StemsURL:  beat.StemsURL,
		MIDIURL:   beat.MIDIURL,
		IsActive:  beat.IsActive,
		UpdatedAt: beat.UpdatedAt,
	}
}
