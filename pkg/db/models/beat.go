package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Beat represents a catalog listing: one licensable instrumental with its
// asset URLs and the three price points.
type Beat struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title             string          `gorm:"column:title;not null"`
	BeatNumber        string          `gorm:"column:beat_number;not null;uniqueIndex"`
	BPM               int             `gorm:"column:bpm;not null"`
	MusicalKey        string          `gorm:"column:musical_key;not null"`
	Genres            string          `gorm:"column:genres;not null"`
	TrackType         string          `gorm:"column:track_type;not null"`
	Tags              pq.StringArray  `gorm:"column:tags;type:text[];not null;default:ARRAY[]::text[]"`
	DurationSeconds   int             `gorm:"column:duration_seconds;not null"`
	CoverImageURL     string          `gorm:"column:cover_image_url;not null"`
	PreviewMP3URL     string          `gorm:"column:preview_mp3_url;not null"`
	WavURL            string          `gorm:"column:wav_url;not null"`
	StemsURL          *string         `gorm:"column:stems_url"`
	MIDIURL           *string         `gorm:"column:midi_url"`
	NonExclusivePrice decimal.Decimal `gorm:"column:non_exclusive_price;type:numeric(12,2);not null"`
	ExclusivePrice    decimal.Decimal `gorm:"column:exclusive_price;type:numeric(12,2);not null"`
	BuyoutPrice       decimal.Decimal `gorm:"column:buyout_price;type:numeric(12,2);not null"`
	IsActive          bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// AssetURLs returns every storage URL attached to the beat, skipping unset
// optional deliverables.
func (b *Beat) AssetURLs() []string {
	urls := []string{b.CoverImageURL, b.PreviewMP3URL, b.WavURL}
	if b.StemsURL != nil && *b.StemsURL != "" {
		urls = append(urls, *b.StemsURL)
	}
	if b.MIDIURL != nil && *b.MIDIURL != "" {
		urls = append(urls, *b.MIDIURL)
	}
	return urls
}
