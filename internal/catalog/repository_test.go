package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	"github.com/arlomercer/beatvault-backend/pkg/pagination"
)

func mustCreateTestBeat(t *testing.T, tx *gorm.DB, mutate func(*models.Beat)) *models.Beat {
	t.Helper()
	beat := &models.Beat{
		Title:             "Test Beat",
		BeatNumber:        fmt.Sprintf("BV-%s", uuid.NewString()[:8]),
		BPM:               140,
		MusicalKey:        "C# minor",
		Genres:            "Trap",
		TrackType:         "beat",
		Tags:              pq.StringArray{"dark", "808"},
		DurationSeconds:   187,
		CoverImageURL:     "https://cdn.example.com/covers/test.jpg",
		PreviewMP3URL:     "https://cdn.example.com/previews/test.mp3",
		WavURL:            "https://cdn.example.com/wavs/test.wav",
		NonExclusivePrice: decimal.RequireFromString("9.99"),
		ExclusivePrice:    decimal.RequireFromString("199.00"),
		BuyoutPrice:       decimal.RequireFromString("999.00"),
		IsActive:          true,
	}
	if mutate != nil {
		mutate(beat)
	}
	if err := tx.Create(beat).Error; err != nil {
		t.Fatalf("create beat: %v", err)
	}
	return beat
}

func TestRepositoryBeatFlow(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()

	beat := mustCreateTestBeat(t, tx, nil)
	if beat.ID == uuid.Nil {
		t.Fatal("expected beat id to be generated")
	}

	fetched, err := repo.FindByID(ctx, beat.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if fetched.BeatNumber != beat.BeatNumber {
		t.Fatalf("expected beat number %s, got %s", beat.BeatNumber, fetched.BeatNumber)
	}

	fetched.Title = "Updated Title"
	if _, err := repo.UpdateBeat(ctx, fetched); err != nil {
		t.Fatalf("update beat: %v", err)
	}

	again, err := repo.FindByID(ctx, beat.ID)
	if err != nil {
		t.Fatalf("find after update: %v", err)
	}
	if again.Title != "Updated Title" {
		t.Fatalf("expected updated title, got %s", again.Title)
	}

	if err := repo.DeleteBeat(ctx, beat.ID); err != nil {
		t.Fatalf("delete beat: %v", err)
	}
	if _, err := repo.FindByID(ctx, beat.ID); err == nil {
		t.Fatal("expected not found after delete")
	}
}

func TestRepositoryListBeatsFilters(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()

	active := mustCreateTestBeat(t, tx, func(b *models.Beat) {
		b.Title = "Night Drive"
		b.Genres = "Synthwave"
	})
	mustCreateTestBeat(t, tx, func(b *models.Beat) {
		b.Title = "Hidden Cut"
		b.IsActive = false
	})

	page := pagination.Params{Page: 1, PerPage: 12}

	beats, _, err := repo.ListBeats(ctx, beatListQuery{
		Pagination: page,
		Filters:    BeatListFilters{Query: "night"},
	})
	if err != nil {
		t.Fatalf("list beats: %v", err)
	}
	found := false
	for _, b := range beats {
		if b.ID == active.ID {
			found = true
		}
		if b.Title == "Hidden Cut" {
			t.Fatal("inactive beat leaked into storefront listing")
		}
	}
	if !found {
		t.Fatal("expected query match for active beat")
	}

	all, _, err := repo.ListBeats(ctx, beatListQuery{
		Pagination:      page,
		Filters:         BeatListFilters{Query: "hidden"},
		IncludeInactive: true,
	})
	if err != nil {
		t.Fatalf("list beats admin: %v", err)
	}
	if len(all) == 0 {
		t.Fatal("expected inactive beat in admin listing")
	}
}
