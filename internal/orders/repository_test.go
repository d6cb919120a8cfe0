package orders

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	"github.com/arlomercer/beatvault-backend/pkg/enums"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("BEATVAULT_DB_DSN")
	if dsn == "" {
		t.Skip("BEATVAULT_DB_DSN is not set")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	return conn
}

func seedOrder(t *testing.T, tx *gorm.DB) *models.Order {
	t.Helper()

	beat := &models.Beat{
		Title:             "Cold Static",
		BeatNumber:        uuid.NewString()[:5],
		BPM:               140,
		MusicalKey:        "F#m",
		Genres:            "trap",
		TrackType:         "beat",
		DurationSeconds:   184,
		CoverImageURL:     "https://cdn.example.com/covers/cold-static.jpg",
		PreviewMP3URL:     "https://cdn.example.com/previews/cold-static.mp3",
		WavURL:            "https://cdn.example.com/wavs/cold-static.wav",
		NonExclusivePrice: decimal.RequireFromString("19.99"),
		ExclusivePrice:    decimal.RequireFromString("99.00"),
		BuyoutPrice:       decimal.RequireFromString("599.00"),
		IsActive:          true,
	}
	require.NoError(t, tx.Create(beat).Error)

	order := &models.Order{
		PayPalOrderID: fmt.Sprintf("PP-%s", uuid.NewString()),
		BeatID:        beat.ID,
		LicenseType:   enums.LicenseTypeExclusive,
		AddonTypes:    []string{string(enums.AddonTypeStems)},
		Amount:        decimal.RequireFromString("299.00"),
		Status:        enums.OrderStatusPending,
	}
	require.NoError(t, tx.Create(order).Error)
	return order
}

func TestRepositoryFindByPayPalOrderIDPreloadsBeat(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	t.Cleanup(func() { tx.Rollback() })

	repo := NewRepository(tx)
	seeded := seedOrder(t, tx)

	found, err := repo.FindByPayPalOrderID(context.Background(), seeded.PayPalOrderID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)
	require.NotNil(t, found.Beat)
	assert.Equal(t, "Cold Static", found.Beat.Title)
}

func TestRepositoryTransitionFromPendingMovesOnce(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	t.Cleanup(func() { tx.Rollback() })

	repo := NewRepository(tx)
	seeded := seedOrder(t, tx)

	moved, err := repo.TransitionFromPending(context.Background(), seeded.ID, enums.OrderStatusCompleted, "buyer@example.com")
	require.NoError(t, err)
	assert.True(t, moved)

	// A second transition must not touch the settled row.
	moved, err = repo.TransitionFromPending(context.Background(), seeded.ID, enums.OrderStatusFailed, "")
	require.NoError(t, err)
	assert.False(t, moved)

	found, err := repo.FindByPayPalOrderID(context.Background(), seeded.PayPalOrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, found.Status)
	assert.Equal(t, "buyer@example.com", found.CustomerEmail)
}

func TestRepositoryTransitionUnknownOrder(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	t.Cleanup(func() { tx.Rollback() })

	repo := NewRepository(tx)

	moved, err := repo.TransitionFromPending(context.Background(), uuid.New(), enums.OrderStatusFailed, "")
	require.NoError(t, err)
	assert.False(t, moved)
}
