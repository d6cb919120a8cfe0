package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arlomercer/beatvault-backend/pkg/config"
	"github.com/arlomercer/beatvault-backend/pkg/db"
	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	"github.com/arlomercer/beatvault-backend/pkg/enums"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
)

// seed installs the static reference data the storefront sells against. It is
// safe to run repeatedly: existing rows are left untouched.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := seedLicenses(ctx, tx); err != nil {
			return err
		}
		if err := seedAddons(ctx, tx); err != nil {
			return err
		}
		return seedAdmin(ctx, tx)
	}); err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}

	logg.Info(ctx, "seed complete")
}

func seedLicenses(ctx context.Context, tx *gorm.DB) error {
	licenses := []models.License{
		{
			Name:        "Non-Exclusive",
			Type:        enums.LicenseTypeNonExclusive,
			Description: "MP3 and WAV delivery. The beat stays available for other artists.",
			BasePrice:   decimal.RequireFromString("19.99"),
			Rights:      []string{"Streaming up to 100k plays", "One music video", "Non-profit live performance"},
			AllowsStems: false,
			IsActive:    true,
		},
		{
			Name:        "Exclusive",
			Type:        enums.LicenseTypeExclusive,
			Description: "Untagged WAV master. The listing is retired from the storefront.",
			BasePrice:   decimal.RequireFromString("99.00"),
			Rights:      []string{"Unlimited streaming", "Unlimited music videos", "Paid live performance"},
			AllowsStems: true,
			IsActive:    true,
		},
		{
			Name:        "Buyout",
			Type:        enums.LicenseTypeBuyout,
			Description: "Full rights transfer including publishing.",
			BasePrice:   decimal.RequireFromString("599.00"),
			Rights:      []string{"Full ownership", "Publishing transfer", "All deliverables included"},
			AllowsStems: true,
			IsActive:    true,
		},
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&licenses).Error
}

func seedAddons(ctx context.Context, tx *gorm.DB) error {
	addons := []models.Addon{
		{
			Name:        "Trackout Stems",
			Description: "Individual WAV stems for every instrument group.",
			Price:       decimal.RequireFromString("200.00"),
			Type:        enums.AddonTypeStems,
			IsActive:    true,
		},
		{
			Name:        "MIDI Pack",
			Description: "The full MIDI arrangement, ready to re-voice.",
			Price:       decimal.RequireFromString("100.00"),
			Type:        enums.AddonTypeMIDI,
			IsActive:    true,
		},
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "type"}}, DoNothing: true}).
		Create(&addons).Error
}

func seedAdmin(ctx context.Context, tx *gorm.DB) error {
	email := strings.ToLower(strings.TrimSpace(os.Getenv("BEATVAULT_SEED_ADMIN_EMAIL")))
	if email == "" {
		return nil
	}
	admin := models.AdminUser{Email: email}
	if err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	return nil
}
