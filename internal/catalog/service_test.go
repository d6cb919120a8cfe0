package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
)

func TestValidatePriceBands(t *testing.T) {
	dec := decimal.RequireFromString

	cases := []struct {
		name         string
		nonExclusive string
		exclusive    string
		buyout       string
		wantErr      string
	}{
		{"allInsideBands", "9.99", "99.00", "599.00", ""},
		{"lowerEdges", "4.99", "99", "599", ""},
		{"upperEdges", "19.99", "599", "4999", ""},
		{"nonExclusiveTooLow", "4.98", "99", "599", "non_exclusive_price"},
		{"nonExclusiveTooHigh", "20.00", "99", "599", "non_exclusive_price"},
		{"exclusiveTooLow", "9.99", "98.99", "599", "exclusive_price"},
		{"exclusiveTooHigh", "9.99", "599.01", "599", "exclusive_price"},
		{"buyoutTooLow", "9.99", "99", "598.99", "buyout_price"},
		{"buyoutTooHigh", "9.99", "99", "4999.01", "buyout_price"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePriceBands(dec(tc.nonExclusive), dec(tc.exclusive), dec(tc.buyout))
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation code, got %v", err)
			}
			if !strings.Contains(typed.Message(), tc.wantErr) {
				t.Fatalf("expected message about %s, got %q", tc.wantErr, typed.Message())
			}
		})
	}
}

func TestApplyUpdateToBeatTrimsAndCopies(t *testing.T) {
	beat := &models.Beat{
		Title:      "old title",
		BeatNumber: "BV-001",
	}

	tags := []string{"dark", "808"}
	input := UpdateBeatInput{
		Title:      stringPtr("  New Title "),
		BeatNumber: stringPtr(" BV-002 "),
		Tags:       &tags,
	}

	applyUpdateToBeat(beat, input)

	if beat.Title != "New Title" {
		t.Fatalf("expected trimmed title, got %q", beat.Title)
	}
	if beat.BeatNumber != "BV-002" {
		t.Fatalf("expected trimmed beat number, got %q", beat.BeatNumber)
	}
	if len(beat.Tags) != 2 || beat.Tags[0] != "dark" || beat.Tags[1] != "808" {
		t.Fatalf("expected tags copied, got %v", beat.Tags)
	}

	tags[0] = "mutated"
	if beat.Tags[0] != "dark" {
		t.Fatal("expected tags to be copied, not aliased")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"My Beat.wav":       "My_Beat.wav",
		"  ../evil.wav  ":   "evil.wav",
		"stems (final).zip": "stemsfinal.zip",
		"???":               "",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

type stubDeleter struct {
	deleted []string
	failKey string
}

func (d *stubDeleter) DeleteObject(_ context.Context, key string) error {
	if key == d.failKey {
		return errors.New("boom")
	}
	d.deleted = append(d.deleted, key)
	return nil
}

func (d *stubDeleter) KeyFromURL(raw string) (string, bool) {
	const base = "https://cdn.example.com/"
	if !strings.HasPrefix(raw, base) {
		return "", false
	}
	return strings.TrimPrefix(raw, base), true
}

func TestDeleteAssetsCollectsFailures(t *testing.T) {
	deleter := &stubDeleter{failKey: "wavs/two.wav"}
	svc := &service{storage: deleter}

	err := svc.deleteAssets(context.Background(), []string{
		"https://cdn.example.com/covers/one.jpg",
		"https://cdn.example.com/wavs/two.wav",
		"https://elsewhere.example.com/skip.jpg",
	})
	if err == nil {
		t.Fatal("expected combined error from failed delete")
	}
	if len(deleter.deleted) != 1 || deleter.deleted[0] != "covers/one.jpg" {
		t.Fatalf("expected one successful delete, got %v", deleter.deleted)
	}
}

func TestDeleteAssetsSkipsForeignURLs(t *testing.T) {
	deleter := &stubDeleter{}
	svc := &service{storage: deleter}

	if err := svc.deleteAssets(context.Background(), []string{"https://elsewhere.example.com/a.jpg"}); err != nil {
		t.Fatalf("expected nil for foreign urls, got %v", err)
	}
	if len(deleter.deleted) != 0 {
		t.Fatalf("expected no deletes, got %v", deleter.deleted)
	}
}

func TestNewBeatNumberShape(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		number, err := newBeatNumber()
		if err != nil {
			t.Fatalf("generate beat number: %v", err)
		}
		if len(number) != 5 {
			t.Fatalf("expected 5 chars, got %q", number)
		}
		for _, r := range number {
			if !strings.ContainsRune("0123456789ABCDEF", r) {
				t.Fatalf("expected uppercase hex, got %q", number)
			}
		}
		seen[number] = struct{}{}
	}
	if len(seen) < 90 {
		t.Fatalf("expected mostly distinct codes, got %d unique of 100", len(seen))
	}
}

func stringPtr(s string) *string { return &s }
