package purchases

import (
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	"github.com/arlomercer/beatvault-backend/pkg/enums"
)

func TestAddonDownloadURLPrefersBeatAssets(t *testing.T) {
	stems := "https://cdn.example.com/stems/custom.zip"
	beat := &models.Beat{ID: uuid.New(), StemsURL: &stems}

	got := AddonDownloadURL("https://dl.example.com", enums.AddonTypeStems, beat)
	if got != stems {
		t.Fatalf("expected beat stems url, got %q", got)
	}
}

func TestAddonDownloadURLFallsBackToBase(t *testing.T) {
	beat := &models.Beat{ID: uuid.New()}

	got := AddonDownloadURL("https://dl.example.com/", enums.AddonTypeMIDI, beat)
	want := fmt.Sprintf("https://dl.example.com/midi/%s", beat.ID)
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	empty := ""
	beat.StemsURL = &empty
	got = AddonDownloadURL("https://dl.example.com", enums.AddonTypeStems, beat)
	want = fmt.Sprintf("https://dl.example.com/stems/%s", beat.ID)
	if got != want {
		t.Fatalf("expected fallback for empty stems url, got %q", got)
	}
}
