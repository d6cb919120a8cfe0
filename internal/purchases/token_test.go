package purchases

import (
	"encoding/hex"
	"testing"
)

func TestNewDownloadTokenShape(t *testing.T) {
	token, err := NewDownloadToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(token))
	}
	if _, err := hex.DecodeString(token); err != nil {
		t.Fatalf("expected hex encoding, got %q", token)
	}
}

func TestNewDownloadTokenUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		token, err := NewDownloadToken()
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		if _, ok := seen[token]; ok {
			t.Fatalf("duplicate token after %d draws", i)
		}
		seen[token] = struct{}{}
	}
}
