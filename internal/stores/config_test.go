package stores

import (
	"testing"

	"github.com/jarilabs/jariecom-backend/pkg/types"
)

func TestNormalizeConfigCollapsesLegacyKeys(t *testing.T) {
	config := types.JSONMap{
		"heroTitle":      "Karibu",
		"logoUrl":        "https://cdn.example.com/logo.png",
		"whatsappNumber": "+254700000001",
		"currency":       "KES",
	}

	normalized := NormalizeConfig(config, 1)

	if normalized["hero_title"] != "Karibu" {
		t.Fatalf("expected hero_title from heroTitle, got %v", normalized["hero_title"])
	}
	if normalized["logo_url"] != "https://cdn.example.com/logo.png" {
		t.Fatalf("expected logo_url from logoUrl, got %v", normalized["logo_url"])
	}
	if normalized["whatsapp_number"] != "+254700000001" {
		t.Fatalf("expected whatsapp_number, got %v", normalized["whatsapp_number"])
	}
	if normalized["currency"] != "KES" {
		t.Fatalf("canonical currency key should survive, got %v", normalized["currency"])
	}
	for _, legacy := range []string{"heroTitle", "logoUrl", "whatsappNumber"} {
		if _, ok := normalized[legacy]; ok {
			t.Fatalf("legacy key %s should be removed", legacy)
		}
	}
}

func TestNormalizeConfigCanonicalKeyWins(t *testing.T) {
	config := types.JSONMap{
		"hero_title": "canonical",
		"heroTitle":  "legacy",
	}

	normalized := NormalizeConfig(config, 1)

	if normalized["hero_title"] != "canonical" {
		t.Fatalf("canonical value should win, got %v", normalized["hero_title"])
	}
	if _, ok := normalized["heroTitle"]; ok {
		t.Fatalf("legacy spelling should be dropped")
	}
}

func TestNormalizeConfigCurrentVersionPassesThrough(t *testing.T) {
	config := types.JSONMap{"heroTitle": "legacy-looking"}

	normalized := NormalizeConfig(config, currentConfigVersion)

	if normalized["heroTitle"] != "legacy-looking" {
		t.Fatalf("current-version blobs must not be rewritten")
	}

	// Mutating the result must not touch the stored blob.
	normalized["heroTitle"] = "changed"
	if config["heroTitle"] != "legacy-looking" {
		t.Fatalf("normalization should copy, not alias, the input map")
	}
}

func TestNormalizeConfigNil(t *testing.T) {
	normalized := NormalizeConfig(nil, 1)
	if normalized == nil || len(normalized) != 0 {
		t.Fatalf("nil config should normalize to an empty map, got %v", normalized)
	}
}
