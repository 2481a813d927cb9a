package stores

import (
	"github.com/jarilabs/jariecom-backend/pkg/types"
)

// currentConfigVersion is the canonical store config schema. Version 1
// rows predate the normalization pass and may carry camelCase keys
// written by historical dashboard clients.
const currentConfigVersion = 2

// configAliases maps canonical snake_case config keys to the legacy
// camelCase spellings still present in version 1 blobs.
var configAliases = map[string][]string{
	"theme":           {"themeName"},
	"hero_title":      {"heroTitle"},
	"hero_subtitle":   {"heroSubtitle"},
	"hero_image":      {"heroImage", "heroImageUrl"},
	"logo_url":        {"logoUrl"},
	"primary_color":   {"primaryColor", "brandColor"},
	"whatsapp_number": {"whatsappNumber", "whatsapp"},
	"fb_pixel_id":     {"fbPixelId", "facebookPixelId"},
	"tiktok_pixel_id": {"tiktokPixelId"},
	"refund_policy":   {"refundPolicy"},
	"shipping_policy": {"shippingPolicy"},
	"privacy_policy":  {"privacyPolicy"},
	"about_text":      {"aboutText", "about"},
	"contact_email":   {"contactEmail"},
	"currency":        {"currencyCode"},
}

// NormalizeConfig collapses legacy key spellings into the canonical
// snake_case schema. It runs once at read time so handlers never need
// per-key fallback chains. Already-current blobs pass through with a
// defensive copy.
func NormalizeConfig(config types.JSONMap, version int) types.JSONMap {
	if config == nil {
		return types.JSONMap{}
	}

	normalized := make(types.JSONMap, len(config))
	for key, value := range config {
		normalized[key] = value
	}
	if version >= currentConfigVersion {
		return normalized
	}

	for canonical, aliases := range configAliases {
		if _, ok := normalized[canonical]; ok {
			for _, alias := range aliases {
				delete(normalized, alias)
			}
			continue
		}
		for _, alias := range aliases {
			value, ok := normalized[alias]
			if !ok {
				continue
			}
			normalized[canonical] = value
			delete(normalized, alias)
			break
		}
		// Drop any remaining alias spellings so one canonical key wins.
		for _, alias := range aliases {
			delete(normalized, alias)
		}
	}
	return normalized
}
