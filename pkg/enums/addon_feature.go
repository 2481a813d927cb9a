package enums

import "fmt"

// AddonFeature names a gated store feature backed by a StoreAddon row.
type AddonFeature string

const (
	AddonFeatureMpesaSTK      AddonFeature = "mpesa_stk"
	AddonFeaturePremiumThemes AddonFeature = "premium_themes"
	AddonFeatureCustomDomain  AddonFeature = "custom_domain"
)

var validAddonFeatures = []AddonFeature{
	AddonFeatureMpesaSTK,
	AddonFeaturePremiumThemes,
	AddonFeatureCustomDomain,
}

// String implements fmt.Stringer.
func (f AddonFeature) String() string {
	return string(f)
}

// IsValid reports whether the value is a known AddonFeature.
func (f AddonFeature) IsValid() bool {
	for _, candidate := range validAddonFeatures {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseAddonFeature converts raw input into an AddonFeature.
func ParseAddonFeature(value string) (AddonFeature, error) {
	for _, candidate := range validAddonFeatures {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid addon feature %q", value)
}
