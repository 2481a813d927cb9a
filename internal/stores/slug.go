package stores

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

const maxSlugLength = 48

// Slugify reduces a business name to a URL-safe storefront handle:
// lowercase, runs of non-alphanumerics collapsed into single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r) && r < 128:
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		slug = "store"
	}
	return slug
}

type slugChecker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// UniqueSlug returns the base slug, or the first numbered variant
// (base-2, base-3, ...) that is not already taken.
func UniqueSlug(ctx context.Context, repo slugChecker, name string) (string, error) {
	base := Slugify(name)
	candidate := base
	for i := 2; ; i++ {
		taken, err := repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
