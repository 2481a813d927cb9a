package stores

import (
	"context"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Mama Njeri's Shop", "mama-njeri-s-shop"},
		{"  Duka   Bora  ", "duka-bora"},
		{"NAIROBI-254!!", "nairobi-254"},
		{"!!!", "store"},
		{"", "store"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.name); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSlugifyCapsLength(t *testing.T) {
	long := ""
	for i := 0; i < 20; i++ {
		long += "abcde "
	}
	slug := Slugify(long)
	if len(slug) > maxSlugLength {
		t.Fatalf("slug %q exceeds max length %d", slug, maxSlugLength)
	}
	if slug[len(slug)-1] == '-' {
		t.Fatalf("slug %q ends with hyphen after truncation", slug)
	}
}

type stubSlugChecker struct {
	taken map[string]bool
}

func (s stubSlugChecker) SlugExists(_ context.Context, slug string) (bool, error) {
	return s.taken[slug], nil
}

func TestUniqueSlugNumbersCollisions(t *testing.T) {
	checker := stubSlugChecker{taken: map[string]bool{
		"duka-bora":   true,
		"duka-bora-2": true,
	}}

	slug, err := UniqueSlug(context.Background(), checker, "Duka Bora")
	if err != nil {
		t.Fatalf("unique slug: %v", err)
	}
	if slug != "duka-bora-3" {
		t.Fatalf("expected duka-bora-3, got %q", slug)
	}
}

func TestUniqueSlugNoCollision(t *testing.T) {
	slug, err := UniqueSlug(context.Background(), stubSlugChecker{}, "Duka Bora")
	if err != nil {
		t.Fatalf("unique slug: %v", err)
	}
	if slug != "duka-bora" {
		t.Fatalf("expected duka-bora, got %q", slug)
	}
}
