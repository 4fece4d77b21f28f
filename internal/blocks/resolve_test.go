// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blocks

import (
	"fmt"
	"slices"
	"testing"

	"schoolportal/internal/models"
)

// snapshotPosts is a mixed set: three published news posts, a featured
// notice, a draft and a scheduled post.
func snapshotPosts() []models.Post {
	featured := post("featured-notice", "thong-bao", "2024-02-15")
	featured.IsFeatured = true

	draft := post("draft-news", "news", "2024-04-01")
	draft.Status = models.PostDraft
	draft.IsFeatured = true

	scheduled := post("scheduled-news", "news", "2024-05-01")
	scheduled.Status = models.PostScheduled

	return []models.Post{
		post("news-jan", "news", "2024-01-01"),
		featured,
		post("news-mar", "news", "2024-03-01"),
		draft,
		post("news-feb", "news", "2024-02-01"),
		scheduled,
		post("event-jan", "events", "2024-01-20"),
	}
}

func titles(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Title
	}
	return out
}

func TestResolvePosts(t *testing.T) {
	tests := []struct {
		name   string
		source models.Source
		count  int
		want   []string
	}{
		{
			name:   "category slug newest first and truncated",
			source: "news",
			count:  2,
			want:   []string{"news-mar", "news-feb"},
		},
		{
			name:   "all sources",
			source: models.SourceAll,
			count:  10,
			want:   []string{"news-mar", "featured-notice", "news-feb", "event-jan", "news-jan"},
		},
		{
			name:   "featured only",
			source: models.SourceFeatured,
			count:  10,
			want:   []string{"featured-notice"},
		},
		{
			name:   "dangling slug resolves to nothing",
			source: "deleted-category",
			count:  10,
			want:   nil,
		},
		{
			name:   "zero item count falls back to five",
			source: models.SourceAll,
			count:  0,
			want:   []string{"news-mar", "featured-notice", "news-feb", "event-jan", "news-jan"},
		},
		{
			name:   "count larger than matches returns everything",
			source: "events",
			count:  8,
			want:   []string{"event-jan"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := block("b", models.PositionMain, models.BlockGrid, 1)
			b.Source = tt.source
			b.ItemCount = tt.count

			got := titles(ResolvePosts(b, snapshotPosts()))
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolvePostsEndToEndScenario(t *testing.T) {
	b := block("Tin tức", models.PositionMain, models.BlockGrid, 1)
	b.Source = "news"
	b.ItemCount = 2

	posts := []models.Post{
		post("a", "news", "2024-01-01"),
		post("other-1", "sports", "2024-06-01"),
		post("c", "news", "2024-03-01"),
		post("other-2", "events", "2024-05-01"),
		post("b", "news", "2024-02-01"),
	}

	got := ResolvePosts(b, posts)
	if len(got) != 2 {
		t.Fatalf("got %d posts, want 2", len(got))
	}
	if d := got[0].PublishedAt.Format("2006-01-02"); d != "2024-03-01" {
		t.Errorf("first post dated %s, want 2024-03-01", d)
	}
	if d := got[1].PublishedAt.Format("2006-01-02"); d != "2024-02-01" {
		t.Errorf("second post dated %s, want 2024-02-01", d)
	}
}

func TestResolvePostsProperties(t *testing.T) {
	snap := snapshotPosts()
	sources := []models.Source{models.SourceAll, models.SourceFeatured, "news", "events", "thong-bao", "nope"}

	for _, src := range sources {
		for count := 0; count <= 6; count++ {
			t.Run(fmt.Sprintf("%s/%d", src, count), func(t *testing.T) {
				b := block("b", models.PositionMain, models.BlockList, 1)
				b.Source = src
				b.ItemCount = count

				first := ResolvePosts(b, snap)
				second := ResolvePosts(b, snap)
				if !slices.EqualFunc(first, second, func(x, y models.Post) bool { return x.ID == y.ID }) {
					t.Fatal("resolution is not idempotent")
				}

				matching := 0
				for _, p := range snap {
					if p.IsPublished() && matchesSource(src, p) {
						matching++
					}
				}
				if want := min(b.Limit(), matching); len(first) != want {
					t.Errorf("len = %d, want %d", len(first), want)
				}

				for i, p := range first {
					if !p.IsPublished() {
						t.Errorf("unpublished post %q resolved", p.Title)
					}
					if src == models.SourceFeatured && !p.IsFeatured {
						t.Errorf("non-featured post %q in featured block", p.Title)
					}
					if src.IsCategory() && p.Category != string(src) {
						t.Errorf("post %q has category %q, want %q", p.Title, p.Category, src)
					}
					if i > 0 && p.PublishedAt.After(first[i-1].PublishedAt) {
						t.Errorf("posts not sorted newest first at %d", i)
					}
				}
			})
		}
	}
}

func TestResolvePostsStableOnTies(t *testing.T) {
	posts := []models.Post{
		post("first", "news", "2024-01-01"),
		post("second", "news", "2024-01-01"),
		post("third", "news", "2024-01-01"),
	}
	b := block("b", models.PositionMain, models.BlockList, 1)
	b.ItemCount = 3

	want := []string{"first", "second", "third"}
	for i := 0; i < 5; i++ {
		if got := titles(ResolvePosts(b, posts)); !slices.Equal(got, want) {
			t.Fatalf("run %d: got %v, want %v", i, got, want)
		}
	}
}

func TestResolvePostsDoesNotMutateInput(t *testing.T) {
	posts := snapshotPosts()
	before := titles(posts)

	b := block("b", models.PositionMain, models.BlockGrid, 1)
	ResolvePosts(b, posts)

	if after := titles(posts); !slices.Equal(before, after) {
		t.Errorf("input reordered: %v", after)
	}
}

func TestResolveOrdered(t *testing.T) {
	staff := []models.StaffMember{
		{Name: "c", SortOrder: 3, IsVisible: true},
		{Name: "hidden", SortOrder: 0, IsVisible: false},
		{Name: "a", SortOrder: 1, IsVisible: true},
		{Name: "b", SortOrder: 2, IsVisible: true},
	}

	names := func(in []models.StaffMember) []string {
		var out []string
		for _, s := range in {
			out = append(out, s.Name)
		}
		return out
	}

	if got := names(ResolveOrdered(staff, 0)); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("unlimited: got %v", got)
	}
	if got := names(ResolveOrdered(staff, 2)); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("limit 2: got %v", got)
	}
	if got := ResolveOrdered([]models.StaffMember{}, 3); len(got) != 0 {
		t.Errorf("empty input: got %v", got)
	}
}
