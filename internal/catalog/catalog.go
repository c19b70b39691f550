// Package catalog filters and orders video collections already fetched from
// the store. Both operations are pure: they never touch the database.
package catalog

import (
	"sort"
	"strings"

	"github.com/cgigram/backend/internal/models"
)

// SortKey selects the engagement metric used to order a listing.
type SortKey string

const (
	SortNone     SortKey = "none"
	SortViews    SortKey = "views"
	SortLikes    SortKey = "likes"
	SortDislikes SortKey = "dislikes"
)

// ParseSortKey maps a request parameter onto a SortKey, defaulting to SortNone.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortViews, SortLikes, SortDislikes:
		return SortKey(s)
	default:
		return SortNone
	}
}

// Filter returns the videos whose titles contain the query, compared
// case-insensitively. An empty query returns the input unchanged.
func Filter(videos []models.Video, query string) []models.Video {
	if query == "" {
		return videos
	}

	needle := strings.ToLower(query)
	var matched []models.Video
	for _, v := range videos {
		if strings.Contains(strings.ToLower(v.Title), needle) {
			matched = append(matched, v)
		}
	}
	return matched
}

// Sort orders videos descending by the chosen metric, preserving arrival
// order among equals. SortNone returns the input untouched.
func Sort(videos []models.Video, key SortKey) []models.Video {
	if key == SortNone {
		return videos
	}

	sorted := make([]models.Video, len(videos))
	copy(sorted, videos)

	metric := func(v models.Video) int64 { return v.Views }
	switch key {
	case SortLikes:
		metric = func(v models.Video) int64 { return v.Likes }
	case SortDislikes:
		metric = func(v models.Video) int64 { return v.Dislikes }
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return metric(sorted[i]) > metric(sorted[j])
	})

	return sorted
}
