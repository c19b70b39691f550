package engagement

import (
	"context"
	"fmt"
	"math"

	"github.com/cgigram/backend/internal/models"
)

// Aggregator derives engagement figures from raw event rows. Detail and
// analytics pages read live aggregates through it; catalog listings rely on
// the cached counters maintained by the Recorder.
type Aggregator struct {
	Ratings RatingStore
}

// RatingSummary returns the live rating count and two-decimal average for a
// video, computed from the rating rows rather than the cached column.
func (a *Aggregator) RatingSummary(ctx context.Context, videoID string) (models.RatingSummary, error) {
	summary, err := a.Ratings.Summary(ctx, videoID)
	if err != nil {
		return models.RatingSummary{}, fmt.Errorf("aggregate ratings: %w", err)
	}
	return summary, nil
}

// Round2 rounds an average to two decimal places, matching the stored form.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TopByMetric returns every video whose metric equals the maximum observed
// across the input. Videos scoring zero never qualify, so an all-zero input
// yields an empty result instead of an arbitrary "top" video. Ties at the
// maximum are all returned, in input order.
func TopByMetric(videos []models.Video, metric func(models.Video) float64) []models.Video {
	var max float64
	for _, v := range videos {
		if m := metric(v); m > max {
			max = m
		}
	}

	if max == 0 {
		return nil
	}

	var top []models.Video
	for _, v := range videos {
		if metric(v) == max {
			top = append(top, v)
		}
	}
	return top
}
