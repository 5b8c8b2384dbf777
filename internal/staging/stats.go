package staging

import "github.com/benvon/focus-board/internal/models"

const (
	// HighConfidenceThreshold is the confidence at or above which a task counts as high confidence
	HighConfidenceThreshold = 0.8
	// ReviewConfidenceThreshold is the confidence below which a task needs review
	ReviewConfidenceThreshold = 0.6
)

// GetStagingStats aggregates the current collection
func (r *Repository) GetStagingStats() models.StagingStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := models.StagingStats{
		Total:    len(r.items),
		BySource: make(map[models.StagedTaskSource]int),
	}
	if stats.Total == 0 {
		return stats
	}

	var sum float64
	for _, t := range r.items {
		sum += t.Confidence
		if t.Confidence >= HighConfidenceThreshold {
			stats.HighConfidence++
		}
		if t.Confidence < ReviewConfidenceThreshold || len(t.SuggestedImprovements) > 0 {
			stats.NeedsReview++
		}
		if t.DuplicateOf != nil {
			stats.Duplicates++
		}
		stats.BySource[t.Source]++
	}
	stats.AverageConfidence = sum / float64(stats.Total)
	return stats
}
