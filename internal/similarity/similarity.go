package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/benvon/focus-board/internal/models"
	"github.com/google/uuid"
)

// DefaultThreshold is the minimum title similarity at which two staged tasks are flagged as duplicates
const DefaultThreshold = 0.7

// Func scores two strings in [0,1]
type Func func(a, b string) float64

// Similarity returns 1 - distance/maxLen. The distance is taken over the trimmed,
// lower-cased inputs while maxLen is the longer raw input, counted in runes.
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(normalize(a), normalize(b))
	return 1.0 - float64(distance)/float64(longest)
}

// FindDuplicates returns the ids of existing tasks whose titles score at or above threshold
// against title, in the order of existing. The candidate's own id is never returned.
func FindDuplicates(candidateID uuid.UUID, title string, existing []*models.StagedTask, threshold float64, score Func) []uuid.UUID {
	if score == nil {
		score = Similarity
	}

	var matches []uuid.UUID
	for _, task := range existing {
		if task == nil || task.ID == candidateID {
			continue
		}
		if score(title, task.Title) >= threshold {
			matches = append(matches, task.ID)
		}
	}
	return matches
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
