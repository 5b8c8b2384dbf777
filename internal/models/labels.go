package models

// MergeLabels returns the union of explicit and suggested labels.
// Explicit labels keep their position and come first; suggestions follow in order.
func MergeLabels(explicit []string, suggested []string) []string {
	merged := make([]string, 0, len(explicit)+len(suggested))
	for _, label := range explicit {
		merged = appendIfNotExists(merged, label)
	}
	for _, label := range suggested {
		merged = appendIfNotExists(merged, label)
	}
	return merged
}

// AddLabel adds a label to the explicit set if it is not already present
func (t *StagedTask) AddLabel(label string) {
	t.Labels = appendIfNotExists(t.Labels, label)
}

// RemoveLabel removes a label from the explicit set
func (t *StagedTask) RemoveLabel(label string) {
	newLabels := make([]string, 0, len(t.Labels))
	for _, l := range t.Labels {
		if l != label {
			newLabels = append(newLabels, l)
		}
	}
	t.Labels = newLabels
}

// Helper functions
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func appendIfNotExists(slice []string, item string) []string {
	if item == "" || contains(slice, item) {
		return slice
	}
	return append(slice, item)
}
