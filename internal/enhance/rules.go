package enhance

import (
	"fmt"
	"os"
	"strings"

	"github.com/benvon/focus-board/internal/models"
	"gopkg.in/yaml.v3"
)

// KeywordRule maps any of its keywords to a result. Keywords match as lower-case substrings.
type KeywordRule struct {
	Keywords []string `yaml:"keywords"`
	Result   string   `yaml:"result"`
}

// Matches reports whether text contains any keyword of the rule
func (r KeywordRule) Matches(text string) bool {
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// DurationRule maps any of its keywords to an estimate in minutes
type DurationRule struct {
	Keywords []string `yaml:"keywords"`
	Minutes  int      `yaml:"minutes"`
}

// RuleTable holds the ordered heuristics used for enhancement.
// For every concern except labels, the first matching rule wins.
type RuleTable struct {
	Duration        []DurationRule `yaml:"duration"`
	DefaultDuration int            `yaml:"default_duration"`
	Priority        []KeywordRule  `yaml:"priority"`
	DefaultPriority string         `yaml:"default_priority"`
	Energy          []KeywordRule  `yaml:"energy"`
	DefaultEnergy   string         `yaml:"default_energy"`
	Category        []KeywordRule  `yaml:"category"`
	DefaultCategory string         `yaml:"default_category"`
	Labels          []KeywordRule  `yaml:"labels"`
}

// DefaultRules returns the built-in rule table
func DefaultRules() *RuleTable {
	return &RuleTable{
		Duration: []DurationRule{
			{Keywords: []string{"call", "email", "quick"}, Minutes: 10},
			{Keywords: []string{"meeting", "review"}, Minutes: 30},
			{Keywords: []string{"write", "plan"}, Minutes: 45},
			{Keywords: []string{"develop", "create"}, Minutes: 60},
		},
		DefaultDuration: 25,
		Priority: []KeywordRule{
			{Keywords: []string{"urgent", "asap"}, Result: string(models.PriorityUrgent)},
			{Keywords: []string{"important", "deadline"}, Result: string(models.PriorityHigh)},
			{Keywords: []string{"someday", "maybe"}, Result: string(models.PriorityLow)},
		},
		DefaultPriority: string(models.PriorityMedium),
		Energy: []KeywordRule{
			{Keywords: []string{"create", "design", "brainstorm"}, Result: string(models.EnergyHigh)},
			{Keywords: []string{"email", "organize", "call"}, Result: string(models.EnergyLow)},
		},
		DefaultEnergy: string(models.EnergyMedium),
		Category: []KeywordRule{
			{Keywords: []string{"urgent", "asap", "emergency", "critical"}, Result: string(models.CategoryUrgent)},
			{Keywords: []string{"meeting", "project", "client", "report", "presentation", "deadline", "work", "office"}, Result: string(models.CategoryWork)},
			{Keywords: []string{"doctor", "dentist", "gym", "workout", "exercise", "medication", "meds", "health", "therapy"}, Result: string(models.CategoryHealth)},
			{Keywords: []string{"learn", "study", "course", "tutorial", "research", "read"}, Result: string(models.CategoryLearning)},
			{Keywords: []string{"design", "draw", "paint", "write", "brainstorm", "music", "create"}, Result: string(models.CategoryCreative)},
			{Keywords: []string{"bill", "pay", "tax", "insurance", "form", "renew", "bank", "appointment"}, Result: string(models.CategoryAdmin)},
		},
		DefaultCategory: string(models.CategoryPersonal),
		Labels: []KeywordRule{
			{Keywords: []string{"meeting"}, Result: "meeting"},
			{Keywords: []string{"call", "phone"}, Result: "phone"},
			{Keywords: []string{"email"}, Result: "email"},
			{Keywords: []string{"buy", "shop", "groceries"}, Result: "shopping"},
			{Keywords: []string{"clean", "laundry", "dishes"}, Result: "home"},
			{Keywords: []string{"quick"}, Result: "quick-win"},
			{Keywords: []string{"errand", "pick up", "drop off"}, Result: "errand"},
			{Keywords: []string{"deadline", "due"}, Result: "deadline"},
			{Keywords: []string{"computer", "online", "laptop"}, Result: "computer"},
		},
	}
}

// LoadRuleTable reads a rule table from a YAML file and validates it
func LoadRuleTable(path string) (*RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule table: %w", err)
	}
	return ParseRuleTable(data)
}

// ParseRuleTable decodes a YAML rule table and validates it
func ParseRuleTable(data []byte) (*RuleTable, error) {
	var table RuleTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse rule table: %w", err)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &table, nil
}

// Validate checks every result against the known enums
func (t *RuleTable) Validate() error {
	if t.DefaultDuration <= 0 {
		return fmt.Errorf("default_duration must be positive, got %d", t.DefaultDuration)
	}
	for i, r := range t.Duration {
		if r.Minutes <= 0 {
			return fmt.Errorf("duration rule %d: minutes must be positive, got %d", i, r.Minutes)
		}
	}

	if !models.Priority(t.DefaultPriority).IsValid() {
		return fmt.Errorf("invalid default_priority: %q", t.DefaultPriority)
	}
	for i, r := range t.Priority {
		if !models.Priority(r.Result).IsValid() {
			return fmt.Errorf("priority rule %d: invalid result %q", i, r.Result)
		}
	}

	if !models.EnergyLevel(t.DefaultEnergy).IsValid() {
		return fmt.Errorf("invalid default_energy: %q", t.DefaultEnergy)
	}
	for i, r := range t.Energy {
		if !models.EnergyLevel(r.Result).IsValid() {
			return fmt.Errorf("energy rule %d: invalid result %q", i, r.Result)
		}
	}

	if !isCategory(t.DefaultCategory) {
		return fmt.Errorf("invalid default_category: %q", t.DefaultCategory)
	}
	for i, r := range t.Category {
		if !isCategory(r.Result) {
			return fmt.Errorf("category rule %d: invalid result %q", i, r.Result)
		}
	}

	for i, r := range t.Labels {
		if strings.TrimSpace(r.Result) == "" {
			return fmt.Errorf("label rule %d: empty label", i)
		}
	}
	return nil
}

// Marshal encodes the table as YAML
func (t *RuleTable) Marshal() ([]byte, error) {
	return yaml.Marshal(t)
}

func isCategory(s string) bool {
	switch models.Category(s) {
	case models.CategoryWork, models.CategoryPersonal, models.CategoryHealth, models.CategoryLearning,
		models.CategoryAdmin, models.CategoryCreative, models.CategoryUrgent:
		return true
	default:
		return false
	}
}
