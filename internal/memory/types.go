package memory

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryCore         Category = "core"
	CategoryArchitecture Category = "architecture"
	CategoryDecisions    Category = "decisions"
	CategoryContext      Category = "context"
	CategoryGeneral      Category = "general"
)

func ValidCategory(c Category) bool {
	switch c {
	case CategoryCore, CategoryArchitecture, CategoryDecisions, CategoryContext, CategoryGeneral:
		return true
	}
	return false
}

// Decision is one recorded convention entry. The markdown labels map
// directly onto the struct fields; a missing label leaves the field
// empty and lowers the quality score.
type Decision struct {
	ID           string     `json:"id"`
	Topic        string     `json:"topic"`
	Decision     string     `json:"decision"`
	Rationale    string     `json:"rationale"`
	Alternatives string     `json:"alternatives,omitempty"`
	Scope        string     `json:"scope,omitempty"`
	DecidedOn    string     `json:"decided_on,omitempty"`
	Category     Category   `json:"category"`
	Tags         []string   `json:"tags,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	AccessedAt   time.Time  `json:"accessed_at"`
	AccessCount  int        `json:"access_count"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Body renders the labeled fields as the markdown entry body. It is
// also what goes into the FTS index as searchable content.
func (d *Decision) Body() string {
	var b strings.Builder

	writeLabel := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString("**")
		b.WriteString(label)
		b.WriteString("**: ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	writeLabel("Decision", d.Decision)
	writeLabel("Rationale", d.Rationale)
	writeLabel("Date", d.DecidedOn)
	writeLabel("Alternatives", d.Alternatives)
	writeLabel("Scope", d.Scope)

	return b.String()
}

type SearchResult struct {
	ID          string    `json:"id"`
	Topic       string    `json:"topic"`
	Category    Category  `json:"category"`
	Score       float64   `json:"score"`
	Snippet     string    `json:"snippet"`
	CreatedAt   time.Time `json:"created_at"`
	AccessedAt  time.Time `json:"accessed_at"`
	AccessCount int       `json:"access_count"`
}

func (r *SearchResult) GetID() string           { return r.ID }
func (r *SearchResult) GetRelevance() float64   { return r.Score }
func (r *SearchResult) GetTimestamp() time.Time { return r.AccessedAt }
func (r *SearchResult) GetFrequency() int       { return r.AccessCount }

// Proximity favors entries whose topic is short enough to be a direct
// answer rather than a sprawling catch-all.
func (r *SearchResult) GetProximity() float64 {
	length := len(r.Topic)
	if length > 100 {
		return 0.3
	}
	if length > 50 {
		return 0.6
	}
	return 0.9
}

type ListItem struct {
	ID          string    `json:"id"`
	Topic       string    `json:"topic"`
	Category    Category  `json:"category"`
	Preview     string    `json:"preview"`
	CreatedAt   time.Time `json:"created_at"`
	AccessedAt  time.Time `json:"accessed_at"`
	AccessCount int       `json:"access_count"`
}

type StoreStats struct {
	TotalDecisions int            `json:"total_decisions"`
	ByCategory     map[string]int `json:"by_category"`
	LastRecordedAt time.Time      `json:"last_recorded_at"`
}
