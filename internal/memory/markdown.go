package memory

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Document is the parsed form of conventions.md. Known sections carry
// typed decision entries; anything else is preserved verbatim so hand
// edits outside the managed sections survive a rewrite.
type Document struct {
	Sections []*Section
}

type Section struct {
	Title   string
	Entries []*Decision
	Raw     []string
}

const (
	SectionCore      = "Core Conventions"
	SectionDecisions = "Decisions"
	SectionContext   = "Context"
)

var (
	sectionRe = regexp.MustCompile(`^##\s+(.+)$`)
	entryRe   = regexp.MustCompile(`^###\s+(.+)$`)
	labelRe   = regexp.MustCompile(`^\*\*([A-Za-z][A-Za-z ]*)\*\*:\s*(.*)$`)
)

func sectionCategory(title string) (Category, bool) {
	switch title {
	case SectionCore:
		return CategoryCore, true
	case SectionDecisions:
		return CategoryDecisions, true
	case SectionContext:
		return CategoryContext, true
	}
	return "", false
}

func categorySection(c Category) string {
	switch c {
	case CategoryCore:
		return SectionCore
	case CategoryContext:
		return SectionContext
	default:
		return SectionDecisions
	}
}

// ParseDocument is tolerant: unknown labels and stray prose inside an
// entry are ignored, never an error. Structural problems lower the
// entry's quality score downstream instead of aborting the parse.
func ParseDocument(content string) *Document {
	doc := &Document{}
	lines := strings.Split(content, "\n")

	var section *Section
	var entry *Decision
	var lastLabel string

	flushEntry := func() {
		if entry != nil && section != nil {
			section.Entries = append(section.Entries, entry)
		}
		entry = nil
		lastLabel = ""
	}

	for _, line := range lines {
		if m := sectionRe.FindStringSubmatch(line); m != nil {
			flushEntry()
			section = &Section{Title: strings.TrimSpace(m[1])}
			doc.Sections = append(doc.Sections, section)
			continue
		}

		if section == nil {
			continue
		}

		if _, known := sectionCategory(section.Title); !known {
			section.Raw = append(section.Raw, line)
			continue
		}

		if m := entryRe.FindStringSubmatch(line); m != nil {
			flushEntry()
			cat, _ := sectionCategory(section.Title)
			entry = &Decision{
				Topic:    strings.TrimSpace(m[1]),
				Category: cat,
			}
			continue
		}

		if entry == nil {
			continue
		}

		if m := labelRe.FindStringSubmatch(line); m != nil {
			label := strings.TrimSpace(m[1])
			value := strings.TrimSpace(m[2])
			setLabel(entry, label, value)
			lastLabel = label
			continue
		}

		// Continuation of a multi-line label value.
		if lastLabel != "" && strings.TrimSpace(line) != "" {
			appendLabel(entry, lastLabel, strings.TrimSpace(line))
		}
	}

	flushEntry()
	return doc
}

func setLabel(d *Decision, label, value string) {
	switch strings.ToLower(label) {
	case "decision":
		d.Decision = value
	case "rationale":
		d.Rationale = value
	case "date":
		d.DecidedOn = value
	case "alternatives":
		d.Alternatives = value
	case "scope":
		d.Scope = value
	}
}

func appendLabel(d *Decision, label, value string) {
	join := func(existing string) string {
		if existing == "" {
			return value
		}
		return existing + " " + value
	}
	switch strings.ToLower(label) {
	case "decision":
		d.Decision = join(d.Decision)
	case "rationale":
		d.Rationale = join(d.Rationale)
	case "alternatives":
		d.Alternatives = join(d.Alternatives)
	case "scope":
		d.Scope = join(d.Scope)
	}
}

// Decisions returns every entry across the managed sections.
func (doc *Document) Decisions() []*Decision {
	var out []*Decision
	for _, s := range doc.Sections {
		out = append(out, s.Entries...)
	}
	return out
}

func (doc *Document) section(title string) *Section {
	for _, s := range doc.Sections {
		if s.Title == title {
			return s
		}
	}
	return nil
}

// Append places a decision in the section matching its category,
// creating the section when missing. An entry with the same topic in
// that section is replaced.
func (doc *Document) Append(d *Decision) {
	title := categorySection(d.Category)
	s := doc.section(title)
	if s == nil {
		s = &Section{Title: title}
		doc.Sections = append(doc.Sections, s)
	}

	for i, existing := range s.Entries {
		if strings.EqualFold(existing.Topic, d.Topic) {
			s.Entries[i] = d
			return
		}
	}
	s.Entries = append(s.Entries, d)
}

// Render writes the canonical markdown. Managed sections are
// regenerated from the typed entries; unknown sections come back
// verbatim.
func (doc *Document) Render() string {
	var b strings.Builder
	b.WriteString("# Institutional Memory: Conventions\n")

	for _, s := range doc.Sections {
		b.WriteString("\n## ")
		b.WriteString(s.Title)
		b.WriteString("\n")

		if _, known := sectionCategory(s.Title); !known {
			for _, line := range s.Raw {
				b.WriteString(line)
				b.WriteString("\n")
			}
			continue
		}

		for _, e := range s.Entries {
			b.WriteString("\n### ")
			b.WriteString(e.Topic)
			b.WriteString("\n")
			b.WriteString(e.Body())
		}
	}

	return b.String()
}

func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseDocument(string(data)), nil
}

func SaveDocument(path string, doc *Document) error {
	if err := os.WriteFile(path, []byte(doc.Render()), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
