// Package prompt implements the editable prompt (C11): an ordered map of
// named sections that can be individually edited and recombined into one
// final prompt string, with a modified flag tracked per section.
package prompt

import (
	"errors"
	"strings"
	"time"
)

// ErrUnknownSection is returned by EditSection for an id that was never
// added.
var ErrUnknownSection = errors.New("prompt: unknown section id")

// Section is one named, ordered piece of the final prompt.
type Section struct {
	ID       string
	Label    string
	Content  string
	Source   string
	Modified bool
}

// Prompt is an ordered collection of sections; insertion order is
// preserved across add/edit.
type Prompt struct {
	order    []string
	sections map[string]*Section
}

// New builds an empty Prompt.
func New() *Prompt {
	return &Prompt{sections: make(map[string]*Section)}
}

// AddSection inserts a new section with modified = false. Re-adding an
// existing id replaces its content and resets modified to false, moving it
// to the end of the order only if it was not already present.
func (p *Prompt) AddSection(id, label, content, source string) {
	if _, exists := p.sections[id]; !exists {
		p.order = append(p.order, id)
	}
	p.sections[id] = &Section{ID: id, Label: label, Content: content, Source: source, Modified: false}
}

// EditSection updates content and sets modified = true. Unknown id fails.
func (p *Prompt) EditSection(id, content string) error {
	s, ok := p.sections[id]
	if !ok {
		return ErrUnknownSection
	}
	s.Content = content
	s.Modified = true
	return nil
}

// Sections returns all sections in insertion order.
func (p *Prompt) Sections() []Section {
	out := make([]Section, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, *p.sections[id])
	}
	return out
}

// Combine joins the non-empty, trimmed contents of all sections with ". "
// and appends a trailing ".".
func (p *Prompt) Combine() string {
	var parts []string
	for _, id := range p.order {
		content := strings.TrimSpace(p.sections[id].Content)
		if content != "" {
			parts = append(parts, content)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ". ") + "."
}

// Data is the plain-record shape produced by ToData / consumed by FromData.
type Data struct {
	Sections  []Section
	Combined  string
	UpdatedAt time.Time
}

// ToData yields a plain record containing the sections, the combined
// prompt, and an updatedAt timestamp.
func (p *Prompt) ToData() Data {
	return Data{
		Sections:  p.Sections(),
		Combined:  p.Combine(),
		UpdatedAt: time.Now(),
	}
}

// FromData is ToData's inverse: it rebuilds a Prompt from a Data record,
// preserving each section's modified flag and insertion order.
func FromData(d Data) *Prompt {
	p := New()
	for _, s := range d.Sections {
		p.order = append(p.order, s.ID)
		section := s
		p.sections[s.ID] = &section
	}
	return p
}
