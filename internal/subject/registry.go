package subject

import (
	"container/list"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultCapacity = 50

// Registry is the single-owner indexed subject store (spec.md §4.12). It
// wraps its own access-order list rather than reusing resilience.LRU
// because eviction here must also clean up the name and tag indexes —
// resilience.LRU has no eviction hook to piggyback on.
type Registry struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	elements map[string]*list.Element
	byName   map[string]map[string]struct{} // lowercased name -> set of ids
	byTag    map[string]map[string]struct{} // lowercased tag -> set of ids
}

// New builds a Registry. capacity <= 0 falls back to the default (50).
func New(capacity int) *Registry {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Registry{
		capacity: capacity,
		order:    list.New(),
		elements: make(map[string]*list.Element),
		byName:   make(map[string]map[string]struct{}),
		byTag:    make(map[string]map[string]struct{}),
	}
}

// Register schema-validates input, assigns a fresh id and createdAt, and
// inserts the subject into all three indexes.
func (r *Registry) Register(in Input) (Subject, error) {
	if err := validate(in); err != nil {
		return Subject{}, err
	}

	s := Subject{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Type:         in.Type,
		Description:  in.Description,
		KeyFeatures:  append([]string(nil), in.KeyFeatures...),
		OriginCutID:  in.OriginCutID,
		Carryover:    in.Carryover,
		Tags:         append([]string(nil), in.Tags...),
		CreatedAt:    time.Now(),
		ReferenceURI: in.ReferenceURI,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.order.Len() >= r.capacity {
		r.evictOldestLocked()
	}

	el := r.order.PushFront(&s)
	r.elements[s.ID] = el
	r.indexLocked(s)

	return s, nil
}

func (r *Registry) indexLocked(s Subject) {
	name := strings.ToLower(s.Name)
	if r.byName[name] == nil {
		r.byName[name] = make(map[string]struct{})
	}
	r.byName[name][s.ID] = struct{}{}

	for _, tag := range s.Tags {
		tag = strings.ToLower(tag)
		if r.byTag[tag] == nil {
			r.byTag[tag] = make(map[string]struct{})
		}
		r.byTag[tag][s.ID] = struct{}{}
	}
}

func (r *Registry) unindexLocked(s Subject) {
	name := strings.ToLower(s.Name)
	delete(r.byName[name], s.ID)
	if len(r.byName[name]) == 0 {
		delete(r.byName, name)
	}
	for _, tag := range s.Tags {
		tag = strings.ToLower(tag)
		delete(r.byTag[tag], s.ID)
		if len(r.byTag[tag]) == 0 {
			delete(r.byTag, tag)
		}
	}
}

func (r *Registry) evictOldestLocked() {
	oldest := r.order.Back()
	if oldest == nil {
		return
	}
	s := oldest.Value.(*Subject)
	r.order.Remove(oldest)
	delete(r.elements, s.ID)
	r.unindexLocked(*s)
}

// Recall returns the subject for id, refreshing its recency.
func (r *Registry) Recall(id string) (Subject, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.elements[id]
	if !ok {
		return Subject{}, false
	}
	r.order.MoveToFront(el)
	return *el.Value.(*Subject), true
}

// RecallByName looks up by exact (case-insensitive) name first, then falls
// back to the first case-insensitive substring match.
func (r *Registry) RecallByName(name string) (Subject, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lower := strings.ToLower(name)
	if ids, ok := r.byName[lower]; ok {
		for id := range ids {
			if el, ok := r.elements[id]; ok {
				r.order.MoveToFront(el)
				return *el.Value.(*Subject), true
			}
		}
	}

	for el := r.order.Front(); el != nil; el = el.Next() {
		s := el.Value.(*Subject)
		if strings.Contains(strings.ToLower(s.Name), lower) {
			r.order.MoveToFront(el)
			return *s, true
		}
	}
	return Subject{}, false
}

// Search returns all subjects matching every supplied predicate.
func (r *Registry) Search(q Search) []Subject {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Subject
	for el := r.order.Front(); el != nil; el = el.Next() {
		s := *el.Value.(*Subject)

		if q.Name != nil && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(*q.Name)) {
			continue
		}
		if q.Tag != nil {
			found := false
			lower := strings.ToLower(*q.Tag)
			for _, t := range s.Tags {
				if strings.ToLower(t) == lower {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if q.Type != nil && s.Type != *q.Type {
			continue
		}
		if q.CarryoverOnly && !s.Carryover {
			continue
		}
		out = append(out, s)
	}
	return out
}

// SetCarryover updates the carryover flag for id.
func (r *Registry) SetCarryover(id string, carryover bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.elements[id]
	if !ok {
		return ErrNotFound
	}
	s := el.Value.(*Subject)
	s.Carryover = carryover
	return nil
}

// GetCarryoverSubjects returns every subject currently flagged carryover.
func (r *Registry) GetCarryoverSubjects() []Subject {
	return r.Search(Search{CarryoverOnly: true})
}

// MarkUsedInCut sets lastUsedInCutId for id.
func (r *Registry) MarkUsedInCut(id, cutID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.elements[id]
	if !ok {
		return ErrNotFound
	}
	el.Value.(*Subject).LastUsedInCutID = cutID
	return nil
}

// Delete removes id from all indexes atomically.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.elements[id]
	if !ok {
		return
	}
	s := el.Value.(*Subject)
	r.order.Remove(el)
	delete(r.elements, id)
	r.unindexLocked(*s)
}

// Clear empties all indexes.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.order.Init()
	r.elements = make(map[string]*list.Element)
	r.byName = make(map[string]map[string]struct{})
	r.byTag = make(map[string]map[string]struct{})
}

// Size returns the current subject count.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order.Len()
}

// All returns every current subject in most-recently-used-first order.
func (r *Registry) All() []Subject {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Subject, 0, r.order.Len())
	for el := r.order.Front(); el != nil; el = el.Next() {
		out = append(out, *el.Value.(*Subject))
	}
	return out
}

// BuildCarryoverPrompt renders a canonical multi-line block enumerating
// each carryover subject, per spec.md §4.12. Empty when none are carried
// over.
func (r *Registry) BuildCarryoverPrompt() string {
	subjects := r.GetCarryoverSubjects()
	if len(subjects) == 0 {
		return ""
	}

	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })

	var b strings.Builder
	for i, s := range subjects {
		if i > 0 {
			b.WriteByte('\n')
		}
		glyph := typeGlyphs[s.Type]
		b.WriteString(glyph)
		b.WriteByte(' ')
		b.WriteString(s.Name)
		b.WriteString(": ")
		b.WriteString(s.Description)
		if len(s.KeyFeatures) > 0 {
			b.WriteString(" (")
			b.WriteString(strings.Join(s.KeyFeatures, ", "))
			b.WriteByte(')')
		}
	}
	return b.String()
}
