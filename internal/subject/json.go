package subject

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// record is the JSON wire shape for a Subject.
type record struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Type            Type     `json:"type"`
	Description     string   `json:"description"`
	KeyFeatures     []string `json:"keyFeatures"`
	OriginCutID     string   `json:"originCutId,omitempty"`
	Carryover       bool     `json:"carryover"`
	Tags            []string `json:"tags,omitempty"`
	CreatedAt       string   `json:"createdAt"`
	LastUsedInCutID string   `json:"lastUsedInCutId,omitempty"`
	ReferenceURI    string   `json:"referenceUri,omitempty"`
}

func toRecord(s Subject) record {
	return record{
		ID:              s.ID,
		Name:            s.Name,
		Type:            s.Type,
		Description:     s.Description,
		KeyFeatures:     s.KeyFeatures,
		OriginCutID:     s.OriginCutID,
		Carryover:       s.Carryover,
		Tags:            s.Tags,
		CreatedAt:       s.CreatedAt.Format(time.RFC3339Nano),
		LastUsedInCutID: s.LastUsedInCutID,
		ReferenceURI:    s.ReferenceURI,
	}
}

func (rec record) toSubject() (Subject, bool) {
	if rec.ID == "" || rec.Name == "" || rec.Description == "" || len(rec.KeyFeatures) == 0 {
		return Subject{}, false
	}
	if _, ok := typeGlyphs[rec.Type]; !ok {
		return Subject{}, false
	}

	createdAt, err := time.Parse(time.RFC3339Nano, rec.CreatedAt)
	if err != nil {
		createdAt = time.Time{}
	}

	return Subject{
		ID:              rec.ID,
		Name:            rec.Name,
		Type:            rec.Type,
		Description:     rec.Description,
		KeyFeatures:     rec.KeyFeatures,
		OriginCutID:     rec.OriginCutID,
		Carryover:       rec.Carryover,
		Tags:            rec.Tags,
		CreatedAt:       createdAt,
		LastUsedInCutID: rec.LastUsedInCutID,
		ReferenceURI:    rec.ReferenceURI,
	}, true
}

// ToJSON returns a JSON encoding of every current subject.
func (r *Registry) ToJSON() ([]byte, error) {
	subjects := r.All()
	records := make([]record, 0, len(subjects))
	for _, s := range subjects {
		records = append(records, toRecord(s))
	}
	return json.Marshal(records)
}

// FromJSON safe-parses each item in data and silently skips malformed
// entries, per spec.md §4.12. It does not clear the registry first; the
// caller decides whether to Clear before loading.
func (r *Registry) FromJSON(data []byte) error {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}

	for _, rec := range records {
		s, ok := rec.toSubject()
		if !ok {
			log.Warn().Str("id", rec.ID).Msg("subject: skipping malformed entry on load")
			continue
		}

		r.mu.Lock()
		if r.order.Len() >= r.capacity {
			r.evictOldestLocked()
		}
		el := r.order.PushFront(&s)
		r.elements[s.ID] = el
		r.indexLocked(s)
		r.mu.Unlock()
	}
	return nil
}
