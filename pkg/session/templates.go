package session

import (
	"context"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/getmockd/apictl/pkg/api"
)

// HeaderRow is one editable response header.
type HeaderRow struct {
	Name  string
	Value string
}

// TemplateRow is the editable form of one media type's response template.
type TemplateRow struct {
	MediaType string
	Status    int
	Body      string
	Headers   []HeaderRow
}

// AddHeader appends a header row.
func (r *TemplateRow) AddHeader(name, value string) {
	r.Headers = append(r.Headers, HeaderRow{Name: name, Value: value})
}

// RemoveHeader deletes every header row named name and returns how many
// were removed.
func (r *TemplateRow) RemoveHeader(name string) int {
	before := len(r.Headers)
	r.Headers = slices.DeleteFunc(r.Headers, func(h HeaderRow) bool { return h.Name == name })
	return before - len(r.Headers)
}

func (r *TemplateRow) clone() *TemplateRow {
	out := *r
	out.Headers = slices.Clone(r.Headers)
	return &out
}

// template converts the row; header rows without a name are dropped and a
// repeated name keeps its last value.
func (r *TemplateRow) template() api.ResponseTemplate {
	t := api.ResponseTemplate{Status: r.Status, Body: r.Body}
	for _, h := range r.Headers {
		if h.Name == "" {
			continue
		}
		if t.Headers == nil {
			t.Headers = make(map[string]string, len(r.Headers))
		}
		t.Headers[h.Name] = h.Value
	}
	return t
}

func rowsFromSet(set api.ResponseTemplateSet) []*TemplateRow {
	mediaTypes := make([]string, 0, len(set))
	for mt := range set {
		mediaTypes = append(mediaTypes, mt)
	}
	sort.Strings(mediaTypes)

	rows := make([]*TemplateRow, 0, len(set))
	for _, mt := range mediaTypes {
		t := set[mt]
		row := &TemplateRow{MediaType: mt, Status: t.Status, Body: t.Body}
		names := make([]string, 0, len(t.Headers))
		for name := range t.Headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			row.AddHeader(name, t.Headers[name])
		}
		rows = append(rows, row)
	}
	return rows
}

func cloneRows(rows []*TemplateRow) []*TemplateRow {
	out := make([]*TemplateRow, len(rows))
	for i, r := range rows {
		out[i] = r.clone()
	}
	return out
}

// TemplateSession edits the response templates of one template key.
// It works on its own deep copy of the API.
type TemplateSession struct {
	mu         sync.Mutex
	committing atomic.Bool
	opts       options

	agg      *api.API
	key      string
	rows     []*TemplateRow
	creation bool

	snapKey  string
	snapRows []*TemplateRow
}

// OpenTemplates starts a session on the templates of key. When the API has
// no templates for key the session is in creation mode and starts with one
// row for api.DefaultMediaType.
func OpenTemplates(a *api.API, key string, opts ...Option) (*TemplateSession, error) {
	if a == nil {
		return nil, ErrNilAPI
	}
	s := &TemplateSession{
		opts: buildOptions(opts),
		agg:  a.Clone(),
		key:  key,
	}

	set, ok := s.agg.ResponseTemplates[key]
	if key != "" && ok {
		s.rows = rowsFromSet(set)
	} else {
		s.creation = true
		s.rows = []*TemplateRow{newTemplateRow(api.DefaultMediaType)}
	}
	s.snapKey = s.key
	s.snapRows = cloneRows(s.rows)

	s.opts.log.Debug("template session opened", "key", key, "creation", s.creation, "rows", len(s.rows))
	return s, nil
}

func newTemplateRow(mediaType string) *TemplateRow {
	return &TemplateRow{MediaType: mediaType, Status: api.DefaultTemplateStatus}
}

// Key returns the selected template key.
func (s *TemplateSession) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// SetKey selects the template key the rows are saved under.
func (s *TemplateSession) SetKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
}

// IsCreation reports whether the key had no templates when the session
// opened and nothing has been committed since.
func (s *TemplateSession) IsCreation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creation
}

// API returns the session's copy of the API definition.
func (s *TemplateSession) API() *api.API {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agg
}

// Rows returns the editable rows. The rows are live: edits through the
// returned pointers are committed.
func (s *TemplateSession) Rows() []*TemplateRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rows)
}

// Row returns the first row for mediaType.
func (s *TemplateSession) Row(mediaType string) (*TemplateRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.MediaType == mediaType {
			return r, true
		}
	}
	return nil, false
}

// AddTemplate appends a row for mediaType with the default status and no
// headers.
func (s *TemplateSession) AddTemplate(mediaType string) *TemplateRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := newTemplateRow(mediaType)
	s.rows = append(s.rows, row)
	return row
}

// DeleteTemplate removes every row for mediaType and returns how many were
// removed.
func (s *TemplateSession) DeleteTemplate(mediaType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.rows)
	s.rows = slices.DeleteFunc(s.rows, func(r *TemplateRow) bool { return r.MediaType == mediaType })
	return before - len(s.rows)
}

// Build converts the rows into a template set. A media type that appears on
// several rows keeps its last row. Build returns nil when there are no rows.
func (s *TemplateSession) Build() api.ResponseTemplateSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.build()
}

func (s *TemplateSession) build() api.ResponseTemplateSet {
	if len(s.rows) == 0 {
		return nil
	}
	set := make(api.ResponseTemplateSet, len(s.rows))
	for _, r := range s.rows {
		set[r.MediaType] = r.template()
	}
	return set
}

// Commit writes the rows into the API under the selected key and persists
// it. With no rows left the key is removed from the API instead of being
// saved as an empty set. Persist errors are returned as is.
func (s *TemplateSession) Commit(ctx context.Context, p Persister) (*api.API, error) {
	if p == nil {
		return nil, ErrNoPersister
	}
	if !s.committing.CompareAndSwap(false, true) {
		return nil, ErrCommitInProgress
	}
	defer s.committing.Store(false)

	agg, key, err := s.apply()
	if err != nil {
		return nil, err
	}

	updated, etag, err := p.UpdateAPI(ctx, agg)
	if err != nil {
		s.opts.log.Warn("persist failed", "key", key, "error", err)
		return nil, err
	}
	if updated == nil {
		updated = agg
	}
	if etag != "" {
		updated.ETag = etag
	}

	s.mu.Lock()
	s.agg = updated
	s.creation = false
	s.snapKey = s.key
	s.snapRows = cloneRows(s.rows)
	s.mu.Unlock()

	s.opts.log.Debug("template session committed", "key", key, "etag", updated.ETag)
	s.opts.publish(updated)
	return updated, nil
}

func (s *TemplateSession) apply() (*api.API, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key == "" {
		return nil, "", ErrMissingTemplateKey
	}
	if set := s.build(); set != nil {
		if s.agg.ResponseTemplates == nil {
			s.agg.ResponseTemplates = make(map[string]api.ResponseTemplateSet)
		}
		s.agg.ResponseTemplates[s.key] = set
	} else {
		delete(s.agg.ResponseTemplates, s.key)
	}
	return s.agg, s.key, nil
}

// Revert restores the key and rows captured at open or at the last
// successful commit.
func (s *TemplateSession) Revert() error {
	if s.committing.Load() {
		return ErrCommitInProgress
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = s.snapKey
	s.rows = cloneRows(s.snapRows)
	return nil
}
