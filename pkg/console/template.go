package console

import (
	"context"
	"strings"

	"golang.org/x/text/cases"

	"github.com/getmockd/apictl/pkg/api"
	"github.com/getmockd/apictl/pkg/session"
)

// TemplateSavedMessage returns the notification shown after the templates of
// key are saved.
func TemplateSavedMessage(key string) string {
	return "Response template saved for key: " + key
}

// TemplateEditor edits the response templates of one template key.
type TemplateEditor struct {
	sess   *session.TemplateSession
	deps   Deps
	params Params
	keys   []string
}

// NewTemplateEditor opens the templates of params.TemplateKey. An empty or
// unknown key opens a new template set.
func NewTemplateEditor(a *api.API, params Params, deps Deps) (*TemplateEditor, error) {
	if deps.Persister == nil {
		return nil, session.ErrNoPersister
	}
	deps = deps.withDefaults()

	sess, err := session.OpenTemplates(a, params.TemplateKey, deps.sessionOptions()...)
	if err != nil {
		return nil, err
	}
	return &TemplateEditor{sess: sess, deps: deps, params: params, keys: api.TemplateKeys()}, nil
}

// Session returns the underlying template session.
func (t *TemplateEditor) Session() *session.TemplateSession { return t.sess }

// Key returns the selected template key.
func (t *TemplateEditor) Key() string { return t.sess.Key() }

// IsCreation reports whether the key had no templates when the editor opened.
func (t *TemplateEditor) IsCreation() bool { return t.sess.IsCreation() }

// Rows returns the editable template rows.
func (t *TemplateEditor) Rows() []*session.TemplateRow { return t.sess.Rows() }

// TemplateKeys returns the well-known template keys.
func (t *TemplateEditor) TemplateKeys() []string { return t.keys }

// SuggestKeys returns the well-known keys containing query, ignoring case.
// An empty query returns every key.
func (t *TemplateEditor) SuggestKeys(query string) []string {
	return SuggestKeys(t.keys, query)
}

// SuggestKeys returns the keys containing query, ignoring case.
func SuggestKeys(keys []string, query string) []string {
	if query == "" {
		return append([]string(nil), keys...)
	}
	fold := cases.Fold()
	q := fold.String(query)
	var out []string
	for _, k := range keys {
		if strings.Contains(fold.String(k), q) {
			out = append(out, k)
		}
	}
	return out
}

// Search returns the suggestions for query and selects query as the key, so
// a key that is not in the list can still be used.
func (t *TemplateEditor) Search(query string) []string {
	if query != "" {
		t.sess.SetKey(query)
	}
	return t.SuggestKeys(query)
}

// SelectKey selects the key the templates are saved under.
func (t *TemplateEditor) SelectKey(key string) {
	t.sess.SetKey(key)
	t.deps.Form.SetDirty()
}

// AddTemplate adds a row for mediaType.
func (t *TemplateEditor) AddTemplate(mediaType string) *session.TemplateRow {
	row := t.sess.AddTemplate(mediaType)
	t.deps.Form.SetDirty()
	return row
}

// DeleteTemplate removes the rows for mediaType and marks the form dirty.
func (t *TemplateEditor) DeleteTemplate(mediaType string) int {
	n := t.sess.DeleteTemplate(mediaType)
	t.deps.Form.SetDirty()
	return n
}

// Save commits the templates, then notifies the operator and returns to the
// template list.
func (t *TemplateEditor) Save(ctx context.Context) (*api.API, error) {
	updated, err := t.sess.Commit(ctx, t.deps.Persister)
	if err != nil {
		return nil, err
	}
	key := t.sess.Key()
	t.deps.Form.SetPristine()
	t.deps.Notifier.Show(TemplateSavedMessage(key))

	params := t.params
	params.TemplateKey = key
	if err := t.deps.Navigator.Go(StateTemplates, params); err != nil {
		t.deps.Logger.Warn("navigation failed", "state", StateTemplates, "error", err)
	}
	return updated, nil
}

// Reset reloads the key and rows last loaded or saved.
func (t *TemplateEditor) Reset() error {
	if err := t.sess.Revert(); err != nil {
		return err
	}
	t.deps.Form.SetPristine()
	return nil
}
