package reconciler

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelsync/internal/model"
	"modelsync/internal/store"
	"modelsync/pkg/logging"
)

func newSession(t *testing.T, mode logging.OutputMode) (*model.Session, *store.Store) {
	t.Helper()
	st := store.New("en", "de")
	return &model.Session{
		Actor: model.Actor{Name: "admin", Superuser: true},
		Mode:  mode,
		Store: st,
	}, st
}

// stateSnapshot captures everything observable about the store for
// idempotence comparisons.
func stateSnapshot(t *testing.T, st *store.Store) string {
	t.Helper()
	out := ""
	for _, f := range st.ListFields() {
		export, err := st.Export(model.EntityRef{Kind: model.KindField, Name: f.Name})
		require.NoError(t, err)
		out += fmt.Sprintf("field %s %v\n", f.Name, export)
	}
	for _, tpl := range st.ListTemplates() {
		fields, err := st.TemplateFields(tpl.Name)
		require.NoError(t, err)
		export, err := st.Export(model.EntityRef{Kind: model.KindTemplate, Name: tpl.Name})
		require.NoError(t, err)
		out += fmt.Sprintf("template %s %v %v\n", tpl.Name, fields, export)
	}
	return out
}

func basicDocument() *Document {
	return &Document{
		Fields: []FieldEntry{
			{Name: "title", Type: "text", Props: map[string]any{"label": "Title"}},
			{Name: "body", Type: "textarea"},
		},
		Templates: []TemplateEntry{
			{Name: "page", Fields: []string{"title", "body"}, Props: map[string]any{"label": "Basic page"}},
		},
		Roles: []RoleEntry{
			{Name: "editor", Permissions: []string{"view", "edit"}, Access: []AccessGrant{{Template: "page", Grants: []string{"edit"}}}},
		},
		Records: []RecordEntry{
			{Name: "about", Template: "page", Parent: "/", Title: "About", Status: "published"},
		},
	}
}

func TestApplyCreatesEverything(t *testing.T) {
	session, st := newSession(t, logging.ModeVerbose)
	r := New()

	_, err := r.Apply(context.Background(), session, basicDocument())
	require.NoError(t, err)

	_, ok := st.FieldByName("title")
	assert.True(t, ok)
	_, ok = st.TemplateByName("page")
	assert.True(t, ok)

	fields, err := st.TemplateFields("page")
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "body"}, fields)

	role, ok := st.RoleByName("editor")
	require.True(t, ok)
	assert.Equal(t, []string{"view", "edit"}, role.Permissions)
	assert.Equal(t, []string{"edit"}, role.Access["page"])

	rec, ok := st.FindRecord("about", "page", "/")
	require.True(t, ok)
	assert.Equal(t, "About", rec.Title)
	assert.Equal(t, []string{"en", "de"}, rec.ActiveLocales, "creation activates every locale variant")
}

func TestApplyIsIdempotent(t *testing.T) {
	session, st := newSession(t, logging.ModeVerbose)
	r := New()

	_, err := r.Apply(context.Background(), session, basicDocument())
	require.NoError(t, err)
	first := stateSnapshot(t, st)

	_, err = r.Apply(context.Background(), session, basicDocument())
	require.NoError(t, err)
	second := stateSnapshot(t, st)

	assert.Equal(t, first, second, "re-applying the same document must not change state")
	assert.Len(t, st.ListFields(), 2, "no duplicate fields on re-apply")
	assert.Len(t, st.ListTemplates(), 1, "no duplicate templates on re-apply")
}

func TestFieldOrderFollowsDocumentOnReapply(t *testing.T) {
	session, st := newSession(t, logging.ModeVerbose)
	r := New()

	doc := &Document{
		Fields: []FieldEntry{
			{Name: "a", Type: "text"},
			{Name: "b", Type: "text"},
			{Name: "c", Type: "text"},
		},
		Templates: []TemplateEntry{{Name: "page", Fields: []string{"a", "b", "c"}}},
	}
	_, err := r.Apply(context.Background(), session, doc)
	require.NoError(t, err)

	fields, err := st.TemplateFields("page")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, fields)

	// Re-apply with a different declared order: attachment is positional,
	// never skipped, so the new order wins.
	reordered := &Document{
		Templates: []TemplateEntry{{Name: "page", Fields: []string{"b", "c", "a"}}},
	}
	_, err = r.Apply(context.Background(), session, reordered)
	require.NoError(t, err)

	fields, err = st.TemplateFields("page")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, fields)
}

func TestExclusiveFieldListDetachesAbsentees(t *testing.T) {
	session, st := newSession(t, logging.ModeVerbose)
	r := New()

	_, err := r.Apply(context.Background(), session, &Document{
		Fields: []FieldEntry{
			{Name: "a", Type: "text"},
			{Name: "b", Type: "text"},
		},
		Templates: []TemplateEntry{{Name: "page", Fields: []string{"a", "b"}}},
	})
	require.NoError(t, err)

	_, err = r.Apply(context.Background(), session, &Document{
		Templates: []TemplateEntry{{Name: "page", Fields: []string{"a"}, Exclusive: true}},
	})
	require.NoError(t, err)

	fields, err := st.TemplateFields("page")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, fields, "b should be detached, a remains")

	_, ok := st.FieldByName("b")
	assert.True(t, ok, "detaching never deletes the field itself")
}

func TestNonExclusiveListKeepsExtraFields(t *testing.T) {
	session, st := newSession(t, logging.ModeVerbose)
	r := New()

	_, err := r.Apply(context.Background(), session, &Document{
		Fields: []FieldEntry{
			{Name: "a", Type: "text"},
			{Name: "b", Type: "text"},
		},
		Templates: []TemplateEntry{{Name: "page", Fields: []string{"a", "b"}}},
	})
	require.NoError(t, err)

	_, err = r.Apply(context.Background(), session, &Document{
		Templates: []TemplateEntry{{Name: "page", Fields: []string{"a"}}},
	})
	require.NoError(t, err)

	fields, err := st.TemplateFields("page")
	require.NoError(t, err)
	assert.Contains(t, fields, "b")
}

func TestRecordUpsert(t *testing.T) {
	session, st := newSession(t, logging.ModeVerbose)
	r := New()

	doc := basicDocument()
	_, err := r.Apply(context.Background(), session, doc)
	require.NoError(t, err)

	updated := basicDocument()
	updated.Records[0].Title = "About us"
	_, err = r.Apply(context.Background(), session, updated)
	require.NoError(t, err)

	rec, ok := st.FindRecord("about", "page", "/")
	require.True(t, ok)
	assert.Equal(t, "About us", rec.Title, "second apply updates in place")
}

func TestRecordGeneratedName(t *testing.T) {
	session, st := newSession(t, logging.ModeVerbose)
	r := New()

	doc := &Document{
		Templates: []TemplateEntry{{Name: "page"}},
		Records:   []RecordEntry{{Template: "page", Parent: "/", Title: "Anon"}},
	}
	applied, err := r.Apply(context.Background(), session, doc)
	require.NoError(t, err)

	name := applied.Records[0].Name
	require.NotEmpty(t, name, "generated name is written back to the applied document")

	_, ok := st.FindRecord(name, "page", "/")
	assert.True(t, ok)
}

func TestRepeaterSubfieldsWithOverrides(t *testing.T) {
	session, st := newSession(t, logging.ModeVerbose)
	r := New()

	doc := &Document{
		Fields: []FieldEntry{
			{Name: "image", Type: "image"},
			{Name: "caption", Type: "text"},
			{Name: "gallery", Type: store.TypeRepeater, Subfields: []SubfieldRef{
				{Name: "image"},
				{Name: "caption", Overrides: map[string]any{"width": 50}},
			}},
		},
	}
	_, err := r.Apply(context.Background(), session, doc)
	require.NoError(t, err)

	backing := store.RepeaterTemplatePrefix + "gallery"
	fields, err := st.TemplateFields(backing)
	require.NoError(t, err)
	assert.Equal(t, []string{"image", "caption"}, fields)

	ctx := st.FieldContext(backing, "caption")
	require.NotNil(t, ctx)
	assert.Equal(t, 50, ctx["width"])
}

func TestFieldsetSpawnsCloserUsableInSameDocument(t *testing.T) {
	session, st := newSession(t, logging.ModeVerbose)
	r := New()

	// The closing field only exists because pass 1 created the fieldset;
	// pass 2 can then attach it by name.
	doc := &Document{
		Fields: []FieldEntry{
			{Name: "meta", Type: store.TypeFieldset},
			{Name: "keywords", Type: "text"},
		},
		Templates: []TemplateEntry{
			{Name: "page", Fields: []string{"meta", "keywords", "meta_END"}},
		},
	}
	_, err := r.Apply(context.Background(), session, doc)
	require.NoError(t, err)

	fields, err := st.TemplateFields("page")
	require.NoError(t, err)
	assert.Equal(t, []string{"meta", "keywords", "meta_END"}, fields)
}

func TestOptionsReplaceAndReservedKey(t *testing.T) {
	session, st := newSession(t, logging.ModeVerbose)
	r := New()

	_, err := r.Apply(context.Background(), session, &Document{
		Fields: []FieldEntry{
			{Name: "state", Type: "options", Options: &OptionSet{Options: []model.Option{
				{Key: 1, Label: "Draft"},
				{Key: 2, Label: "Published"},
				{Key: 0, Label: "Reserved"},
			}}},
		},
	})
	require.NoError(t, err)

	opts, err := st.FieldOptions("state")
	require.NoError(t, err)
	assert.Equal(t, []model.Option{{Key: 1, Label: "Draft"}, {Key: 2, Label: "Published"}}, opts,
		"option key 0 is reserved and never written")

	_, err = r.Apply(context.Background(), session, &Document{
		Fields: []FieldEntry{
			{Name: "state", Options: &OptionSet{Replace: true, Options: []model.Option{
				{Key: 2, Label: "Live"},
			}}},
		},
	})
	require.NoError(t, err)

	opts, err = st.FieldOptions("state")
	require.NoError(t, err)
	assert.Equal(t, []model.Option{{Key: 2, Label: "Live"}}, opts)
}

func TestUnresolvedReferencesAreSkippedNotFatal(t *testing.T) {
	session, st := newSession(t, logging.ModeVerbose)
	r := New()

	doc := &Document{
		Fields: []FieldEntry{{Name: "title", Type: "text"}},
		Templates: []TemplateEntry{
			{Name: "page", Fields: []string{"missing", "title"}},
		},
		Records: []RecordEntry{
			{Name: "orphan", Template: "ghost", Parent: "/"},
			{Name: "home", Template: "page", Parent: "/"},
		},
	}
	_, err := r.Apply(context.Background(), session, doc)
	require.NoError(t, err, "unresolved references are not fatal in verbose mode")

	fields, err := st.TemplateFields("page")
	require.NoError(t, err)
	assert.Equal(t, []string{"title"}, fields, "the resolvable entry still applies")

	_, ok := st.FindRecord("home", "page", "/")
	assert.True(t, ok)
	_, ok = st.FindRecord("orphan", "ghost", "/")
	assert.False(t, ok)
}

// failingStore rejects one operation to exercise the propagation policy.
type failingStore struct {
	model.Store
}

func (f *failingStore) SetProperties(ref model.EntityRef, props map[string]any) error {
	return fmt.Errorf("store rejected the operation")
}

func TestStoreFailurePropagationByMode(t *testing.T) {
	doc := func() *Document {
		return &Document{
			Fields: []FieldEntry{{Name: "title", Type: "text", Props: map[string]any{"label": "T"}}},
		}
	}

	for _, tt := range []struct {
		mode    logging.OutputMode
		wantErr bool
	}{
		{logging.ModeQuiet, false},
		{logging.ModeVerbose, false},
		{logging.ModeDebug, true},
	} {
		t.Run(tt.mode.String(), func(t *testing.T) {
			st := store.New()
			session := &model.Session{Mode: tt.mode, Store: &failingStore{Store: st}}

			_, err := New().Apply(context.Background(), session, doc())
			if tt.wantErr {
				var serr *model.StoreError
				require.ErrorAs(t, err, &serr)
				assert.Equal(t, "setProperties", serr.Op)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfigureOnlyFieldWithoutTypeIsNotCreated(t *testing.T) {
	session, st := newSession(t, logging.ModeVerbose)
	r := New()

	_, err := r.Apply(context.Background(), session, &Document{
		Fields: []FieldEntry{{Name: "ghost", Props: map[string]any{"label": "x"}}},
	})
	require.NoError(t, err)

	_, ok := st.FieldByName("ghost")
	assert.False(t, ok, "entries without a concrete type never create fields")
}
