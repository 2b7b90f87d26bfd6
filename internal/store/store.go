package store

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"modelsync/internal/events"
	"modelsync/internal/model"
)

// Field types with auxiliary structural entities.
const (
	// TypeFieldset opens a visual group; creating one spawns a matching
	// closing field named "<name>_END".
	TypeFieldset = "fieldset"

	// TypeFieldsetClose is the auto-generated closing counterpart.
	TypeFieldsetClose = "fieldset_close"

	// TypeRepeater is a repeating-group field; creating one spawns a
	// system backing template "repeater_<name>" that holds the subfields.
	TypeRepeater = "repeater"
)

// FieldsetCloseSuffix is appended to a fieldset field's name to form the
// name of its auto-generated closing field.
const FieldsetCloseSuffix = "_END"

// RepeaterTemplatePrefix prefixes the auto-generated backing template of a
// repeater field.
const RepeaterTemplatePrefix = "repeater_"

// surrogateKeys are identity properties that must never leak into exports.
var surrogateKeys = []string{"id", "ID", "_id"}

// Store is an in-memory implementation of model.Store.
//
// It backs tests and the standalone CLI mode, and doubles as the reference
// for host applications implementing the capability interface: auxiliary
// entity spawning, positional field attachment and export semantics follow
// the behavior documented on model.Store.
type Store struct {
	mu sync.RWMutex

	fields    map[string]*model.Field
	templates map[string]*model.Template
	roles     map[string]*model.Role
	records   map[recordKey]*model.Record

	// attached holds each template's ordered field list.
	attached map[string][]string

	// contexts holds template-scoped field override properties.
	contexts map[string]map[string]map[string]any

	// options holds each field's fixed option set, kept sorted by key.
	options map[string][]model.Option

	// ids are surrogate keys, never exported.
	ids    map[model.EntityRef]int
	nextID int

	locales []string

	// bus, when set, receives EntitySaved events for every mutation.
	bus *events.Bus
}

type recordKey struct {
	name     string
	template string
	parent   string
}

// New creates an empty store with the given locale codes. With no locales
// configured, "default" is assumed.
func New(locales ...string) *Store {
	if len(locales) == 0 {
		locales = []string{"default"}
	}
	return &Store{
		fields:    make(map[string]*model.Field),
		templates: make(map[string]*model.Template),
		roles:     make(map[string]*model.Role),
		records:   make(map[recordKey]*model.Record),
		attached:  make(map[string][]string),
		contexts:  make(map[string]map[string]map[string]any),
		options:   make(map[string][]model.Option),
		ids:       make(map[model.EntityRef]int),
		nextID:    1000,
		locales:   locales,
	}
}

// SetBus wires an event bus; every subsequent mutation publishes an
// EntitySaved event on it.
func (s *Store) SetBus(bus *events.Bus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bus = bus
}

func (s *Store) notify(kind model.Kind, name string) {
	if s.bus != nil {
		s.bus.Publish(events.Event{Reason: events.ReasonEntitySaved, Kind: kind, Name: name})
	}
}

func (s *Store) assignID(ref model.EntityRef) {
	s.ids[ref] = s.nextID
	s.nextID++
}

// FieldByName looks up a field by name.
func (s *Store) FieldByName(name string) (*model.Field, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fields[name]
	return f, ok
}

// TemplateByName looks up a template by name.
func (s *Store) TemplateByName(name string) (*model.Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[name]
	return t, ok
}

// RoleByName looks up a role by name.
func (s *Store) RoleByName(name string) (*model.Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[name]
	return r, ok
}

// CreateField creates a field, spawning auxiliary structural entities for
// fieldset and repeater types.
func (s *Store) CreateField(name, fieldType string) (*model.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.fields[name]; exists {
		return nil, fmt.Errorf("field %q already exists", name)
	}
	if fieldType == "" {
		return nil, fmt.Errorf("field %q has no type", name)
	}

	f := &model.Field{Name: name, Type: fieldType, Props: make(map[string]any)}
	s.fields[name] = f
	s.assignID(model.EntityRef{Kind: model.KindField, Name: name})

	switch fieldType {
	case TypeFieldset:
		closer := name + FieldsetCloseSuffix
		if _, exists := s.fields[closer]; !exists {
			s.fields[closer] = &model.Field{Name: closer, Type: TypeFieldsetClose, Props: make(map[string]any)}
			s.assignID(model.EntityRef{Kind: model.KindField, Name: closer})
		}

	case TypeRepeater:
		backing := RepeaterTemplatePrefix + name
		if _, exists := s.templates[backing]; !exists {
			s.templates[backing] = &model.Template{Name: backing, System: true, Props: make(map[string]any)}
			s.attached[backing] = nil
			s.assignID(model.EntityRef{Kind: model.KindTemplate, Name: backing})
		}
		f.Props["template"] = backing
	}

	s.notify(model.KindField, name)
	return f, nil
}

// CreateTemplate creates an empty template.
func (s *Store) CreateTemplate(name string) (*model.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.templates[name]; exists {
		return nil, fmt.Errorf("template %q already exists", name)
	}

	t := &model.Template{Name: name, Props: make(map[string]any)}
	s.templates[name] = t
	s.attached[name] = nil
	s.assignID(model.EntityRef{Kind: model.KindTemplate, Name: name})
	s.notify(model.KindTemplate, name)
	return t, nil
}

// CreateRole creates an empty role.
func (s *Store) CreateRole(name string) (*model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.roles[name]; exists {
		return nil, fmt.Errorf("role %q already exists", name)
	}

	r := &model.Role{Name: name, Access: make(map[string][]string)}
	s.roles[name] = r
	s.assignID(model.EntityRef{Kind: model.KindRole, Name: name})
	s.notify(model.KindRole, name)
	return r, nil
}

// SetProperties merges props onto an existing field or template. Properties
// not named in props are left untouched.
func (s *Store) SetProperties(ref model.EntityRef, props map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target map[string]any
	switch ref.Kind {
	case model.KindField:
		f, ok := s.fields[ref.Name]
		if !ok {
			return &model.UnresolvedReferenceError{Kind: ref.Kind, Name: ref.Name}
		}
		target = f.Props
	case model.KindTemplate:
		t, ok := s.templates[ref.Name]
		if !ok {
			return &model.UnresolvedReferenceError{Kind: ref.Kind, Name: ref.Name}
		}
		target = t.Props
	default:
		return fmt.Errorf("cannot set properties on %s %q", ref.Kind, ref.Name)
	}

	for k, v := range props {
		target[k] = v
	}
	s.notify(ref.Kind, ref.Name)
	return nil
}

// AttachField attaches or repositions a field on a template, placing it
// directly after the field named by after (or first for an empty after).
func (s *Store) AttachField(template, field, after string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[template]; !ok {
		return &model.UnresolvedReferenceError{Kind: model.KindTemplate, Name: template}
	}
	if _, ok := s.fields[field]; !ok {
		return &model.UnresolvedReferenceError{Kind: model.KindField, Name: field}
	}

	list := s.attached[template]
	if i := slices.Index(list, field); i >= 0 {
		list = slices.Delete(list, i, i+1)
	}

	pos := 0
	if after != "" {
		if i := slices.Index(list, after); i >= 0 {
			pos = i + 1
		} else {
			pos = len(list)
		}
	}
	list = slices.Insert(list, pos, field)
	s.attached[template] = list
	s.notify(model.KindTemplate, template)
	return nil
}

// DetachField removes a field from a template's field list.
func (s *Store) DetachField(template, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[template]; !ok {
		return &model.UnresolvedReferenceError{Kind: model.KindTemplate, Name: template}
	}

	list := s.attached[template]
	if i := slices.Index(list, field); i >= 0 {
		s.attached[template] = slices.Delete(list, i, i+1)
		delete(s.contexts[template], field)
		s.notify(model.KindTemplate, template)
	}
	return nil
}

// TemplateFields returns the template's attached field names in order.
func (s *Store) TemplateFields(template string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.templates[template]; !ok {
		return nil, &model.UnresolvedReferenceError{Kind: model.KindTemplate, Name: template}
	}
	return slices.Clone(s.attached[template]), nil
}

// SetFieldContext stores template-scoped override properties for a field.
func (s *Store) SetFieldContext(template, field string, props map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[template]; !ok {
		return &model.UnresolvedReferenceError{Kind: model.KindTemplate, Name: template}
	}
	if _, ok := s.fields[field]; !ok {
		return &model.UnresolvedReferenceError{Kind: model.KindField, Name: field}
	}

	ctx := s.contexts[template]
	if ctx == nil {
		ctx = make(map[string]map[string]any)
		s.contexts[template] = ctx
	}
	if ctx[field] == nil {
		ctx[field] = make(map[string]any)
	}
	for k, v := range props {
		ctx[field][k] = v
	}
	s.notify(model.KindTemplate, template)
	return nil
}

// FieldContext returns the template-scoped override properties for a field.
func (s *Store) FieldContext(template, field string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contexts[template][field]
}

// FieldOptions returns a field's fixed option set sorted by key.
func (s *Store) FieldOptions(field string) ([]model.Option, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.fields[field]; !ok {
		return nil, &model.UnresolvedReferenceError{Kind: model.KindField, Name: field}
	}
	return slices.Clone(s.options[field]), nil
}

// SetFieldOptions merges opts into the field's option set; with replace set,
// options absent from opts are removed.
func (s *Store) SetFieldOptions(field string, opts []model.Option, replace bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.fields[field]; !ok {
		return &model.UnresolvedReferenceError{Kind: model.KindField, Name: field}
	}

	byKey := make(map[int]string)
	if !replace {
		for _, o := range s.options[field] {
			byKey[o.Key] = o.Label
		}
	}
	for _, o := range opts {
		byKey[o.Key] = o.Label
	}

	merged := make([]model.Option, 0, len(byKey))
	for k, label := range byKey {
		merged = append(merged, model.Option{Key: k, Label: label})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Key < merged[j].Key })
	s.options[field] = merged
	s.notify(model.KindField, field)
	return nil
}

// SetRolePermissions sets the role's permission set.
func (s *Store) SetRolePermissions(role string, permissions []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.roles[role]
	if !ok {
		return &model.UnresolvedReferenceError{Kind: model.KindRole, Name: role}
	}
	r.Permissions = slices.Clone(permissions)
	s.notify(model.KindRole, role)
	return nil
}

// SetRoleAccess sets the role's access grants for one template.
func (s *Store) SetRoleAccess(role, template string, grants []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.roles[role]
	if !ok {
		return &model.UnresolvedReferenceError{Kind: model.KindRole, Name: role}
	}
	if _, ok := s.templates[template]; !ok {
		return &model.UnresolvedReferenceError{Kind: model.KindTemplate, Name: template}
	}
	r.Access[template] = slices.Clone(grants)
	s.notify(model.KindRole, role)
	return nil
}

// ListFields returns all fields sorted by name.
func (s *Store) ListFields() []*model.Field {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields := make([]*model.Field, 0, len(s.fields))
	for _, f := range s.fields {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields
}

// ListTemplates returns all templates sorted by name.
func (s *Store) ListTemplates() []*model.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()

	templates := make([]*model.Template, 0, len(s.templates))
	for _, t := range s.templates {
		templates = append(templates, t)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates
}

// Export returns the entity's declarative representation with surrogate keys
// stripped.
func (s *Store) Export(ref model.EntityRef) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any)

	switch ref.Kind {
	case model.KindField:
		f, ok := s.fields[ref.Name]
		if !ok {
			return nil, &model.UnresolvedReferenceError{Kind: ref.Kind, Name: ref.Name}
		}
		out["type"] = f.Type
		for k, v := range f.Props {
			out[k] = v
		}
		if opts := s.options[ref.Name]; len(opts) > 0 {
			m := make(map[string]any, len(opts))
			for _, o := range opts {
				m[fmt.Sprintf("%d", o.Key)] = o.Label
			}
			out["options"] = m
		}

	case model.KindTemplate:
		t, ok := s.templates[ref.Name]
		if !ok {
			return nil, &model.UnresolvedReferenceError{Kind: ref.Kind, Name: ref.Name}
		}
		for k, v := range t.Props {
			out[k] = v
		}
		if list := s.attached[ref.Name]; len(list) > 0 {
			out["fields"] = slices.Clone(list)
		}

	default:
		return nil, fmt.Errorf("cannot export %s %q", ref.Kind, ref.Name)
	}

	for _, k := range surrogateKeys {
		delete(out, k)
	}
	return out, nil
}

// FindRecord looks up a record by its composite identity.
func (s *Store) FindRecord(name, template, parent string) (*model.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[recordKey{name, template, parent}]
	return r, ok
}

// CreateRecord creates a record under the given parent.
func (s *Store) CreateRecord(name, template, parent string) (*model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[template]; !ok {
		return nil, &model.UnresolvedReferenceError{Kind: model.KindTemplate, Name: template}
	}
	key := recordKey{name, template, parent}
	if _, exists := s.records[key]; exists {
		return nil, fmt.Errorf("record %q (template %s, parent %s) already exists", name, template, parent)
	}

	r := &model.Record{Name: name, Template: template, Parent: parent, Data: make(map[string]any)}
	s.records[key] = r
	s.assignID(model.EntityRef{Kind: model.KindRecord, Name: name})
	s.notify(model.KindRecord, name)
	return r, nil
}

// SetRecordValues updates a record's title, status and data in place. Empty
// title/status and nil data leave the respective values untouched.
func (s *Store) SetRecordValues(name, template, parent, title, status string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[recordKey{name, template, parent}]
	if !ok {
		return &model.UnresolvedReferenceError{Kind: model.KindRecord, Name: name}
	}

	if title != "" {
		r.Title = title
	}
	if status != "" {
		r.Status = status
	}
	for k, v := range data {
		r.Data[k] = v
	}
	s.notify(model.KindRecord, name)
	return nil
}

// Locales returns the configured locale codes.
func (s *Store) Locales() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.locales)
}

// EnsureVariants enables every configured locale variant for a record.
func (s *Store) EnsureVariants(name, template, parent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[recordKey{name, template, parent}]
	if !ok {
		return &model.UnresolvedReferenceError{Kind: model.KindRecord, Name: name}
	}
	r.ActiveLocales = slices.Clone(s.locales)
	s.notify(model.KindRecord, name)
	return nil
}
