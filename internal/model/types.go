package model

// Kind identifies the category of a store-managed entity.
type Kind string

const (
	// KindField is a named, typed unit of data storable on records.
	KindField Kind = "Field"

	// KindTemplate is a named schema composed of an ordered field list.
	KindTemplate Kind = "Template"

	// KindRole is a named set of permissions and per-template access grants.
	KindRole Kind = "Role"

	// KindRecord is a content record conforming to a template.
	KindRecord Kind = "Record"
)

// EntityRef identifies a store entity by kind and name.
//
// Entities are always addressed by name, never by surrogate key: a declarative
// document applied many times must resolve a given name to the same underlying
// entity on every apply.
type EntityRef struct {
	Kind Kind
	Name string
}

// Field is a named, typed unit of data.
type Field struct {
	// Name is the unique field name.
	Name string

	// Type is the concrete field type (text, fieldset, repeater, options, ...).
	Type string

	// System marks internal fields that are excluded from snapshots.
	System bool

	// Props holds the field's semantic properties (label, width, ...).
	Props map[string]any
}

// Template is a named record schema with an ordered field list.
// Field attachment order is semantically meaningful: it defines display and
// storage order and must be reproducible on every apply.
type Template struct {
	// Name is the unique template name.
	Name string

	// System marks auto-generated backing templates (e.g. for repeater
	// fields) that are excluded from snapshots.
	System bool

	// Props holds the template's semantic properties.
	Props map[string]any
}

// Role is a named set of permissions with per-template access grants.
type Role struct {
	// Name is the unique role name.
	Name string

	// Permissions is the set of granted permission names.
	Permissions []string

	// Access maps template names to granted operations (view, edit, create, ...).
	Access map[string][]string
}

// Record is a content record.
//
// Records are identified by the composite (Name, Template, Parent); the same
// name may exist under different parents or templates.
type Record struct {
	Name     string
	Template string
	Parent   string
	Title    string
	Status   string
	Data     map[string]any

	// ActiveLocales lists the locale variants enabled for the record.
	// A record is not fully initialized until every configured locale
	// variant is enabled.
	ActiveLocales []string
}

// Option is one entry of a field's fixed option set.
// Key 0 is reserved and must never be written.
type Option struct {
	Key   int
	Label string
}

// RepeaterTemplate returns the name of the auto-generated backing template of
// a repeating-group field, if the field has one.
func RepeaterTemplate(f *Field) (string, bool) {
	if f == nil || f.Props == nil {
		return "", false
	}
	name, ok := f.Props["template"].(string)
	return name, ok && name != ""
}
