package reconciler

import "modelsync/internal/model"

// Document is one decoded declarative configuration.
//
// All four sections preserve the document's declared order: passes iterate
// entries in insertion order, and within a template the field order defines
// display and storage order. Any section may be empty. Keys are unique per
// document, but a document may be applied many times; across applies a given
// key resolves to the same underlying entity via lookup by name.
type Document struct {
	Fields    []FieldEntry
	Templates []TemplateEntry
	Roles     []RoleEntry
	Records   []RecordEntry
}

// FieldEntry declares one field.
type FieldEntry struct {
	// Name is the field name.
	Name string

	// Type is the concrete field type. Entries without a type configure
	// an existing field but never create one.
	Type string

	// Props are plain properties set on the field after creation.
	Props map[string]any

	// Subfields is the declared subfield list for a repeating-group
	// field, attached in order to the group's backing template.
	Subfields []SubfieldRef

	// Options is the field's fixed option set, when declared.
	Options *OptionSet
}

// SubfieldRef references a field inside a repeating group, optionally with
// template-scoped override properties applied after attachment.
type SubfieldRef struct {
	Name      string
	Overrides map[string]any
}

// OptionSet declares a field's fixed option set. With Replace set, options
// absent from the new set are removed from the field.
type OptionSet struct {
	Replace bool
	Options []model.Option
}

// TemplateEntry declares one template and its ordered field list.
type TemplateEntry struct {
	// Name is the template name.
	Name string

	// Fields is the declared attachment order.
	Fields []string

	// Exclusive detaches previously-attached fields absent from Fields.
	Exclusive bool

	// Props are non-field properties, set only when explicitly declared.
	Props map[string]any
}

// RoleEntry declares one role.
type RoleEntry struct {
	// Name is the role name.
	Name string

	// Permissions is the declared permission set; nil leaves the role's
	// permissions untouched.
	Permissions []string

	// Access lists per-template access grants in declared order.
	Access []AccessGrant
}

// AccessGrant grants a role operations on one template.
type AccessGrant struct {
	Template string
	Grants   []string
}

// RecordEntry declares one seed record.
type RecordEntry struct {
	// Name is the record's lookup name. When empty, a unique name is
	// generated during apply and written back to the entry.
	Name string

	// Template is the record's template; it must resolve.
	Template string

	// Parent is the record's parent path or name.
	Parent string

	Title  string
	Status string
	Data   map[string]any
}

// Empty reports whether the document declares nothing.
func (d *Document) Empty() bool {
	return d == nil ||
		len(d.Fields) == 0 && len(d.Templates) == 0 && len(d.Roles) == 0 && len(d.Records) == 0
}
