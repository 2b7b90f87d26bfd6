package model

// Store is the capability interface onto the live content model.
//
// modelsync never owns the content model; the host application supplies an
// implementation and the sync engine drives it. Each operation is assumed to
// be individually consistent, but a multi-entity apply is not wrapped in a
// cross-entity transaction: partial application on failure is a documented
// possibility, and callers requiring exclusivity must serialize invocations
// externally.
type Store interface {
	// FieldByName looks up a field by name.
	FieldByName(name string) (*Field, bool)

	// TemplateByName looks up a template by name.
	TemplateByName(name string) (*Template, bool)

	// RoleByName looks up a role by name.
	RoleByName(name string) (*Role, bool)

	// CreateField creates a field with the given concrete type.
	// Creating a field may transparently spawn auxiliary structural
	// entities (a fieldset's closing counterpart, a repeater's backing
	// template); those are store-managed and become regular lookup targets.
	CreateField(name, fieldType string) (*Field, error)

	// CreateTemplate creates an empty template (no fields attached).
	CreateTemplate(name string) (*Template, error)

	// CreateRole creates a role with no permissions or grants.
	CreateRole(name string) (*Role, error)

	// SetProperties sets semantic properties on an existing entity.
	// Properties not present in props are left untouched.
	SetProperties(ref EntityRef, props map[string]any) error

	// AttachField attaches (or repositions) a field on a template directly
	// after the field named by after. An empty after places it first.
	AttachField(template, field, after string) error

	// DetachField removes a field from a template's field list.
	DetachField(template, field string) error

	// TemplateFields returns the template's attached field names in order.
	TemplateFields(template string) ([]string, error)

	// SetFieldContext sets template-scoped override properties for a field
	// attached to the given template.
	SetFieldContext(template, field string, props map[string]any) error

	// FieldOptions returns a field's fixed option set.
	FieldOptions(field string) ([]Option, error)

	// SetFieldOptions merges opts into the field's option set. With replace
	// set, options absent from opts are removed.
	SetFieldOptions(field string, opts []Option, replace bool) error

	// SetRolePermissions sets the role's permission set.
	SetRolePermissions(role string, permissions []string) error

	// SetRoleAccess sets the role's access grants for one template.
	SetRoleAccess(role, template string, grants []string) error

	// ListFields returns all fields known to the store.
	ListFields() []*Field

	// ListTemplates returns all templates known to the store.
	ListTemplates() []*Template

	// Export returns the entity's declarative representation. Surrogate
	// keys are stripped; only semantic properties are included.
	Export(ref EntityRef) (map[string]any, error)

	// FindRecord looks up a record by its composite identity.
	FindRecord(name, template, parent string) (*Record, bool)

	// CreateRecord creates a record under the given parent.
	CreateRecord(name, template, parent string) (*Record, error)

	// SetRecordValues updates a record's title, status and data in place.
	SetRecordValues(name, template, parent, title, status string, data map[string]any) error

	// Locales returns the configured locale codes.
	Locales() []string

	// EnsureVariants enables every configured locale variant for a record.
	EnsureVariants(name, template, parent string) error
}
