package reconciler

import (
	"context"

	"github.com/google/uuid"

	"modelsync/internal/model"
	"modelsync/pkg/logging"
)

// Reconciler applies one decoded configuration document onto a live content
// model, idempotently: applying the same document twice produces the same end
// state and never duplicates entities.
//
// Apply runs three passes, each iterating the document's declared order:
//
//  1. Create-missing: fields with a concrete type, templates and roles are
//     created if absent (lookup by name). This pass exists to break circular
//     references: a template's field list may reference fields that reference
//     that very template's auto-generated backing type.
//  2. Attach/configure: properties, option sets, repeater subfields, ordered
//     template field attachment, role permissions and access grants.
//  3. Records: upsert by (name, template, parent), activating every locale
//     variant on creation.
//
// There is no cross-entity transaction: entries applied before a failing
// entry remain applied.
type Reconciler struct{}

// New creates a Reconciler.
func New() *Reconciler {
	return &Reconciler{}
}

// Apply applies the document to the session's store and returns the applied
// document with generated record names resolved.
//
// Unresolvable references are logged and their entry's effect skipped; the
// pass continues with remaining entries. Store operation failures follow the
// session's output mode: quiet swallows, verbose logs and continues, debug
// returns the error and the remainder of the run is aborted by the caller.
func (r *Reconciler) Apply(ctx context.Context, session *model.Session, doc *Document) (*Document, error) {
	if doc.Empty() {
		logging.Debug("Reconciler", "Empty document, nothing to apply")
		return doc, nil
	}

	if err := r.createMissing(session, doc); err != nil {
		return doc, err
	}
	if err := r.configure(session, doc); err != nil {
		return doc, err
	}
	if err := r.applyRecords(session, doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// createMissing is the first pass: bring every named entity into existence
// without configuring it.
func (r *Reconciler) createMissing(session *model.Session, doc *Document) error {
	store := session.Store

	for i := range doc.Fields {
		e := &doc.Fields[i]
		if e.Type == "" {
			// Configure-only entry; the field must already exist.
			continue
		}
		if _, ok := store.FieldByName(e.Name); ok {
			continue
		}
		if _, err := store.CreateField(e.Name, e.Type); err != nil {
			if ferr := r.storeFailure(session, "create", model.EntityRef{Kind: model.KindField, Name: e.Name}, err); ferr != nil {
				return ferr
			}
		}
	}

	for i := range doc.Templates {
		e := &doc.Templates[i]
		if _, ok := store.TemplateByName(e.Name); ok {
			continue
		}
		if _, err := store.CreateTemplate(e.Name); err != nil {
			if ferr := r.storeFailure(session, "create", model.EntityRef{Kind: model.KindTemplate, Name: e.Name}, err); ferr != nil {
				return ferr
			}
		}
	}

	for i := range doc.Roles {
		e := &doc.Roles[i]
		if _, ok := store.RoleByName(e.Name); ok {
			continue
		}
		if _, err := store.CreateRole(e.Name); err != nil {
			if ferr := r.storeFailure(session, "create", model.EntityRef{Kind: model.KindRole, Name: e.Name}, err); ferr != nil {
				return ferr
			}
		}
	}

	return nil
}

// configure is the second pass: set properties and wire relationships on the
// now-existing entities.
func (r *Reconciler) configure(session *model.Session, doc *Document) error {
	for i := range doc.Fields {
		if err := r.configureField(session, &doc.Fields[i]); err != nil {
			return err
		}
	}
	for i := range doc.Templates {
		if err := r.configureTemplate(session, &doc.Templates[i]); err != nil {
			return err
		}
	}
	for i := range doc.Roles {
		if err := r.configureRole(session, &doc.Roles[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) configureField(session *model.Session, e *FieldEntry) error {
	store := session.Store

	f, ok := store.FieldByName(e.Name)
	if !ok {
		r.skipUnresolved(model.KindField, e.Name, "field configuration")
		return nil
	}
	ref := model.EntityRef{Kind: model.KindField, Name: e.Name}

	if len(e.Props) > 0 {
		if err := store.SetProperties(ref, e.Props); err != nil {
			if ferr := r.storeFailure(session, "setProperties", ref, err); ferr != nil {
				return ferr
			}
		}
	}

	if e.Options != nil {
		opts := make([]model.Option, 0, len(e.Options.Options))
		for _, o := range e.Options.Options {
			if o.Key == 0 {
				// Key 0 is reserved and must never be written.
				logging.Warn("Reconciler", "Option key 0 on field %s is reserved; skipping %q", e.Name, o.Label)
				continue
			}
			opts = append(opts, o)
		}
		if err := store.SetFieldOptions(e.Name, opts, e.Options.Replace); err != nil {
			if ferr := r.storeFailure(session, "setOptions", ref, err); ferr != nil {
				return ferr
			}
		}
	}

	if len(e.Subfields) > 0 {
		backing, ok := model.RepeaterTemplate(f)
		if !ok {
			r.skipUnresolved(model.KindTemplate, "backing template of "+e.Name, "repeater subfields")
			return nil
		}

		prev := ""
		for _, sub := range e.Subfields {
			if _, ok := store.FieldByName(sub.Name); !ok {
				r.skipUnresolved(model.KindField, sub.Name, "repeater subfields of "+e.Name)
				continue
			}
			if err := store.AttachField(backing, sub.Name, prev); err != nil {
				if ferr := r.storeFailure(session, "attach", model.EntityRef{Kind: model.KindTemplate, Name: backing}, err); ferr != nil {
					return ferr
				}
				continue
			}
			prev = sub.Name
			if len(sub.Overrides) > 0 {
				if err := store.SetFieldContext(backing, sub.Name, sub.Overrides); err != nil {
					if ferr := r.storeFailure(session, "setContext", model.EntityRef{Kind: model.KindTemplate, Name: backing}, err); ferr != nil {
						return ferr
					}
				}
			}
		}
	}

	return nil
}

func (r *Reconciler) configureTemplate(session *model.Session, e *TemplateEntry) error {
	store := session.Store

	if _, ok := store.TemplateByName(e.Name); !ok {
		r.skipUnresolved(model.KindTemplate, e.Name, "template configuration")
		return nil
	}
	ref := model.EntityRef{Kind: model.KindTemplate, Name: e.Name}

	// Attachment is always positional, never skipped when the field is
	// already present: reruns restore the declared order even if fields
	// exist in the wrong position.
	prev := ""
	attached := make(map[string]bool, len(e.Fields))
	for _, fname := range e.Fields {
		if _, ok := store.FieldByName(fname); !ok {
			r.skipUnresolved(model.KindField, fname, "field list of "+e.Name)
			continue
		}
		if err := store.AttachField(e.Name, fname, prev); err != nil {
			if ferr := r.storeFailure(session, "attach", ref, err); ferr != nil {
				return ferr
			}
			continue
		}
		prev = fname
		attached[fname] = true
	}

	if e.Exclusive {
		current, err := store.TemplateFields(e.Name)
		if err != nil {
			if ferr := r.storeFailure(session, "listFields", ref, err); ferr != nil {
				return ferr
			}
		}
		for _, cur := range current {
			if attached[cur] {
				continue
			}
			if err := store.DetachField(e.Name, cur); err != nil {
				if ferr := r.storeFailure(session, "detach", ref, err); ferr != nil {
					return ferr
				}
			}
		}
	}

	// Non-field properties are a merge: unspecified properties are left
	// untouched.
	if len(e.Props) > 0 {
		if err := store.SetProperties(ref, e.Props); err != nil {
			if ferr := r.storeFailure(session, "setProperties", ref, err); ferr != nil {
				return ferr
			}
		}
	}

	return nil
}

func (r *Reconciler) configureRole(session *model.Session, e *RoleEntry) error {
	store := session.Store

	if _, ok := store.RoleByName(e.Name); !ok {
		r.skipUnresolved(model.KindRole, e.Name, "role configuration")
		return nil
	}
	ref := model.EntityRef{Kind: model.KindRole, Name: e.Name}

	if e.Permissions != nil {
		if err := store.SetRolePermissions(e.Name, e.Permissions); err != nil {
			if ferr := r.storeFailure(session, "setPermissions", ref, err); ferr != nil {
				return ferr
			}
		}
	}

	for _, grant := range e.Access {
		if _, ok := store.TemplateByName(grant.Template); !ok {
			r.skipUnresolved(model.KindTemplate, grant.Template, "access grants of "+e.Name)
			continue
		}
		if err := store.SetRoleAccess(e.Name, grant.Template, grant.Grants); err != nil {
			if ferr := r.storeFailure(session, "setAccess", ref, err); ferr != nil {
				return ferr
			}
		}
	}

	return nil
}

// applyRecords is the third pass: upsert seed records.
func (r *Reconciler) applyRecords(session *model.Session, doc *Document) error {
	store := session.Store

	for i := range doc.Records {
		e := &doc.Records[i]

		if e.Name == "" {
			// Resolve a generated unique name and keep it on the
			// applied document.
			e.Name = "record-" + uuid.NewString()
		}

		if _, ok := store.TemplateByName(e.Template); !ok {
			r.skipUnresolved(model.KindTemplate, e.Template, "record "+e.Name)
			continue
		}
		ref := model.EntityRef{Kind: model.KindRecord, Name: e.Name}

		if _, ok := store.FindRecord(e.Name, e.Template, e.Parent); !ok {
			if _, err := store.CreateRecord(e.Name, e.Template, e.Parent); err != nil {
				if ferr := r.storeFailure(session, "create", ref, err); ferr != nil {
					return ferr
				}
				continue
			}
			// A record is not fully initialized until every
			// configured locale variant is enabled.
			if err := store.EnsureVariants(e.Name, e.Template, e.Parent); err != nil {
				if ferr := r.storeFailure(session, "ensureVariants", ref, err); ferr != nil {
					return ferr
				}
			}
		}

		if err := store.SetRecordValues(e.Name, e.Template, e.Parent, e.Title, e.Status, e.Data); err != nil {
			if ferr := r.storeFailure(session, "setValues", ref, err); ferr != nil {
				return ferr
			}
		}
	}

	return nil
}

// skipUnresolved logs an unresolvable reference; the referring entry's effect
// is skipped and the pass continues.
func (r *Reconciler) skipUnresolved(kind model.Kind, name, where string) {
	logging.Warn("Reconciler", "%v in %s; skipping", &model.UnresolvedReferenceError{Kind: kind, Name: name}, where)
}

// storeFailure applies the output-mode propagation policy to a failed store
// operation. A non-nil return aborts the remainder of the run.
func (r *Reconciler) storeFailure(session *model.Session, op string, ref model.EntityRef, err error) error {
	serr := &model.StoreError{Op: op, Ref: ref, Err: err}
	switch session.Mode {
	case logging.ModeQuiet:
		return nil
	case logging.ModeDebug:
		logging.Error("Reconciler", serr, "Store operation failed")
		return serr
	default:
		logging.Warn("Reconciler", "Store operation failed: %v", serr)
		return nil
	}
}
