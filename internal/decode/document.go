package decode

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"modelsync/internal/model"
	"modelsync/internal/reconciler"
)

// Sentinel suffix marking an exclusive list: fields absent from the declared
// set are removed on apply. Used on template field lists ("fields!") and
// option sets ("options!").
const exclusiveSuffix = "!"

// parseDocument builds an ordered Document from a YAML mapping node.
// yaml.Node is used instead of map unmarshaling because the document's
// declared order is semantically meaningful.
func parseDocument(node *yaml.Node) (*reconciler.Document, error) {
	doc := &reconciler.Document{}

	err := eachPair(node, func(key string, value *yaml.Node) error {
		switch key {
		case "fields":
			return parseFields(value, doc)
		case "templates", "compositeTypes":
			return parseTemplates(value, doc)
		case "roles":
			return parseRoles(value, doc)
		case "records":
			return parseRecords(value, doc)
		default:
			// Unknown top-level keys are tolerated for forward
			// compatibility.
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func parseFields(node *yaml.Node, doc *reconciler.Document) error {
	return eachPair(node, func(name string, value *yaml.Node) error {
		entry := reconciler.FieldEntry{Name: name, Props: make(map[string]any)}

		err := eachPair(value, func(prop string, pv *yaml.Node) error {
			switch prop {
			case "type":
				return pv.Decode(&entry.Type)

			case "fields":
				subs, err := parseSubfields(pv)
				if err != nil {
					return fmt.Errorf("field %s: %w", name, err)
				}
				entry.Subfields = subs
				return nil

			case "options", "options" + exclusiveSuffix:
				opts, err := parseOptions(pv)
				if err != nil {
					return fmt.Errorf("field %s: %w", name, err)
				}
				entry.Options = &reconciler.OptionSet{
					Replace: prop != "options",
					Options: opts,
				}
				return nil

			default:
				var v any
				if err := pv.Decode(&v); err != nil {
					return fmt.Errorf("field %s property %s: %w", name, prop, err)
				}
				entry.Props[prop] = v
				return nil
			}
		})
		if err != nil {
			return err
		}

		doc.Fields = append(doc.Fields, entry)
		return nil
	})
}

// parseSubfields accepts a sequence of field names, where any item may
// instead be a single-pair mapping carrying override properties:
//
//	fields:
//	  - image
//	  - caption: {width: 50}
func parseSubfields(node *yaml.Node) ([]reconciler.SubfieldRef, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("subfield list must be a sequence")
	}

	var subs []reconciler.SubfieldRef
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			var name string
			if err := item.Decode(&name); err != nil {
				return nil, err
			}
			subs = append(subs, reconciler.SubfieldRef{Name: name})

		case yaml.MappingNode:
			if len(item.Content) != 2 {
				return nil, fmt.Errorf("subfield override must be a single-pair mapping")
			}
			var name string
			if err := item.Content[0].Decode(&name); err != nil {
				return nil, err
			}
			var overrides map[string]any
			if err := item.Content[1].Decode(&overrides); err != nil {
				return nil, fmt.Errorf("subfield %s overrides: %w", name, err)
			}
			subs = append(subs, reconciler.SubfieldRef{Name: name, Overrides: overrides})

		default:
			return nil, fmt.Errorf("invalid subfield entry")
		}
	}
	return subs, nil
}

// parseOptions accepts a mapping of integer keys to labels, in declared order.
func parseOptions(node *yaml.Node) ([]model.Option, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("option set must be a mapping")
	}

	var opts []model.Option
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, err := strconv.Atoi(node.Content[i].Value)
		if err != nil {
			return nil, fmt.Errorf("option key %q is not an integer", node.Content[i].Value)
		}
		var label string
		if err := node.Content[i+1].Decode(&label); err != nil {
			return nil, err
		}
		opts = append(opts, model.Option{Key: key, Label: label})
	}
	return opts, nil
}

func parseTemplates(node *yaml.Node, doc *reconciler.Document) error {
	return eachPair(node, func(name string, value *yaml.Node) error {
		entry := reconciler.TemplateEntry{Name: name, Props: make(map[string]any)}

		err := eachPair(value, func(prop string, pv *yaml.Node) error {
			switch prop {
			case "fields", "fields" + exclusiveSuffix:
				if err := pv.Decode(&entry.Fields); err != nil {
					return fmt.Errorf("template %s field list: %w", name, err)
				}
				entry.Exclusive = prop != "fields"
				return nil

			default:
				var v any
				if err := pv.Decode(&v); err != nil {
					return fmt.Errorf("template %s property %s: %w", name, prop, err)
				}
				entry.Props[prop] = v
				return nil
			}
		})
		if err != nil {
			return err
		}

		doc.Templates = append(doc.Templates, entry)
		return nil
	})
}

func parseRoles(node *yaml.Node, doc *reconciler.Document) error {
	return eachPair(node, func(name string, value *yaml.Node) error {
		entry := reconciler.RoleEntry{Name: name}

		err := eachPair(value, func(prop string, pv *yaml.Node) error {
			switch prop {
			case "permissions":
				return pv.Decode(&entry.Permissions)

			case "access":
				return eachPair(pv, func(template string, gv *yaml.Node) error {
					var grants []string
					if err := gv.Decode(&grants); err != nil {
						return fmt.Errorf("role %s access for %s: %w", name, template, err)
					}
					entry.Access = append(entry.Access, reconciler.AccessGrant{
						Template: template,
						Grants:   grants,
					})
					return nil
				})

			default:
				return nil
			}
		})
		if err != nil {
			return err
		}

		doc.Roles = append(doc.Roles, entry)
		return nil
	})
}

func parseRecords(node *yaml.Node, doc *reconciler.Document) error {
	return eachPair(node, func(name string, value *yaml.Node) error {
		entry := reconciler.RecordEntry{Name: name}

		err := eachPair(value, func(prop string, pv *yaml.Node) error {
			switch prop {
			case "template":
				return pv.Decode(&entry.Template)
			case "parent":
				return pv.Decode(&entry.Parent)
			case "title":
				return pv.Decode(&entry.Title)
			case "status":
				return pv.Decode(&entry.Status)
			case "data":
				return pv.Decode(&entry.Data)
			default:
				return nil
			}
		})
		if err != nil {
			return err
		}

		doc.Records = append(doc.Records, entry)
		return nil
	})
}

// eachPair iterates a mapping node's key/value pairs in declared order.
func eachPair(node *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected a mapping, got %s", nodeKindName(node.Kind))
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key string
		if err := node.Content[i].Decode(&key); err != nil {
			return err
		}
		if err := fn(key, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func nodeKindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
