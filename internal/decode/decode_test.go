package decode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseDocumentPreservesDeclaredOrder(t *testing.T) {
	result, err := Parse([]byte(`
fields:
  zebra:
    type: text
  apple:
    type: text
  mango:
    type: number
templates:
  article:
    fields: [zebra, apple]
`))
	require.NoError(t, err)
	require.Equal(t, DecodedDocument, result.Kind)

	var names []string
	for _, f := range result.Doc.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"zebra", "apple", "mango"}, names)

	require.Len(t, result.Doc.Templates, 1)
	assert.Equal(t, []string{"zebra", "apple"}, result.Doc.Templates[0].Fields)
	assert.False(t, result.Doc.Templates[0].Exclusive)
}

func TestParseExclusiveSentinels(t *testing.T) {
	result, err := Parse([]byte(`
fields:
  color:
    type: select
    options!:
      1: Red
      2: Blue
templates:
  article:
    fields!: [color]
`))
	require.NoError(t, err)
	require.Equal(t, DecodedDocument, result.Kind)

	field := result.Doc.Fields[0]
	require.NotNil(t, field.Options)
	assert.True(t, field.Options.Replace)
	require.Len(t, field.Options.Options, 2)
	assert.Equal(t, 1, field.Options.Options[0].Key)
	assert.Equal(t, "Red", field.Options.Options[0].Label)

	assert.True(t, result.Doc.Templates[0].Exclusive)
}

func TestParseSubfieldOverrides(t *testing.T) {
	result, err := Parse([]byte(`
fields:
  gallery:
    type: repeater
    fields:
      - image
      - caption: {width: 50}
`))
	require.NoError(t, err)

	subs := result.Doc.Fields[0].Subfields
	require.Len(t, subs, 2)
	assert.Equal(t, "image", subs[0].Name)
	assert.Nil(t, subs[0].Overrides)
	assert.Equal(t, "caption", subs[1].Name)
	assert.Equal(t, 50, subs[1].Overrides["width"])
}

func TestParseCompositeTypesAlias(t *testing.T) {
	result, err := Parse([]byte(`
compositeTypes:
  article:
    fields: [title]
`))
	require.NoError(t, err)
	require.Len(t, result.Doc.Templates, 1)
	assert.Equal(t, "article", result.Doc.Templates[0].Name)
}

func TestParseRolesAndRecords(t *testing.T) {
	result, err := Parse([]byte(`
roles:
  editor:
    permissions: [page-edit]
    access:
      article: [view, edit]
records:
  about:
    template: article
    parent: home
    title: About Us
    data:
      body: hello
`))
	require.NoError(t, err)

	require.Len(t, result.Doc.Roles, 1)
	role := result.Doc.Roles[0]
	assert.Equal(t, []string{"page-edit"}, role.Permissions)
	require.Len(t, role.Access, 1)
	assert.Equal(t, "article", role.Access[0].Template)
	assert.Equal(t, []string{"view", "edit"}, role.Access[0].Grants)

	require.Len(t, result.Doc.Records, 1)
	rec := result.Doc.Records[0]
	assert.Equal(t, "about", rec.Name)
	assert.Equal(t, "article", rec.Template)
	assert.Equal(t, "home", rec.Parent)
	assert.Equal(t, "About Us", rec.Title)
	assert.Equal(t, "hello", rec.Data["body"])
}

func TestParseEmptyAndScalarInputs(t *testing.T) {
	result, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, DecodedNothing, result.Kind)

	result, err = Parse([]byte("~\n"))
	require.NoError(t, err)
	assert.Equal(t, DecodedNothing, result.Kind)

	result, err = Parse([]byte(`"fields: {a: {type: text}}"`))
	require.NoError(t, err)
	assert.Equal(t, DecodedText, result.Kind)
	assert.Contains(t, result.Text, "fields")
}

func TestParseNonIntegerOptionKeyFails(t *testing.T) {
	_, err := Parse([]byte(`
fields:
  color:
    type: select
    options:
      first: Red
`))
	assert.Error(t, err)
}

func TestFileDecodesJSON(t *testing.T) {
	path := writeFile(t, "model.json", `{"fields": {"title": {"type": "text"}}}`)

	result, err := File(path)
	require.NoError(t, err)
	require.Equal(t, DecodedDocument, result.Kind)
	require.Len(t, result.Doc.Fields, 1)
	assert.Equal(t, "title", result.Doc.Fields[0].Name)
	assert.Equal(t, "text", result.Doc.Fields[0].Type)
}

func TestFileRendersScript(t *testing.T) {
	path := writeFile(t, "model.tmpl", `
fields:
{{- range list "alpha" "beta" }}
  {{ . }}:
    type: {{ "TEXT" | lower }}
{{- end }}
`)

	result, err := File(path)
	require.NoError(t, err)
	require.Equal(t, DecodedDocument, result.Kind)
	require.Len(t, result.Doc.Fields, 2)
	assert.Equal(t, "alpha", result.Doc.Fields[0].Name)
	assert.Equal(t, "text", result.Doc.Fields[0].Type)
	assert.Equal(t, "beta", result.Doc.Fields[1].Name)
}

func TestFileEmptyScriptProducesNothing(t *testing.T) {
	path := writeFile(t, "noop.tmpl", `{{/* nothing to declare */}}`)

	result, err := File(path)
	require.NoError(t, err)
	assert.Equal(t, DecodedNothing, result.Kind)
}

func TestFileRejectsUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "model.toml", `fields = 1`)

	_, err := File(path)
	assert.Error(t, err)
}
