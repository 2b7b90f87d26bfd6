package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelsync/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRegisterFileLiteral(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "site.yaml", "fields: {}\n")

	r := New()
	r.Register(FileTarget(path), true, Options{})

	entries := r.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, EntryFile, entries[0].Kind)
	assert.Equal(t, path, entries[0].Key)
	assert.True(t, entries[0].Reconcile)
	assert.Equal(t, DefaultPriority, entries[0].Priority)
	assert.NotEmpty(t, entries[0].Origin)
}

func TestRegisterResolvesSuffix(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "site.json", "{}")

	r := New()
	r.Register(FileTarget(filepath.Join(dir, "site")), true, Options{})

	entries := r.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Join(dir, "site.json"), entries[0].Key)
}

func TestRegisterMissingFileIsNoOp(t *testing.T) {
	r := New()
	r.Register(FileTarget(filepath.Join(t.TempDir(), "absent")), true, Options{})
	assert.Zero(t, r.Len())
}

func TestRegisterUnrecognizedExtensionDowngrades(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "hello")

	r := New()
	r.Register(FileTarget(path), true, Options{})

	entries := r.Entries()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Reconcile, "unrecognized extension must be watch-only")
}

func TestRegisterDuplicateKeyFirstWins(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "site.yaml", "")

	r := New()
	r.Register(FileTarget(path), true, Options{Priority: 1.5})
	r.Register(FileTarget(path), false, Options{Priority: 9.9})

	entries := r.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 1.5, entries[0].Priority)
	assert.True(t, entries[0].Reconcile)
}

func TestPriorityOrderingWithStableTies(t *testing.T) {
	dir := t.TempDir()
	low := writeFile(t, dir, "low.yaml", "")
	mid := writeFile(t, dir, "mid.yaml", "")
	high := writeFile(t, dir, "high.yaml", "")
	tieA := writeFile(t, dir, "tie_a.yaml", "")
	tieB := writeFile(t, dir, "tie_b.yaml", "")

	r := New()
	r.Register(FileTarget(mid), true, Options{Priority: 1.2})
	r.Register(FileTarget(low), true, Options{Priority: 1.1})
	r.Register(FileTarget(high), true, Options{Priority: 1.3})
	r.Register(FileTarget(tieA), true, Options{Priority: 1.1})
	r.Register(FileTarget(tieB), true, Options{Priority: 1.1})

	var keys []string
	for _, e := range r.Entries() {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{high, mid, low, tieA, tieB}, keys)
}

func TestRegisterDirectoryExpansion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "")
	writeFile(t, dir, "b.json", "{}")
	writeFile(t, dir, "ignored.txt", "")
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	writeFile(t, sub, "c.yaml", "")

	r := New()
	r.Register(FileTarget(dir), true, Options{})
	assert.Equal(t, 2, r.Len(), "non-recursive by default")

	r2 := New()
	r2.Register(FileTarget(dir), true, Options{Recursive: true})
	assert.Equal(t, 3, r2.Len())
}

func TestRegisterCallbackDisambiguation(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "setup.yaml", "")

	cb := func(ctx context.Context, session *model.Session) error { return nil }

	r := New()
	r.Register(CallbackTarget{DeclaredIn: path, Func: cb}, true, Options{})
	r.Register(CallbackTarget{DeclaredIn: path, Func: cb}, true, Options{})

	entries := r.Entries()
	require.Len(t, entries, 2, "callbacks in one file must not collide")
	assert.NotEqual(t, entries[0].Key, entries[1].Key)
	assert.Equal(t, entries[0].Path, entries[1].Path, "both share the declaring file")
}

type testComponent struct {
	name string
	src  string
}

func (c *testComponent) Name() string       { return c.name }
func (c *testComponent) SourcePath() string { return c.src }

func TestRegisterComponent(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "component.go", "package component")

	r := New()
	r.Register(ComponentTarget{Component: &testComponent{name: "shop", src: src}}, true, Options{})

	entries := r.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, EntryComponent, entries[0].Kind)
	assert.NotNil(t, entries[0].Component)
}

func TestUnregister(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "site.yaml", "")
	other := writeFile(t, dir, "other.yaml", "")

	r := New()
	r.Register(FileTarget(path), true, Options{})
	r.Register(FileTarget(other), true, Options{})
	require.Equal(t, 2, r.Len())

	r.Unregister(FileTarget(path))
	entries := r.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, other, entries[0].Key)
}
