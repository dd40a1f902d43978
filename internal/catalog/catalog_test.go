package catalog

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func greetingCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New([]Intent{
		{Tag: "greeting", Patterns: []string{"hello", "hi there"}, Responses: []string{"Hi!"}},
		{Tag: "goodbye", Patterns: []string{"bye"}, Responses: []string{"Bye!", "See you!", "Later!"}},
	})
	require.NoError(t, err)
	return c
}

func TestValidate_Empty(t *testing.T) {
	err := Validate(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	err := Validate([]Intent{
		{Tag: "", Patterns: []string{"x"}, Responses: []string{"y"}},
		{Tag: "a", Patterns: nil, Responses: []string{"y"}},
		{Tag: "b", Patterns: []string{"x"}, Responses: nil},
		{Tag: "b", Patterns: []string{"z"}, Responses: []string{"w"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCatalog)
	msg := err.Error()
	assert.Contains(t, msg, "missing tag")
	assert.Contains(t, msg, "(a): no patterns")
	assert.Contains(t, msg, "(b): no responses")
	assert.Contains(t, msg, `duplicate tag "b"`)
}

func TestNew_PreservesOrderAndCopies(t *testing.T) {
	patterns := []string{"hello"}
	c, err := New([]Intent{
		{Tag: "z", Patterns: patterns, Responses: []string{"1"}},
		{Tag: "a", Patterns: []string{"x"}, Responses: []string{"2"}},
	})
	require.NoError(t, err)

	patterns[0] = "mutated"
	assert.Equal(t, []string{"z", "a"}, c.Tags())
	in, ok := c.Lookup("z")
	require.True(t, ok)
	assert.Equal(t, []string{"hello"}, in.Patterns)
	assert.Equal(t, 2, c.Len())

	_, ok = c.Lookup("missing")
	assert.False(t, ok)
}

func TestSelector_Scenario(t *testing.T) {
	c := greetingCatalog(t)
	s := NewSelector(c, rand.New(rand.NewPCG(1, 2)))

	got, err := s.Select("greeting")
	require.NoError(t, err)
	assert.Equal(t, "Hi!", got)
}

func TestSelector_OnlyFromMatchedIntent(t *testing.T) {
	c := greetingCatalog(t)
	s := NewSelector(c, rand.New(rand.NewPCG(7, 7)))

	allowed := map[string]bool{"Bye!": true, "See you!": true, "Later!": true}
	seen := map[string]bool{}
	for range 200 {
		got, err := s.Select("goodbye")
		require.NoError(t, err)
		require.True(t, allowed[got], "unexpected response %q", got)
		seen[got] = true
	}
	assert.Len(t, seen, 3, "expected every response to be chosen at least once")
}

func TestSelector_SeededIsReproducible(t *testing.T) {
	c := greetingCatalog(t)
	a := NewSelector(c, rand.New(rand.NewPCG(42, 43)))
	b := NewSelector(c, rand.New(rand.NewPCG(42, 43)))
	for range 20 {
		x, _ := a.Select("goodbye")
		y, _ := b.Select("goodbye")
		require.Equal(t, x, y)
	}
}

func TestSelector_UnknownTag(t *testing.T) {
	s := NewSelector(greetingCatalog(t), nil)
	_, err := s.Select("weather")
	assert.True(t, errors.Is(err, ErrUnknownIntent))
}

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Greater(t, c.Len(), 0)
	_, ok := c.Lookup("greeting")
	assert.True(t, ok)
}

func TestParse_YAML(t *testing.T) {
	data := []byte(`
intents:
  - tag: greeting
    patterns: ["hello", "hi there"]
    responses: ["Hi!"]
`)
	c, err := Parse(data, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []string{"greeting"}, c.Tags())
}

func TestParse_MissingFields(t *testing.T) {
	_, err := Parse([]byte(`{"intents":[{"tag":"greeting"}]}`), FormatJSON)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestParse_EmptyCatalog(t *testing.T) {
	_, err := Parse([]byte(`{"intents":[]}`), FormatJSON)
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestParse_BadJSON(t *testing.T) {
	_, err := Parse([]byte(`{"intents":[`), FormatJSON)
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intents.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"intents":[{"tag":"t","patterns":["p"],"responses":["r"]}]}`), 0o644))

	c, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, c.Tags())
}

func TestLoad_DirectoryInNameOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("intents:\n  - tag: second\n    patterns: [x]\n    responses: [y]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"intents":[{"tag":"first","patterns":["p"],"responses":["r"]}]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	c, err := Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, c.Tags())
}

func TestLoad_EmptyDirectory(t *testing.T) {
	_, err := Load(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestLoad_DefaultWhenNoPath(t *testing.T) {
	c, err := Load(context.Background(), "")
	require.NoError(t, err)
	assert.Greater(t, c.Len(), 0)
}

func TestFormatForPath(t *testing.T) {
	f, err := FormatForPath("x.YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = FormatForPath("x.toml")
	assert.Error(t, err)
}
