package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/ikigai/internal/doccache"
	"github.com/nextlevelbuilder/ikigai/internal/template"
)

func TestResolver_CompiledDefaultWhenNothingElseSet(t *testing.T) {
	r := &Resolver{}
	got, warnings, err := r.Resolve(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSystemMessage, got)
	assert.Empty(t, warnings)
}

func TestResolver_ConfigFallbackBeatsDefault(t *testing.T) {
	r := &Resolver{OpenAISystemMessage: "be helpful, ${agent.name}"}
	got, _, err := r.Resolve(nil, &template.AgentContext{Name: "Rex"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "be helpful, Rex", got)
}

func TestResolver_PromptFileBeatsConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "system"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system", "prompt.md"), []byte("from file"), 0o644))

	r := &Resolver{DataDir: dir, OpenAISystemMessage: "from config"}
	got, _, err := r.Resolve(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "from file", got)
}

func TestResolver_EmptyPromptFileIsHardError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "system"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system", "prompt.md"), []byte{}, 0o644))

	r := &Resolver{DataDir: dir}
	_, _, err := r.Resolve(nil, nil, nil)
	assert.Error(t, err)
}

func TestResolver_OversizePromptFileIsHardError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "system"), 0o755))
	oversize := strings.Repeat("x", maxPromptFileBytes+1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system", "prompt.md"), []byte(oversize), 0o644))

	r := &Resolver{DataDir: dir}
	_, _, err := r.Resolve(nil, nil, nil)
	assert.Error(t, err)
}

func TestResolver_PinnedDocumentsBeatEverything(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("A"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("B"), 0o644))

	r := &Resolver{
		DataDir:             dir,
		DocCache:            doccache.New(doccache.DefaultResolver{DataDir: dir}),
		OpenAISystemMessage: "fallback",
	}
	got, warnings, err := r.Resolve(
		[]string{filepath.Join(dir, "a.md"), filepath.Join(dir, "b.md")},
		nil, nil,
	)
	require.NoError(t, err)
	assert.Equal(t, "AB", got)
	assert.Empty(t, warnings)
}

func TestResolver_PinnedDocumentsSurfaceUnresolvedWarnings(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("Hi ${agent.nope}"), 0o644))

	r := &Resolver{DocCache: doccache.New(doccache.DefaultResolver{DataDir: dir})}
	got, warnings, err := r.Resolve([]string{filepath.Join(dir, "a.md")}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hi ${agent.nope}", got)
	assert.Len(t, warnings, 1)
}
