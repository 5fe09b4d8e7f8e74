package sample

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/component-playground/internal/apperror"
	"github.com/sakif/component-playground/internal/engine/jsengine"
	"github.com/sakif/component-playground/internal/preview"
	"github.com/sakif/component-playground/internal/ui"
)

func TestBuiltin(t *testing.T) {
	c, err := Builtin()
	require.NoError(t, err)

	types := c.Types()
	assert.Contains(t, types, "button")
	assert.IsIncreasing(t, types)

	input, err := c.Get("text-input")
	require.NoError(t, err)
	assert.Equal(t, "Text Input", input.Title)
	assert.Equal(t, "text-input", input.ComponentType)

	button, err := c.Get("button")
	require.NoError(t, err)
	assert.Equal(t, "Button", button.Title)
}

// Every built-in sample must render without error: they are the first thing a
// user sees.
func TestBuiltin_SamplesRender(t *testing.T) {
	c, err := Builtin()
	require.NoError(t, err)
	reg, err := ui.NewRegistry(ui.TrackerFunc(func(string, map[string]any) {}))
	require.NoError(t, err)

	for _, s := range c.List() {
		t.Run(s.ComponentType, func(t *testing.T) {
			r := preview.NewCycle(jsengine.New(), reg).Render(s.ComponentType, s.Source)
			require.False(t, r.Failed(), "sample failed: %+v", r.Error)
			assert.NotNil(t, r.Value)
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{name: "valid", yaml: "chip:\n  source: \"const ComponentDemo = 1;\"\n"},
		{name: "missing source", yaml: "chip:\n  title: Chip\n", wantErr: apperror.ErrValidation},
		{name: "empty", yaml: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	_, err := Parse([]byte("[not a map"))
	assert.Error(t, err)
}

func TestGet_NotFound(t *testing.T) {
	c, err := Parse([]byte("chip:\n  source: x\n"))
	require.NoError(t, err)

	_, err = c.Get("tooltip")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, "", c.Source("tooltip"))
	assert.Equal(t, "x", c.Source("chip"))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_grid:\n  source: x\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	s, err := c.Get("data_grid")
	require.NoError(t, err)
	assert.Equal(t, "Data Grid", s.Title)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
