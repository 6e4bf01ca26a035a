package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ruccli/internal/errors"
)

func TestRules_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rules   Rules
		wantErr bool
	}{
		{"defaults", DefaultRules(), false},
		{"code prefixes only", Rules{CodePrefixes: []string{"G4761"}}, false},
		{"patterns only", Rules{Include: []string{"libro"}}, false},
		{"nothing selects", Rules{Exclude: []string{"fiscal"}}, true},
		{"bad pattern", Rules{Include: []string{"venta(.*libro"}}, true},
		{"blank entry", Rules{Include: []string{"libro", ""}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rules.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadRules(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		rules, err := LoadRules("")
		require.NoError(t, err)
		assert.Equal(t, DefaultRules(), rules)
	})

	t.Run("file overrides listed keys only", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		content := "include:\n  - papeleria\n  - 'utiles.*escolares'\ncode_prefixes:\n  - G4762\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		rules, err := LoadRules(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"papeleria", "utiles.*escolares"}, rules.Include)
		assert.Equal(t, []string{"G4762"}, rules.CodePrefixes)
		assert.Equal(t, DefaultRules().Exclude, rules.Exclude)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("include: [unclosed"), 0644))

		_, err := LoadRules(path)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	})

	t.Run("invalid pattern", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("include:\n  - 'libro('\n"), 0644))

		_, err := LoadRules(path)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	})
}
