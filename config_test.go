package cube2shp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(testTempdir(t), "cube2shp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRuntppPath, cfg.RuntppPath)
	assert.Equal(t, DefaultProjection, cfg.Projection)
	assert.Equal(t, DefaultOperatorGroups, cfg.OperatorGroups)

	cfg.OperatorGroups[0].Suffix = "_changed"
	assert.Equal(t, "_SF_Muni", DefaultOperatorGroups[0].Suffix)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
runtpp_path: /opt/cube
operator_groups:
  - suffix: _Muni
    operators: [San Francisco MUNI]
  - suffix: _BART
    operators: [BART]
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/cube", cfg.RuntppPath)
	assert.Equal(t, DefaultProjection, cfg.Projection)
	assert.Equal(t, []OperatorGroup{
		{Suffix: "_Muni", Operators: []string{"San Francisco MUNI"}},
		{Suffix: "_BART", Operators: []string{"BART"}},
	}, cfg.OperatorGroups)
}

func TestLoadConfigInvalid(t *testing.T) {
	cases := map[string]string{
		"empty runtpp path":  "runtpp_path: \"\"\n",
		"missing job script": "job_script: /does/not/exist.job\n",
		"group without name": "operator_groups:\n  - operators: [BART]\n",
		"duplicate suffix":   "operator_groups:\n  - suffix: _BART\n    operators: [BART]\n  - suffix: _BART\n    operators: [BART Express]\n",
		"not yaml":           "runtpp_path: [\n",
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, contents))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(testTempdir(t), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigKeepsDefaultGroups(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "projection: \"\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Projection)
	assert.Equal(t, DefaultOperatorGroups, cfg.OperatorGroups)
}
