package refdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	d, err := Load(Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "MONEDERO", d.Tariffs.DefaultWallet)
	assert.NotEmpty(t, d.Tariffs.Tariffs)
	assert.Equal(t, "TR", d.Metro.Trunk)
	assert.Equal(t, []string{"L1", "L2"}, d.Metro.Merging)
	require.NotNil(t, d.Metro.Pivot)
	assert.Equal(t, "CVI", d.Metro.Pivot.From)
	assert.NotEmpty(t, d.BusLines.Lines)
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tariffs.yaml")
	content := `defaultWallet: MONEDERO
tariffs:
  - code: "1"
    name: Monedero
    category: MONEDERO
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	d, err := Load(Overrides{TariffsPath: path})
	require.NoError(t, err)
	assert.Len(t, d.Tariffs.Tariffs, 1)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tariffs.yaml")
	content := `tariffs:
  - code: "1"
    name: Bono
    category: BONO
    tripLimit: -3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := Load(Overrides{TariffsPath: path})
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(Overrides{MetroPath: "/does/not/exist.yaml"})
	assert.Error(t, err)
}
