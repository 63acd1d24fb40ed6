package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nthash/cryptonight"
	"github.com/nthash/cryptonight/scratchpad"
)

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
pool:
  pool_id: main
  url: stratum+tcp://pool.example:3333
  nicehash: true
threads:
  - mode: single
    variant: 1
    cpu_id: 0
  - mode: double
    variant: 2
    cpu_id: 1
    soft_aes: true
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "main", cfg.Pool.PoolID)
	require.True(t, cfg.Pool.Nicehash)
	require.Len(t, cfg.Threads, 2)
	require.Equal(t, Single, cfg.Threads[0].Mode)
	require.Equal(t, cryptonight.Variant1, cfg.Threads[0].Variant)
	require.Equal(t, Double, cfg.Threads[1].Mode)
	require.True(t, cfg.Threads[1].SoftAES)
}

func TestApplyFlagsDefaults(t *testing.T) {
	fs := FlagSet()
	require.NoError(t, fs.Parse([]string{"--threads=4", "--variant=2"}))

	cfg, err := ApplyFlags(fs)
	require.NoError(t, err)
	require.Len(t, cfg.Threads, 4)
	for _, th := range cfg.Threads {
		require.Equal(t, cryptonight.Variant2, th.Variant)
		require.Equal(t, scratchpad.PrintWarning, th.HugePages)
	}
}

func TestApplyFlagsRejectsBadVariant(t *testing.T) {
	fs := FlagSet()
	require.NoError(t, fs.Parse([]string{"--variant=9"}))
	_, err := ApplyFlags(fs)
	require.Error(t, err)
}
