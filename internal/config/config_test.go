package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracecfg/internal/logging"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("format", FormatDOT, "")
	fs.String("arch", "", "")
	fs.Bool("dedup", false, "")
	fs.StringSlice("merge", nil, "")
	return fs
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "tracecfg.yaml")
	require.NoError(t, os.WriteFile(file, []byte("format: json\ndedup: true\ntheme: nasa\n"), 0o644))
	t.Setenv("TRACECFG_THEME", "night")
	t.Setenv("TRACECFG_MAX_LABEL_LINES", "12")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--arch", "arm64", "--merge", "0x10=0x20"}))

	c, used, err := Load(fs, file)
	require.NoError(t, err)

	assert.Equal(t, file, used)
	assert.Equal(t, FormatJSON, c.Format, "file beats an unset flag")
	assert.True(t, c.Dedup)
	assert.Equal(t, "night", c.Theme, "env beats file")
	assert.Equal(t, 12, c.MaxLabelLines)
	assert.Equal(t, "arm64", c.Arch, "flag")
	assert.Equal(t, []string{"0x10=0x20"}, c.Merge)
	assert.Equal(t, "charm", c.ReportStyle, "default")
}

func TestLoadWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	c, used, err := Load(nil, "")
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, Defaults(), c)
}

func TestLoadRejects(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	t.Run("unknown format", func(t *testing.T) {
		t.Setenv("TRACECFG_FORMAT", "svg")
		_, _, err := Load(nil, "")
		assert.ErrorContains(t, err, "unknown format")
	})
	t.Run("missing explicit file", func(t *testing.T) {
		_, _, err := Load(nil, filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
	t.Run("bad base", func(t *testing.T) {
		t.Setenv("TRACECFG_ELF_BASE", "zz")
		_, _, err := Load(nil, "")
		assert.ErrorContains(t, err, "elf-base")
	})
}

func TestParseMerges(t *testing.T) {
	m, err := ParseMerges([]string{"0x4=0x8", "16 = 32"})
	require.NoError(t, err)
	assert.Equal(t, map[uint64]uint64{4: 8, 16: 32}, m)

	for _, bad := range [][]string{{"4"}, {"x=1"}, {"1=y"}, {"1=2", "1=3"}} {
		_, err := ParseMerges(bad)
		assert.Error(t, err, "%v", bad)
	}
}

func TestBase(t *testing.T) {
	b, err := Config{ELFBase: "0x7f0000"}.Base()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x7f0000), b)
}

func TestLoggingOptions(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TRACECFG_LOG_LEVEL", "warn")
	t.Setenv("TRACECFG_LOG_PREFIX", "tc ")

	c, _, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, logging.Options{Level: "warn", Prefix: "tc "}, c.Logging())

	c.Debug = true
	c.LogFile = "run.log"
	assert.Equal(t, logging.Options{Level: "debug", Prefix: "tc ", File: "run.log", Caller: true}, c.Logging())

	t.Setenv("TRACECFG_LOG_LEVEL", "chatty")
	_, _, err = Load(nil, "")
	assert.ErrorContains(t, err, "unknown log level")
}
