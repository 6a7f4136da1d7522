package util

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/sKV/lib/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}
	assert.Equal(t, "short text", WrapString("  short   text "))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"main", "guild"}, SplitList(" main, ,guild,"))
	assert.Nil(t, SplitList(""))
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, int64(42), ParseValue("42"))
	assert.Equal(t, map[string]any{"a": true}, ParseValue(`{"a":true}`))
	assert.Equal(t, "hello", ParseValue(`"hello"`))
	assert.Equal(t, "hello world", ParseValue("hello world"))
	assert.Nil(t, ParseValue("null"))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, `{"a":[1,"b"]}`, FormatValue(map[string]any{"a": []any{1, "b"}}))
	assert.Equal(t, "42", FormatValue(int64(42)))
}

func TestRenderRecords(t *testing.T) {
	var buf bytes.Buffer
	RenderRecords(&buf, []store.Record{{Key: "score_u1", Value: int64(42)}})
	out := buf.String()
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "score_u1")
	assert.Contains(t, out, "42")

	buf.Reset()
	RenderRecords(&buf, nil)
	assert.Equal(t, "(empty)\n", buf.String())
}

func TestGetStoreConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cmd := &cobra.Command{Use: "test"}
	SetupStoreFlags(cmd)
	require.NoError(t, cmd.PersistentFlags().Parse([]string{
		"--location", "/tmp/x.db",
		"--tables", "main,guild",
		"--debug",
		"--sweep-interval", "5m",
	}))
	require.NoError(t, viper.BindPFlags(cmd.PersistentFlags()))

	conf := GetStoreConfig()
	assert.Equal(t, "/tmp/x.db", conf.Location)
	assert.Equal(t, []string{"main", "guild"}, conf.Tables)
	assert.True(t, conf.Debug)
	assert.True(t, conf.Logging)
	assert.Equal(t, "info", conf.LogLevel)
	assert.Equal(t, 5*time.Minute, conf.SweepInterval)
	assert.Equal(t, []string{"cooldown", "setTimeout", "ticketChannel"}, conf.GlobalKeys)
	assert.NoError(t, conf.Validate())
}

func TestEnvOverridesDefault(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("SKV_TABLES", "a,b")

	InitConfig()
	cmd := &cobra.Command{Use: "test"}
	SetupStoreFlags(cmd)
	require.NoError(t, viper.BindPFlags(cmd.PersistentFlags()))

	assert.Equal(t, []string{"a", "b"}, GetStoreConfig().Tables)
}
