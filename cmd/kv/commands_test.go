package kv

import (
	"testing"

	"github.com/ValentinKolb/sKV/lib/store"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newQueryCmd returns a command carrying the query flags of find-many and delete-many
func newQueryCmd(t *testing.T, flags map[string]string) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	for _, name := range []string{"match", "pattern", "prefix", "contains"} {
		cmd.Flags().String(name, "", "")
	}
	for name, value := range flags {
		require.NoError(t, cmd.Flags().Set(name, value))
	}
	return cmd
}

func TestQueryFromFlags(t *testing.T) {
	q, err := queryFromFlags(newQueryCmd(t, map[string]string{"match": `{"role":"admin"}`}))
	require.NoError(t, err)
	assert.Equal(t, store.QueryMatch, q.Kind)

	q, err = queryFromFlags(newQueryCmd(t, map[string]string{"prefix": "user"}))
	require.NoError(t, err)
	assert.Equal(t, store.QueryPattern, q.Kind)

	_, err = queryFromFlags(newQueryCmd(t, nil))
	assert.Error(t, err)

	_, err = queryFromFlags(newQueryCmd(t, map[string]string{"match": `{}`, "prefix": "a"}))
	assert.Error(t, err)

	_, err = queryFromFlags(newQueryCmd(t, map[string]string{"match": `[1]`}))
	assert.Error(t, err)
}

func TestCheckDeleteAll(t *testing.T) {
	q, err := queryFromFlags(newQueryCmd(t, map[string]string{"match": `{}`}))
	require.NoError(t, err)

	assert.Error(t, checkDeleteAll(q, false))
	assert.NoError(t, checkDeleteAll(q, true))

	q, err = queryFromFlags(newQueryCmd(t, map[string]string{"match": `{"a":1}`}))
	require.NoError(t, err)
	assert.NoError(t, checkDeleteAll(q, false))
}
