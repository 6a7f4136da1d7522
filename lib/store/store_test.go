package store

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/sKV/lib/db"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Keys
// --------------------------------------------------------------------------

func TestBuildKey(t *testing.T) {
	tests := []struct {
		base, scope, want string
	}{
		{"score", "user1", "score_user1"},
		{"score", "", "score"},
		{"score", "undefined", "score"},
		{"prefix", "123456789", "prefix_123456789"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BuildKey(tt.base, tt.scope), "BuildKey(%q, %q)", tt.base, tt.scope)
	}
}

func TestValidateKeyParts(t *testing.T) {
	assert.NoError(t, ValidateKeyParts("score", "user1"))
	assert.NoError(t, ValidateKeyParts("score", ""))

	for _, parts := range [][2]string{
		{"", "user1"},
		{"my_score", "user1"},
		{"score", "user_1"},
	} {
		err := ValidateKeyParts(parts[0], parts[1])
		assert.True(t, IsCode(err, RetCInvalidKey), "ValidateKeyParts(%q, %q) = %v", parts[0], parts[1], err)
	}
}

// distinct valid pairs never share a storage key
func TestBuildKeyInjective(t *testing.T) {
	parts := []string{"a", "b", "ab", "undefined", ""}
	seen := map[string][2]string{}
	for _, base := range parts {
		for _, scope := range parts {
			if ValidateKeyParts(base, scope) != nil {
				continue
			}
			if scope == "undefined" {
				continue
			}
			key := BuildKey(base, scope)
			prev, dup := seen[key]
			assert.False(t, dup, "%v and %v both map to %q", prev, [2]string{base, scope}, key)
			seen[key] = [2]string{base, scope}
		}
	}
}

// --------------------------------------------------------------------------
// Queries
// --------------------------------------------------------------------------

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, "plain", EscapeGlob("plain"))
	assert.Equal(t, "a[*]b[?]c[[]d]", EscapeGlob("a*b?c[d]"))
	assert.Equal(t, "score[*]*", PrefixQuery("score*").Pattern)
}

func TestQueryPrepare(t *testing.T) {
	_, err := PredicateQuery(nil).Prepare()
	assert.True(t, IsCode(err, RetCInvalidQuery))

	_, err = Query{}.Prepare()
	assert.True(t, IsCode(err, RetCInvalidQuery))

	_, err = MatchQuery(map[string]any{"fn": func() {}}).Prepare()
	assert.True(t, IsCode(err, RetCInvalidQuery))

	q, err := MatchQuery(map[string]any{"level": 3, "tags": []string{"a"}}).Prepare()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"level": int64(3), "tags": []any{"a"}}, q.Match)

	q, err = PatternQuery("score_*").Prepare()
	require.NoError(t, err)
	assert.Equal(t, QueryPattern, q.Kind)

	q, err = PredicateQuery(func(row db.Row) bool { return true }).Prepare()
	require.NoError(t, err)
	assert.Equal(t, QueryPredicate, q.Kind)
}

func TestQueryString(t *testing.T) {
	assert.Equal(t, "predicate(fn)", PredicateQuery(func(db.Row) bool { return false }).String())
	assert.Equal(t, `pattern("a*")`, PatternQuery("a*").String())
	assert.Equal(t, "match{a=1, b=x}", MatchQuery(map[string]any{"b": "x", "a": 1}).String())
	assert.Equal(t, "invalid", Query{}.String())
}

func TestQuerySelectsAll(t *testing.T) {
	assert.True(t, MatchQuery(nil).SelectsAll())
	assert.True(t, MatchQuery(map[string]any{}).SelectsAll())
	assert.False(t, MatchQuery(map[string]any{"a": 1}).SelectsAll())
	assert.False(t, PatternQuery("*").SelectsAll())
	assert.False(t, PrefixQuery("").SelectsAll())
	assert.False(t, PredicateQuery(func(db.Row) bool { return true }).SelectsAll())
}

func TestMatchFields(t *testing.T) {
	value := map[string]any{"level": int64(3), "name": "bob", "nothing": nil}

	assert.True(t, MatchFields(value, nil))
	assert.True(t, MatchFields("not an object", map[string]any{}))
	assert.True(t, MatchFields(value, map[string]any{"level": 3.0}))
	assert.True(t, MatchFields(value, map[string]any{"level": int64(3), "name": "bob"}))
	assert.True(t, MatchFields(value, map[string]any{"nothing": nil}))

	assert.False(t, MatchFields(value, map[string]any{"level": int64(4)}))
	assert.False(t, MatchFields(value, map[string]any{"missing": nil}))
	assert.False(t, MatchFields("bob", map[string]any{"name": "bob"}))
	assert.False(t, MatchFields([]any{int64(3)}, map[string]any{"level": int64(3)}))
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

func TestErrors(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := WrapError(RetCStorageError, cause, "set main[score]")

	assert.True(t, IsCode(err, RetCStorageError))
	assert.False(t, IsCode(err, RetCDecodeError))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "StorageError")
	assert.Contains(t, err.Error(), "disk full")

	// an existing store error keeps its code
	again := WrapError(RetCInternalError, errors.Wrap(err, "outer"), "ignored")
	assert.True(t, IsCode(again, RetCStorageError))

	plain := NewError(RetCUnknownTable, "table nope")
	assert.Equal(t, "KVStoreError (code UnknownTable): table nope", plain.Error())
	assert.Nil(t, plain.Unwrap())

	assert.False(t, IsCode(nil, RetCSuccess))
	assert.Equal(t, "Unknown", RetCode(99).String())
}
