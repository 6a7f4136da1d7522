package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ValentinKolb/sKV/lib/codec"
	"github.com/ValentinKolb/sKV/lib/db"
)

// QueryKind is the tag of a Query
type QueryKind int

const (
	QueryInvalid   QueryKind = iota // zero Query
	QueryPredicate                  // Predicate over raw rows
	QueryMatch                      // Field equality over decoded values
	QueryPattern                    // Glob over raw keys
)

// Query selects rows of a table for FindMany and DeleteMany.
// Build it with PredicateQuery, MatchQuery, PatternQuery or PrefixQuery.
type Query struct {
	Kind      QueryKind
	Predicate func(row db.Row) bool
	Match     map[string]any
	Pattern   string
}

// PredicateQuery selects the rows for which fn returns true. fn sees the undecoded row.
func PredicateQuery(fn func(row db.Row) bool) Query {
	return Query{Kind: QueryPredicate, Predicate: fn}
}

// MatchQuery selects the rows whose decoded value is an object with every given
// top-level field structurally equal to the given value. An empty match selects all rows.
func MatchQuery(fields map[string]any) Query {
	return Query{Kind: QueryMatch, Match: fields}
}

// PatternQuery selects the rows whose key matches a case-sensitive glob
// (* any sequence, ? one character, [...] character class).
func PatternQuery(glob string) Query {
	return Query{Kind: QueryPattern, Pattern: glob}
}

// PrefixQuery selects the rows whose key starts with prefix
func PrefixQuery(prefix string) Query {
	return PatternQuery(EscapeGlob(prefix) + "*")
}

// EscapeGlob quotes all glob meta characters so the result matches s literally
func EscapeGlob(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[':
			sb.WriteRune('[')
			sb.WriteRune(r)
			sb.WriteRune(']')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Prepare checks that the query carries the data its kind requires and returns it
// with the match values normalized the way stored values are decoded.
func (q Query) Prepare() (Query, error) {
	switch q.Kind {
	case QueryPredicate:
		if q.Predicate == nil {
			return q, NewError(RetCInvalidQuery, "predicate query without predicate")
		}
	case QueryMatch:
		match := make(map[string]any, len(q.Match))
		for field, want := range q.Match {
			normalized, err := codec.Normalize(want)
			if err != nil {
				return q, WrapError(RetCInvalidQuery, err, fmt.Sprintf("match value of field %q", field))
			}
			match[field] = normalized
		}
		q.Match = match
	case QueryPattern:
	default:
		return q, NewError(RetCInvalidQuery, fmt.Sprintf("unknown query kind %d", q.Kind))
	}
	return q, nil
}

// String returns a short description used in logs
func (q Query) String() string {
	switch q.Kind {
	case QueryPredicate:
		return "predicate(fn)"
	case QueryMatch:
		fields := make([]string, 0, len(q.Match))
		for field := range q.Match {
			fields = append(fields, fmt.Sprintf("%s=%v", field, q.Match[field]))
		}
		sort.Strings(fields)
		return "match{" + strings.Join(fields, ", ") + "}"
	case QueryPattern:
		return fmt.Sprintf("pattern(%q)", q.Pattern)
	default:
		return "invalid"
	}
}

// SelectsAll reports whether the query selects every row regardless of content.
// An empty match is the only such query; "*" patterns and predicates are not inspected.
func (q Query) SelectsAll() bool {
	return q.Kind == QueryMatch && len(q.Match) == 0
}

// MatchFields reports whether a decoded value is an object whose fields equal all expected fields.
// The expected values must be normalized (see Prepare).
// A missing field never matches, not even an expected nil.
func MatchFields(value any, expected map[string]any) bool {
	if len(expected) == 0 {
		return true
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return false
	}
	for field, want := range expected {
		got, ok := obj[field]
		if !ok || !codec.EqualDecoded(got, want) {
			return false
		}
	}
	return true
}
