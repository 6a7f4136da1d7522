// Package codec provides the value encoding used by sKV tables. Every value written to a
// table is stored as text and reconstructed on every read, so the codec defines what
// "the same value" means across a round trip.
//
// Key Components:
//
//   - IValueCodec: Core interface that all codec implementations must satisfy.
//
//   - jsonCodecImpl: JSON implementation. Numbers are decoded with json.Number and then
//     normalized: integral values that fit into an int64 become int64, integers outside
//     that range stay json.Number, all other numbers become float64. Objects decode to
//     map[string]any, arrays to []any.
//
//   - DecodeError: returned when a stored row does not hold exactly one valid value.
//     Stores surface it to the caller instead of defaulting the value to nil.
//
//   - Equal / EqualDecoded: structural equality as used by match queries.
//
//   - Compare: a total order over decoded values used to sort query results. Numbers of
//     different representations are compared exactly.
//
// Round Trip Contract:
//
//	For every JSON-representable v: Equal(v, Decode(Encode(v))) holds.
//
// Thread Safety:
//
//	All codec implementations are stateless and safe for concurrent use.
package codec
