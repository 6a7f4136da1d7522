package schema

import (
	"github.com/ValentinKolb/sKV/lib/codec"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

// declKey identifies a declaration
type declKey struct {
	table string
	base  string
}

// MemorySchema is an IVariableSchema held in memory.
// Defaults are kept in their encoded form and decoded on every lookup, so callers
// always get a fresh copy they may modify.
//
// Thread-safety: All methods are safe for concurrent use.
type MemorySchema struct {
	decls *xsync.MapOf[declKey, string]
	codec codec.IValueCodec
}

// NewMemorySchema creates an empty schema
func NewMemorySchema() *MemorySchema {
	return &MemorySchema{
		decls: xsync.NewMapOf[declKey, string](),
		codec: codec.Default(),
	}
}

// Declare sets (or replaces) the default of a base key in a table.
// The default must be JSON-representable.
func (s *MemorySchema) Declare(table, base string, def any) error {
	text, err := s.codec.Encode(def)
	if err != nil {
		return errors.Wrapf(err, "schema: default of %s.%s", table, base)
	}
	s.decls.Store(declKey{table: table, base: base}, text)
	return nil
}

// Remove deletes the declaration of a base key in a table
func (s *MemorySchema) Remove(table, base string) {
	s.decls.Delete(declKey{table: table, base: base})
}

// Len returns the number of declarations
func (s *MemorySchema) Len() int {
	return s.decls.Size()
}

// --------------------------------------------------------------------------
// Interface Methods (docu see schema.IVariableSchema)
// --------------------------------------------------------------------------

func (s *MemorySchema) HasDeclaration(base, table string) bool {
	_, ok := s.decls.Load(declKey{table: table, base: base})
	return ok
}

func (s *MemorySchema) GetDeclaration(base, table string) (Declaration, bool) {
	text, ok := s.decls.Load(declKey{table: table, base: base})
	if !ok {
		return Declaration{}, false
	}
	// the text was produced by Encode, decoding cannot fail
	v, err := s.codec.Decode(text)
	if err != nil {
		return Declaration{}, false
	}
	return Declaration{Default: v}, true
}
