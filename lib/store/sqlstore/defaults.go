package sqlstore

import (
	"fmt"

	"github.com/ValentinKolb/sKV/lib/codec"
	"github.com/ValentinKolb/sKV/lib/store"
)

// resolveDefault returns the declared default of a base key after a miss.
// Global keys and stores without schema never have a default. The schema is asked on
// every miss, declarations changed at runtime are visible immediately.
func (s *storeImpl) resolveDefault(table, base string) (value any, found bool, err error) {
	if s.schema == nil {
		return nil, false, nil
	}
	if _, global := s.globals[base]; global {
		return nil, false, nil
	}
	if !s.schema.HasDeclaration(base, table) {
		return nil, false, nil
	}
	decl, ok := s.schema.GetDeclaration(base, table)
	if !ok {
		return nil, false, nil
	}

	// same shape as a stored value
	value, err = codec.Normalize(decl.Default)
	if err != nil {
		return nil, false, store.WrapError(store.RetCInvalidValue, err, fmt.Sprintf("default of %s.%s", table, base))
	}
	return value, true, nil
}
