package schema

// Declaration is the declared fallback of a table scoped base key
type Declaration struct {
	Default any `json:"default" yaml:"default"`
}

// IVariableSchema is the capability a store consults when a key is missing.
// Stores call it only after a confirmed miss of a non-global base key and never cache
// its answers, so changed declarations are visible on the next miss.
type IVariableSchema interface {
	// HasDeclaration reports whether a default is declared for the base key in the table.
	HasDeclaration(base, table string) (ok bool)
	// GetDeclaration returns the declaration of the base key in the table.
	// The boolean return value is false if no declaration exists.
	GetDeclaration(base, table string) (decl Declaration, ok bool)
}
