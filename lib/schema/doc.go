// Package schema provides the variable schema consulted by stores on a miss.
//
// Stores depend only on the IVariableSchema interface (HasDeclaration / GetDeclaration).
// This package ships two ways to build one:
//
//   - MemorySchema: declarations registered in code with Declare, stored in a
//     concurrent map.
//   - LoadYAML / ParseYAML: declarations read from a YAML file mapping
//     table -> base key -> default value.
//
// Defaults pass through the value codec when they are declared, so a default has the
// same shape as a value read back from a table (e.g. integers are int64).
package schema
