// Package gen builds the validated in-memory schema model that the SDL,
// manifest and Go binding generators render.
//
// # Architecture
//
// The compilation pipeline follows this flow:
//
//	Declarations (Go packages, YAML files, reflection)
//	        ↓
//	   load.Snapshot
//	        ↓
//	   gen.NewSchema (type mapping, validation)
//	        ↓
//	   gen.Schema
//	        ↓
//	   sdl.Emit / manifest.Build / gobind.Generate
//
// Every stage is all-or-nothing: a failing stage returns an error and no
// partial output.
//
// # Key Types
//
//   - Schema: named types, operations, directive definitions and scalars
//   - TypeEntry: an object, input, interface, enum or union type
//   - OperationEntry: a root field with its optional resolver binding
//   - Mapper: maps native types to GraphQL type expressions
//   - Config: mapping and validation settings
//
// # Type Mapping
//
// Native types are resolved in order: the configured overrides, the built
// in scalar table, sequences as lists, string keyed dictionaries as the
// JSON scalar and finally declared named types. Optional values are
// nullable; everything else is non-null.
//
//	m := gen.NewMapper(gen.WithOverrides(gen.NewScalarTable(map[string]string{
//	    "example.com/money.Amount": "Float",
//	})))
//	typ, err := m.Resolve(load.ListOf(load.Value("string")))
//	// [String!]!
//
// # Configuration
//
// Configuration is done via the functional options pattern:
//
//	cfg, err := gen.NewConfig(
//	    gen.WithScalars(map[string]string{"example.com/money.Amount": "Float"}),
//	    gen.WithJSONScalar("AWSJSON"),
//	    gen.WithConformance(true),
//	)
//	schema, err := gen.NewSchema(cfg, snap)
//
// # Error Handling
//
// Failures are reported with structured error types that match the
// package sentinels through errors.Is:
//
//   - MappingError: a native type has no GraphQL mapping
//   - DuplicateDeclarationError: a type, operation or directive is declared twice
//   - MissingReferenceError: a referenced type is not declared
//   - InvalidDirectiveUsageError: a directive is unknown or misplaced
//   - InvalidTypeShapeError: a declaration is malformed
//   - GenerationError: an output could not be rendered or written
//   - ConfigError: an option has an invalid value
//
// Example error handling:
//
//	schema, err := gen.NewSchema(cfg, snap)
//	if err != nil {
//	    if errors.Is(err, gen.ErrMissingReference) {
//	        // report the undeclared type
//	    }
//	    return err
//	}
package gen
