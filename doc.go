// Package appsyncgen compiles Go declarations into AWS AppSync schema
// artifacts: a GraphQL SDL document, a resolver manifest and optional Go
// bindings.
//
// The compiler lives in the compiler package and its subpackages. This
// package holds what is shared by the tools built around it: the artifact
// Cache with its snapshot keys and the project level errors.
//
//	key, err := appsyncgen.SnapshotKey(snap, cfg.Fingerprint())
//	if data, err := cache.Get(ctx, key); err == nil && data != nil {
//	    artifacts, err := appsyncgen.DecodeArtifacts(data)
//	    ...
//	}
package appsyncgen
