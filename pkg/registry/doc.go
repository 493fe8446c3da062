// Package registry stores registered forms: the lightweight FormEntry used
// for catalogues and the full FormMetadata used by the engine. Registration
// is permissive by default. Overwrites and dangling dependency references
// are logged, and last write wins. WithStrict turns dangling references into
// errors.
package registry
