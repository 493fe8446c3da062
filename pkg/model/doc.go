// Package model defines the declarative form descriptors shared by the
// registry, tracker, resolver and engine packages. FormMetadata is the unit a
// metadata provider registers: ordered sections and fields, form-level
// dependencies, client-type overrides and the submit/fetch endpoints handed to
// an external HTTP collaborator. Parameter dependencies, change events and
// audit entries describe the live side of the system: which (form, field)
// pair drives which other pair and what happened when it did.
//
// Client-type overrides follow one precedence rule, implemented by
// ResolveForm and ResolveField: a non-nil scalar in the override replaces the
// base scalar, a non-nil collection replaces the whole base collection, and a
// nil value leaves the base untouched. Collections are never merged element
// by element.
package model
