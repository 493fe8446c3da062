// Package validation holds the rule semantics shared by single-form and
// cross-form validation: required and empty checks, type-shape checks per
// field family, declarative rules (min, max, minLength, maxLength, pattern,
// email, url) and custom boolean expressions. Results partition issues into
// errors, warnings and infos; only errors make a result invalid.
//
// Store keeps rules registered at runtime, separate from the rules embedded
// in field metadata.
package validation
