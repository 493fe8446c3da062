// Package visibility evaluates the simple field/operator/value conditionals
// attached to form sections and fields. Operators are equals, notEquals,
// contains, greaterThan, lessThan, isEmpty and isNotEmpty; the synthetic
// field "clientType" compares against the active client variant.
//
// Richer rules belong in field dependencies, which use package expr.
package visibility
