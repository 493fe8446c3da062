// Package expr implements the closed expression language used by form
// metadata for conditions, transformations, calculated fields and custom
// validators.
//
// The grammar covers number, string, boolean and null literals, identifiers
// with dot and index access, array literals, unary `!` `-` `+`, arithmetic
// `* / % + -` (`+` concatenates when either side is a string), comparisons
// `< <= > >=`, loose and strict equality `== != === !==`, short-circuit
// `&& ||` returning the deciding operand, the ternary `?:`, and calls to a
// fixed set of pure functions:
//
//	len contains isEmpty lower upper trim number string bool round floor
//	ceil abs min max sum coalesce startsWith endsWith matches
//
// plus the aliases Math.round, Math.floor, Math.ceil, Math.abs, Math.min,
// Math.max, Number, String, Boolean and parseFloat.
//
// Expressions never reach outside the variable map they are evaluated with.
// A dotted identifier such as `cta.headline` first matches a variable with
// that exact name, then falls back to traversing nested maps.
package expr
