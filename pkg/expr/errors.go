package expr

import "errors"

var (
	// ErrSyntax reports an expression that does not parse.
	ErrSyntax = errors.New("expr: syntax error")
	// ErrUnknownFunction reports a call to a function outside the whitelist.
	ErrUnknownFunction = errors.New("expr: unknown function")
	// ErrDivisionByZero reports `/` or `%` with a zero divisor.
	ErrDivisionByZero = errors.New("expr: division by zero")
	// ErrType reports an operand that cannot be coerced for an operator.
	ErrType = errors.New("expr: type mismatch")
)
