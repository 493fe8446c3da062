package expr

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdentifier
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenPercent
	tokenEq
	tokenNeq
	tokenStrictEq
	tokenStrictNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
	tokenComma
	tokenDot
	tokenQuestion
	tokenColon
)

type token struct {
	kind tokenKind
	raw  string
	pos  int
}

var operatorTokens = []struct {
	text string
	kind tokenKind
}{
	// Longest operators first so "===" is not read as "==" followed by "=".
	{"===", tokenStrictEq},
	{"!==", tokenStrictNeq},
	{"==", tokenEq},
	{"!=", tokenNeq},
	{"<=", tokenLte},
	{">=", tokenGte},
	{"&&", tokenAnd},
	{"||", tokenOr},
	{"<", tokenLt},
	{">", tokenGt},
	{"!", tokenNot},
	{"+", tokenPlus},
	{"-", tokenMinus},
	{"*", tokenStar},
	{"/", tokenSlash},
	{"%", tokenPercent},
	{"(", tokenLParen},
	{")", tokenRParen},
	{"[", tokenLBracket},
	{"]", tokenRBracket},
	{",", tokenComma},
	{"?", tokenQuestion},
	{":", tokenColon},
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
			continue
		case ch == '"' || ch == '\'':
			value, next, err := readString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenString, raw: value, pos: i})
			i = next
			continue
		case isDigit(ch) || (ch == '.' && i+1 < len(input) && isDigit(input[i+1])):
			start := i
			i = readNumber(input, i)
			tokens = append(tokens, token{kind: tokenNumber, raw: input[start:i], pos: start})
			continue
		case ch == '.':
			tokens = append(tokens, token{kind: tokenDot, raw: ".", pos: i})
			i++
			continue
		case isIdentStart(ch):
			start := i
			for i < len(input) && isIdentPart(input[i]) {
				i++
			}
			raw := input[start:i]
			switch raw {
			case "true", "false":
				tokens = append(tokens, token{kind: tokenBool, raw: raw, pos: start})
			case "null", "nil", "undefined":
				tokens = append(tokens, token{kind: tokenNull, raw: "null", pos: start})
			default:
				tokens = append(tokens, token{kind: tokenIdentifier, raw: raw, pos: start})
			}
			continue
		}

		matched := false
		for _, op := range operatorTokens {
			if strings.HasPrefix(input[i:], op.text) {
				tokens = append(tokens, token{kind: op.kind, raw: op.text, pos: i})
				i += len(op.text)
				matched = true
				break
			}
		}
		if !matched {
			if ch == '=' {
				return nil, fmt.Errorf("%w: unexpected '=' at %d; use '=='", ErrSyntax, i)
			}
			if ch == '&' || ch == '|' {
				return nil, fmt.Errorf("%w: unexpected %q at %d; use '%c%c'", ErrSyntax, ch, i, ch, ch)
			}
			return nil, fmt.Errorf("%w: unexpected character %q at %d", ErrSyntax, ch, i)
		}
	}
	tokens = append(tokens, token{kind: tokenEOF, pos: len(input)})
	return tokens, nil
}

func readString(input string, start int) (string, int, error) {
	quote := input[start]
	var out strings.Builder
	i := start + 1
	for i < len(input) {
		ch := input[i]
		if ch == '\\' && i+1 < len(input) {
			next := input[i+1]
			switch next {
			case 'n':
				out.WriteByte('\n')
			case 't':
				out.WriteByte('\t')
			case 'r':
				out.WriteByte('\r')
			case '\\', '\'', '"', '/':
				out.WriteByte(next)
			case 'u':
				if i+6 > len(input) {
					return "", 0, fmt.Errorf("%w: truncated unicode escape at %d", ErrSyntax, i)
				}
				code, err := strconv.ParseUint(input[i+2:i+6], 16, 32)
				if err != nil {
					return "", 0, fmt.Errorf("%w: invalid unicode escape %q at %d", ErrSyntax, input[i:i+6], i)
				}
				out.WriteRune(rune(code))
				i += 6
				continue
			default:
				return "", 0, fmt.Errorf("%w: unknown escape \\%c at %d", ErrSyntax, next, i)
			}
			i += 2
			continue
		}
		if ch == quote {
			return out.String(), i + 1, nil
		}
		out.WriteByte(ch)
		i++
	}
	return "", 0, fmt.Errorf("%w: unterminated string literal at %d", ErrSyntax, start)
}

func readNumber(input string, i int) int {
	for i < len(input) && isDigit(input[i]) {
		i++
	}
	if i < len(input) && input[i] == '.' {
		i++
		for i < len(input) && isDigit(input[i]) {
			i++
		}
	}
	if i < len(input) && (input[i] == 'e' || input[i] == 'E') {
		j := i + 1
		if j < len(input) && (input[j] == '+' || input[j] == '-') {
			j++
		}
		if j < len(input) && isDigit(input[j]) {
			i = j
			for i < len(input) && isDigit(input[i]) {
				i++
			}
		}
	}
	return i
}

func parseNumberLiteral(raw string) (float64, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid number literal %q", ErrSyntax, raw)
	}
	return value, nil
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool { return isIdentStart(ch) || isDigit(ch) }
