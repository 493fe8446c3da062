package expr

import (
	"fmt"
	"strings"
)

type parser struct {
	tokens []token
	pos    int
}

func parse(source string) (node, error) {
	tokens, err := tokenize(source)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	if p.peek().kind == tokenEOF {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	root, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, fmt.Errorf("%w: unexpected token %q at %d", ErrSyntax, tok.raw, tok.pos)
	}
	return root, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) match(kinds ...tokenKind) (token, bool) {
	tok := p.peek()
	for _, kind := range kinds {
		if tok.kind == kind {
			p.pos++
			return tok, true
		}
	}
	return token{}, false
}

func (p *parser) expect(kind tokenKind, what string) error {
	if _, ok := p.match(kind); ok {
		return nil
	}
	tok := p.peek()
	if tok.kind == tokenEOF {
		return fmt.Errorf("%w: missing %s", ErrSyntax, what)
	}
	return fmt.Errorf("%w: expected %s, got %q at %d", ErrSyntax, what, tok.raw, tok.pos)
}

func (p *parser) parseTernary() (node, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, ok := p.match(tokenQuestion); !ok {
		return cond, nil
	}
	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokenColon, "':' in conditional expression"); err != nil {
		return nil, err
	}
	otherwise, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return ternaryNode{cond: cond, then: then, otherwise: otherwise}, nil
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.match(tokenOr); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = logicalNode{or: true, left: left, right: right}
	}
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.match(tokenAnd); !ok {
			return left, nil
		}
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = logicalNode{left: left, right: right}
	}
}

func (p *parser) parseEquality() (node, error) {
	return p.parseBinary(p.parseRelational, tokenEq, tokenNeq, tokenStrictEq, tokenStrictNeq)
}

func (p *parser) parseRelational() (node, error) {
	return p.parseBinary(p.parseAdditive, tokenLt, tokenLte, tokenGt, tokenGte)
}

func (p *parser) parseAdditive() (node, error) {
	return p.parseBinary(p.parseMultiplicative, tokenPlus, tokenMinus)
}

func (p *parser) parseMultiplicative() (node, error) {
	return p.parseBinary(p.parseUnary, tokenStar, tokenSlash, tokenPercent)
}

func (p *parser) parseBinary(operand func() (node, error), ops ...tokenKind) (node, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.match(ops...)
		if !ok {
			return left, nil
		}
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: tok.kind, raw: tok.raw, left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	if tok, ok := p.match(tokenNot, tokenMinus, tokenPlus); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: tok.kind, operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (node, error) {
	current, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.peek().kind == tokenDot:
			p.next()
			tok := p.next()
			if tok.kind != tokenIdentifier && tok.kind != tokenBool && tok.kind != tokenNull {
				return nil, fmt.Errorf("%w: expected property name after '.', got %q", ErrSyntax, tok.raw)
			}
			member := memberNode{object: current, property: tok.raw}
			if path, ok := dottedPath(current); ok {
				member.path = path + "." + tok.raw
			}
			if p.peek().kind == tokenLParen {
				if member.path == "" {
					return nil, fmt.Errorf("%w: method calls are not supported", ErrSyntax)
				}
				return p.parseCall(member.path)
			}
			current = member
		case p.peek().kind == tokenLBracket:
			p.next()
			index, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokenRBracket, "']'"); err != nil {
				return nil, err
			}
			current = indexNode{object: current, index: index}
		default:
			return current, nil
		}
	}
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.next()
	switch tok.kind {
	case tokenNumber:
		value, err := parseNumberLiteral(tok.raw)
		if err != nil {
			return nil, err
		}
		return literalNode{value: value}, nil
	case tokenString:
		return literalNode{value: tok.raw}, nil
	case tokenBool:
		return literalNode{value: tok.raw == "true"}, nil
	case tokenNull:
		return literalNode{value: nil}, nil
	case tokenIdentifier:
		if p.peek().kind == tokenLParen {
			return p.parseCall(tok.raw)
		}
		return identNode{name: tok.raw}, nil
	case tokenLParen:
		inner, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokenRParen, "closing ')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokenLBracket:
		items, err := p.parseArguments(tokenRBracket, "']'")
		if err != nil {
			return nil, err
		}
		return arrayNode{items: items}, nil
	case tokenEOF:
		return nil, fmt.Errorf("%w: unexpected end of expression", ErrSyntax)
	default:
		return nil, fmt.Errorf("%w: unexpected token %q at %d", ErrSyntax, tok.raw, tok.pos)
	}
}

func (p *parser) parseCall(name string) (node, error) {
	fn, ok := lookupFunction(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	p.next() // (
	args, err := p.parseArguments(tokenRParen, "closing ')'")
	if err != nil {
		return nil, err
	}
	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		return nil, fmt.Errorf("%w: %s called with %d arguments", ErrSyntax, name, len(args))
	}
	return callNode{name: strings.ToLower(name), fn: fn, args: args}, nil
}

func (p *parser) parseArguments(closing tokenKind, what string) ([]node, error) {
	var args []node
	if _, ok := p.match(closing); ok {
		return args, nil
	}
	for {
		arg, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if _, ok := p.match(tokenComma); ok {
			continue
		}
		if err := p.expect(closing, what); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func dottedPath(n node) (string, bool) {
	switch typed := n.(type) {
	case identNode:
		return typed.name, true
	case memberNode:
		if typed.path != "" {
			return typed.path, true
		}
	}
	return "", false
}
