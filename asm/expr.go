package asm

import "github.com/twin64/t64sim/bitfield"

// exprValue is one expression result: the 64-bit value plus whether it
// came from a bare register token. Combining a register with anything via
// an operator is a type-match error; a register value may only ever reach
// the top of an expression unconsumed, which operand parsers that expect
// a pure numeral reject.
type exprValue struct {
	v     int64
	isReg bool
}

// parseExpr implements the three-level expression grammar over p's token
// stream:
//
//	expr   := ['+'|'-'] term { ('+'|'-'|'|'|'^') term }
//	term   := factor { ('*'|'/'|'%'|'&') factor }
//	factor := number | gReg | cReg | '~' factor | '(' expr ')'
func (p *Parser) parseExpr() (exprValue, *Error) {
	neg := false
	switch p.tok.Kind {
	case TokPlus:
		p.advance()
	case TokMinus:
		neg = true
		p.advance()
	}

	left, err := p.parseTerm()
	if err != nil {
		return exprValue{}, err
	}
	if neg {
		if left.isReg {
			return exprValue{}, newErr(ErrTypeMismatch, p.tok.Offset, "cannot negate a register")
		}
		left.v = -left.v
	}

	for {
		var combine func(a, b int64) (int64, *Error)
		switch p.tok.Kind {
		case TokPlus:
			combine = func(a, b int64) (int64, *Error) {
				if bitfield.AddOverflows(a, b) {
					return 0, newErr(ErrOverflow, p.tok.Offset, "")
				}
				return a + b, nil
			}
		case TokMinus:
			combine = func(a, b int64) (int64, *Error) {
				if bitfield.SubOverflows(a, b) {
					return 0, newErr(ErrOverflow, p.tok.Offset, "")
				}
				return a - b, nil
			}
		case TokPipe:
			combine = func(a, b int64) (int64, *Error) { return a | b, nil }
		case TokCaret:
			combine = func(a, b int64) (int64, *Error) { return a ^ b, nil }
		default:
			return left, nil
		}
		opOffset := p.tok.Offset
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return exprValue{}, err
		}
		if left.isReg || right.isReg {
			return exprValue{}, newErr(ErrTypeMismatch, opOffset, "register operand in arithmetic expression")
		}
		v, cerr := combine(left.v, right.v)
		if cerr != nil {
			return exprValue{}, cerr
		}
		left = exprValue{v: v}
	}
}

func (p *Parser) parseTerm() (exprValue, *Error) {
	left, err := p.parseFactor()
	if err != nil {
		return exprValue{}, err
	}
	for {
		var combine func(a, b int64) (int64, *Error)
		switch p.tok.Kind {
		case TokStar:
			combine = func(a, b int64) (int64, *Error) {
				if bitfield.MulOverflows(a, b) {
					return 0, newErr(ErrOverflow, p.tok.Offset, "")
				}
				return a * b, nil
			}
		case TokSlash:
			combine = func(a, b int64) (int64, *Error) {
				if b == 0 {
					return 0, newErr(ErrDivByZero, p.tok.Offset, "")
				}
				if bitfield.DivOverflows(a, b) {
					return 0, newErr(ErrOverflow, p.tok.Offset, "")
				}
				return a / b, nil
			}
		case TokPercent:
			combine = func(a, b int64) (int64, *Error) {
				if b == 0 {
					return 0, newErr(ErrDivByZero, p.tok.Offset, "")
				}
				return a % b, nil
			}
		case TokAmp:
			combine = func(a, b int64) (int64, *Error) { return a & b, nil }
		default:
			return left, nil
		}
		opOffset := p.tok.Offset
		p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return exprValue{}, err
		}
		if left.isReg || right.isReg {
			return exprValue{}, newErr(ErrTypeMismatch, opOffset, "register operand in arithmetic expression")
		}
		v, cerr := combine(left.v, right.v)
		if cerr != nil {
			return exprValue{}, cerr
		}
		left = exprValue{v: v}
	}
}

func (p *Parser) parseFactor() (exprValue, *Error) {
	switch p.tok.Kind {
	case TokNumber:
		v := p.tok.Value
		p.advance()
		return exprValue{v: v}, nil
	case TokGReg:
		v := p.tok.Value
		p.advance()
		return exprValue{v: v, isReg: true}, nil
	case TokCReg:
		v := p.tok.Value
		p.advance()
		return exprValue{v: v, isReg: true}, nil
	case TokTilde:
		p.advance()
		inner, err := p.parseFactor()
		if err != nil {
			return exprValue{}, err
		}
		if inner.isReg {
			return exprValue{}, newErr(ErrTypeMismatch, p.tok.Offset, "cannot complement a register")
		}
		return exprValue{v: ^inner.v}, nil
	case TokLParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return exprValue{}, err
		}
		if p.tok.Kind != TokRParen {
			return exprValue{}, newErr(ErrExpectedRParen, p.tok.Offset, "")
		}
		p.advance()
		return inner, nil
	default:
		return exprValue{}, newErr(ErrExpectedOperand, p.tok.Offset, "")
	}
}

// number parses a plain numeric immediate: an expr that must not reduce to
// a bare register.
func (p *Parser) number() (int64, *Error) {
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if v.isReg {
		return 0, newErr(ErrTypeMismatch, p.tok.Offset, "expected a number, got a register")
	}
	return v.v, nil
}
