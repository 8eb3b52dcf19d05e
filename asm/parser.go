package asm

import (
	"strings"

	"github.com/twin64/t64sim/bitfield"
)

// Parser holds the mutable state threaded through a single-line assemble.
// One Parser is constructed per call to Assemble.
type Parser struct {
	lex *Lexer
	tok Token
	err *Error
}

func (p *Parser) advance() {
	tok, err := p.lex.Next()
	if err != nil {
		if p.err == nil {
			p.err = err
		}
		p.tok = Token{Kind: TokEOF, Offset: tok.Offset}
		return
	}
	p.tok = tok
}

func (p *Parser) fail(kind Kind, detail string) *Error {
	return newErr(kind, p.tok.Offset, detail)
}

func (p *Parser) expectComma() *Error {
	if p.tok.Kind != TokComma {
		return p.fail(ErrExpectedComma, "")
	}
	p.advance()
	return nil
}

func (p *Parser) expectLParen() *Error {
	if p.tok.Kind != TokLParen {
		return p.fail(ErrExpectedLParen, "")
	}
	p.advance()
	return nil
}

func (p *Parser) expectRParen() *Error {
	if p.tok.Kind != TokRParen {
		return p.fail(ErrExpectedRParen, "")
	}
	p.advance()
	return nil
}

// gReg consumes a general-register operand.
func (p *Parser) gReg() (int, *Error) {
	if p.tok.Kind != TokGReg {
		return 0, p.fail(ErrExpectedRegister, "")
	}
	n := int(p.tok.Value)
	p.advance()
	return n, nil
}

// cReg consumes a control-register operand.
func (p *Parser) cReg() (int, *Error) {
	if p.tok.Kind != TokCReg {
		return 0, p.fail(ErrExpectedControlReg, "")
	}
	n := int(p.tok.Value)
	p.advance()
	return n, nil
}

// posOperand consumes an EXTR/DEP/DSR position operand: either the literal
// keyword SAR, which sets the instruction's from-SAR bit instead of
// encoding a 6-bit field, or a plain 0-63 numeral.
func (p *Parser) posOperand() (pos int, fromSAR bool, err *Error) {
	if p.tok.Kind == TokGReg && strings.EqualFold(p.tok.Text, "SAR") {
		p.advance()
		return 0, true, nil
	}
	v, e := p.number()
	if e != nil {
		return 0, false, e
	}
	if v < 0 || v > 63 {
		return 0, false, p.fail(ErrValueOutOfRange, "position must be 0-63")
	}
	return int(v), false, nil
}

// rangedSigned parses a number and checks it fits the given signed bit width.
func (p *Parser) rangedSigned(bits int) (int64, *Error) {
	v, err := p.number()
	if err != nil {
		return 0, err
	}
	lo := -(int64(1) << uint(bits-1))
	hi := (int64(1) << uint(bits-1)) - 1
	if v < lo || v > hi {
		return 0, p.fail(ErrValueOutOfRange, "")
	}
	return v, nil
}

// rangedUnsigned parses a number and checks it fits the given unsigned
// bit width.
func (p *Parser) rangedUnsigned(bits int) (int64, *Error) {
	v, err := p.number()
	if err != nil {
		return 0, err
	}
	if v < 0 || v > (int64(1)<<uint(bits))-1 {
		return 0, p.fail(ErrValueOutOfRange, "")
	}
	return v, nil
}

// memOperand parses the shared "imm13(Rb)" / "Ra(Rb)" memory addressing
// syntax, returning whether the Ra-index form was used. For the immediate
// form, offset is the raw byte displacement; the caller scales it by DW
// when encoding.
func (p *Parser) memOperand() (indexForm bool, immOrReg int64, base int, err *Error) {
	if p.tok.Kind == TokGReg {
		// A leading register can only start the index form "Ra(Rb)"; a
		// bare register is never a valid immediate offset.
		reg, e := p.gReg()
		if e != nil {
			return false, 0, 0, e
		}
		if e := p.expectLParen(); e != nil {
			return false, 0, 0, e
		}
		b, e2 := p.gReg()
		if e2 != nil {
			return false, 0, 0, e2
		}
		if e3 := p.expectRParen(); e3 != nil {
			return false, 0, 0, e3
		}
		return true, int64(reg), b, nil
	}
	offs, e := p.number()
	if e != nil {
		return false, 0, 0, e
	}
	if e := p.expectLParen(); e != nil {
		return false, 0, 0, e
	}
	b, e2 := p.gReg()
	if e2 != nil {
		return false, 0, 0, e2
	}
	if e3 := p.expectRParen(); e3 != nil {
		return false, 0, 0, e3
	}
	return false, offs, b, nil
}

// Assemble parses one source line into a 32-bit instruction word. On
// failure it returns a zero word and a tagged Error; parsing never
// partially emits.
func Assemble(line string) (bitfield.Instr, *Error) {
	p := &Parser{lex: NewLexer(line)}
	p.advance()

	if p.tok.Kind != TokIdent {
		if p.err != nil {
			return 0, p.err
		}
		return 0, p.fail(ErrUnknownMnemonic, "")
	}
	mnemonic := strings.ToUpper(p.tok.Text)
	p.advance()

	enc, ok := mnemonicEncoders[mnemonic]
	if !ok {
		return 0, newErr(ErrUnknownMnemonic, p.tok.Offset, mnemonic)
	}

	instr, err := enc(p)
	if err != nil {
		return 0, err
	}
	if p.err != nil {
		return 0, p.err
	}
	if p.tok.Kind != TokEOF {
		return 0, p.fail(ErrTrailingGarbage, p.tok.Text)
	}
	return instr, nil
}

// mnemonicEncoder parses the operand list for one mnemonic (the mnemonic
// token itself already consumed) and returns the encoded instruction.
type mnemonicEncoder func(p *Parser) (bitfield.Instr, *Error)

// mnemonicEncoders is populated by init() in the per-group enc_*.go files,
// one entry per architectural mnemonic.
var mnemonicEncoders = map[string]mnemonicEncoder{}

func register(name string, enc mnemonicEncoder) {
	mnemonicEncoders[strings.ToUpper(name)] = enc
}
