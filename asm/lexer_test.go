package asm

import "testing"

func TestLexerTokens(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind TokenKind
		val  int64
	}{
		{"comma", ",", TokComma, 0},
		{"dot", ".", TokDot, 0},
		{"lparen", "(", TokLParen, 0},
		{"rparen", ")", TokRParen, 0},
		{"decimal", "42", TokNumber, 42},
		{"hex", "0x2A", TokNumber, 42},
		{"hex_underscore", "0xFF_FF", TokNumber, 0xFFFF},
		{"decimal_underscore", "1_000", TokNumber, 1000},
		{"greg", "R3", TokGReg, 3},
		{"greg_alias", "SP", TokGReg, 4},
		{"creg", "C7", TokCReg, 7},
		{"ident", "B", TokIdent, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLexer(tt.src)
			tok, err := l.Next()
			if err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			if tok.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", tok.Kind, tt.kind)
			}
			if tt.kind == TokNumber || tt.kind == TokGReg || tt.kind == TokCReg {
				if tok.Value != tt.val {
					t.Fatalf("Value = %d, want %d", tok.Value, tt.val)
				}
			}
		})
	}
}

func TestLexerSkipsComments(t *testing.T) {
	l := NewLexer("  ; a comment\n")
	tok, err := l.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if tok.Kind != TokEOF {
		t.Fatalf("Kind = %v, want TokEOF", tok.Kind)
	}
}

func TestLexerUnexpectedChar(t *testing.T) {
	l := NewLexer("@")
	_, err := l.Next()
	if err == nil || err.Kind != ErrUnexpectedChar {
		t.Fatalf("err = %v, want ErrUnexpectedChar", err)
	}
}

func TestLexerQualifier(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int64
	}{
		{"L%", "L%0x123456789", 0x123456789 & 0x3FF},
		{"R%", "R%0x123456789", (0x123456789 >> 10) & 0x3FF},
		{"S%", "S%0x123456789ABCD00", (0x123456789ABCD00 >> 32) & 0xFFFFF},
		{"U%", "U%0x123456789ABCD00", (0x123456789ABCD00 >> 52) & 0xFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLexer(tt.src)
			tok, err := l.Next()
			if err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			if tok.Kind != TokNumber {
				t.Fatalf("Kind = %v, want TokNumber", tok.Kind)
			}
			if tok.Value != tt.want {
				t.Fatalf("Value = %#x, want %#x", tok.Value, tt.want)
			}
		})
	}
}

func TestLexerUnterminatedNumber(t *testing.T) {
	l := NewLexer("0x")
	_, err := l.Next()
	if err == nil || err.Kind != ErrUnterminatedNumber {
		t.Fatalf("err = %v, want ErrUnterminatedNumber", err)
	}
}
