package asm

import "strings"

// parseOptions reads zero or more ".X" suffix segments following a
// mnemonic, validating each against allowed and rejecting any pair that
// appears together in an exclusiveGroups entry (e.g. ".B"/".H"/".W"/".D"
// at most one).
func (p *Parser) parseOptions(allowed map[string]bool, exclusiveGroups [][]string) (map[string]bool, *Error) {
	flags := map[string]bool{}
	for p.tok.Kind == TokDot {
		p.advance()
		if p.tok.Kind != TokIdent {
			return nil, newErr(ErrUnknownOption, p.tok.Offset, "")
		}
		name := strings.ToUpper(p.tok.Text)
		offset := p.tok.Offset
		p.advance()
		if !allowed[name] {
			return nil, newErr(ErrOptionNotAllowed, offset, name)
		}
		if flags[name] {
			return nil, newErr(ErrDuplicateOption, offset, name)
		}
		flags[name] = true
	}
	for _, grp := range exclusiveGroups {
		count := 0
		for _, g := range grp {
			if flags[g] {
				count++
			}
		}
		if count > 1 {
			return nil, newErr(ErrConflictingOption, p.tok.Offset, strings.Join(grp, "/"))
		}
	}
	return flags, nil
}

// dwAllowed lists the width suffix letters, shared by every memory-access
// mnemonic; dwFromFlags maps them to a DW field value.
var dwAllowed = map[string]bool{"B": true, "H": true, "W": true, "D": true}
var dwExclusive = [][]string{{"B", "H", "W", "D"}}

func dwFromFlags(flags map[string]bool) int {
	switch {
	case flags["B"]:
		return 0
	case flags["H"]:
		return 1
	case flags["D"]:
		return 3
	default: // "W" or unspecified defaults to word
		return 2
	}
}

func dwSuffix(dw int) string {
	switch dw {
	case 0:
		return "B"
	case 1:
		return "H"
	case 3:
		return "D"
	default:
		return "W"
	}
}
