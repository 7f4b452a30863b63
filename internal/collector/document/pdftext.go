package document

import (
	"bytes"
	"strconv"
	"strings"
)

// tjSpaceThreshold is the TJ displacement, in thousandths of a text space
// unit, past which a gap between two strings is read as a word break.
const tjSpaceThreshold = -200

type tokenKind int

const (
	tokOperator tokenKind = iota
	tokNumber
	tokString
	tokName
	tokArray
	tokOther
)

type token struct {
	kind  tokenKind
	text  string
	num   float64
	items []token
}

// contentText decodes the strings painted by the text-showing operators
// (Tj, TJ, ' and ") of a page content stream. Line breaks follow the text
// positioning operators. Strings are read as single-byte text, so fonts with
// composite encodings come out as raw bytes.
func contentText(stream []byte) string {
	lx := &lexer{src: stream}
	var (
		out      strings.Builder
		operands []token
	)

	newline := func() {
		if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
			out.WriteByte('\n')
		}
	}

	for {
		tok, ok := lx.next()
		if !ok {
			break
		}
		if tok.kind != tokOperator {
			operands = append(operands, tok)
			continue
		}

		switch tok.text {
		case "Tj":
			writeLastString(&out, operands)
		case "'", "\"":
			newline()
			writeLastString(&out, operands)
		case "TJ":
			if n := len(operands); n > 0 && operands[n-1].kind == tokArray {
				writeTJ(&out, operands[n-1].items)
			}
		case "T*", "ET":
			newline()
		case "Td", "TD":
			if n := len(operands); n >= 2 && operands[n-1].kind == tokNumber && operands[n-1].num != 0 {
				newline()
			}
		case "ID":
			lx.skipInlineImage()
		}
		operands = operands[:0]
	}

	lines := strings.Split(out.String(), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

func writeLastString(out *strings.Builder, operands []token) {
	if n := len(operands); n > 0 && operands[n-1].kind == tokString {
		out.WriteString(operands[n-1].text)
	}
}

func writeTJ(out *strings.Builder, items []token) {
	for _, it := range items {
		switch it.kind {
		case tokString:
			out.WriteString(it.text)
		case tokNumber:
			if it.num < tjSpaceThreshold && !strings.HasSuffix(out.String(), " ") {
				out.WriteByte(' ')
			}
		}
	}
}

type lexer struct {
	src []byte
	pos int
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case isSpace(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' && l.src[l.pos] != '\r' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (token, bool) {
	l.skipSpaceAndComments()
	if l.pos >= len(l.src) {
		return token{}, false
	}

	switch c := l.src[l.pos]; c {
	case '(':
		l.pos++
		return token{kind: tokString, text: l.literalString()}, true
	case '<':
		if l.pos+1 < len(l.src) && l.src[l.pos+1] == '<' {
			l.pos += 2
			return token{kind: tokOther, text: "<<"}, true
		}
		l.pos++
		return token{kind: tokString, text: l.hexString()}, true
	case '>':
		l.pos++
		if l.pos < len(l.src) && l.src[l.pos] == '>' {
			l.pos++
		}
		return token{kind: tokOther, text: ">>"}, true
	case '[':
		l.pos++
		return token{kind: tokArray, items: l.array()}, true
	case ']', '{', '}', ')':
		l.pos++
		return token{kind: tokOther, text: string(c)}, true
	case '/':
		l.pos++
		return token{kind: tokName, text: l.regular()}, true
	}

	word := l.regular()
	if word == "" {
		// Stray byte the grammar does not allow here.
		l.pos++
		return token{kind: tokOther}, true
	}
	if n, err := strconv.ParseFloat(word, 64); err == nil {
		return token{kind: tokNumber, num: n, text: word}, true
	}
	switch word {
	case "true", "false", "null":
		return token{kind: tokOther, text: word}, true
	}
	return token{kind: tokOperator, text: word}, true
}

func (l *lexer) regular() string {
	start := l.pos
	for l.pos < len(l.src) && !isSpace(l.src[l.pos]) && !isDelimiter(l.src[l.pos]) {
		l.pos++
	}
	return string(l.src[start:l.pos])
}

func (l *lexer) array() []token {
	var items []token
	for {
		l.skipSpaceAndComments()
		if l.pos >= len(l.src) {
			return items
		}
		if l.src[l.pos] == ']' {
			l.pos++
			return items
		}
		tok, ok := l.next()
		if !ok {
			return items
		}
		items = append(items, tok)
	}
}

// literalString reads up to the matching close paren; the opening one is
// already consumed.
func (l *lexer) literalString() string {
	var b bytes.Buffer
	depth := 1
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		l.pos++
		switch c {
		case '(':
			depth++
			b.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return b.String()
			}
			b.WriteByte(c)
		case '\\':
			l.escape(&b)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (l *lexer) escape(b *bytes.Buffer) {
	if l.pos >= len(l.src) {
		return
	}
	c := l.src[l.pos]
	l.pos++
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case '\r':
		// Line continuation.
		if l.pos < len(l.src) && l.src[l.pos] == '\n' {
			l.pos++
		}
	case '\n':
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v := int(c - '0')
		for i := 0; i < 2 && l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '7'; i++ {
			v = v*8 + int(l.src[l.pos]-'0')
			l.pos++
		}
		b.WriteByte(byte(v))
	default:
		b.WriteByte(c)
	}
}

func (l *lexer) hexString() string {
	var digits []byte
	for l.pos < len(l.src) && l.src[l.pos] != '>' {
		if c := l.src[l.pos]; !isSpace(c) {
			digits = append(digits, c)
		}
		l.pos++
	}
	l.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		v, err := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		if err != nil {
			continue
		}
		out = append(out, byte(v))
	}
	return string(out)
}

// skipInlineImage moves past the binary data of a BI ... ID ... EI block.
func (l *lexer) skipInlineImage() {
	if l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
	for l.pos+1 < len(l.src) {
		if l.src[l.pos] == 'E' && l.src[l.pos+1] == 'I' &&
			l.pos > 0 && isSpace(l.src[l.pos-1]) &&
			(l.pos+2 == len(l.src) || isSpace(l.src[l.pos+2])) {
			l.pos += 2
			return
		}
		l.pos++
	}
	l.pos = len(l.src)
}
