package expr

import (
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
)

// ErrSyntax marks every error Parse returns for malformed input.
var ErrSyntax = errors.New("expr: syntax error")

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokFloat
	tokString
	tokDuration
	tokTime
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// punctuators longest first so "=>" wins over "=".
var punctuators = []string{
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??",
	"(", ")", "[", "]", ".", ",", "?", ":", "<", ">", "+", "-", "*", "/", "!", "~",
}

func syntaxErrorf(pos int, format string, args ...any) error {
	return errors.Mark(errors.Newf("offset %d: "+format, append([]any{pos}, args...)...), ErrSyntax)
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '"':
			end := i + 1
			for end < len(src) && src[end] != '"' {
				if src[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(src) {
				return nil, syntaxErrorf(i, "unterminated string")
			}
			toks = append(toks, token{kind: tokString, text: src[i : end+1], pos: i})
			i = end + 1
		case c == '@':
			end := i + 1
			for end < len(src) && !unicode.IsSpace(rune(src[end])) && !strings.ContainsRune("),]", rune(src[end])) {
				end++
			}
			toks = append(toks, token{kind: tokTime, text: src[i+1 : end], pos: i})
			i = end
		case unicode.IsDigit(c):
			tok, end := lexNumber(src, i)
			toks = append(toks, tok)
			i = end
		case c == '_' || unicode.IsLetter(c):
			end := i
			for end < len(src) && (src[end] == '_' || unicode.IsLetter(rune(src[end])) || unicode.IsDigit(rune(src[end]))) {
				end++
			}
			toks = append(toks, token{kind: tokIdent, text: src[i:end], pos: i})
			i = end
		default:
			matched := false
			for _, p := range punctuators {
				if strings.HasPrefix(src[i:], p) {
					toks = append(toks, token{kind: tokPunct, text: p, pos: i})
					i += len(p)
					matched = true
					break
				}
			}
			if !matched {
				return nil, syntaxErrorf(i, "unexpected character %q", c)
			}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

// lexNumber reads an integer, a float or a duration such as 1m30s.
func lexNumber(src string, start int) (token, int) {
	end := start
	kind := tokInt
	for end < len(src) && unicode.IsDigit(rune(src[end])) {
		end++
	}
	if end+1 < len(src) && src[end] == '.' && unicode.IsDigit(rune(src[end+1])) {
		kind = tokFloat
		end++
		for end < len(src) && unicode.IsDigit(rune(src[end])) {
			end++
		}
	}
	if end < len(src) && unicode.IsLetter(rune(src[end])) {
		kind = tokDuration
		for end < len(src) && (unicode.IsLetter(rune(src[end])) || unicode.IsDigit(rune(src[end])) || src[end] == '.') {
			end++
		}
	}
	return token{kind: kind, text: src[start:end], pos: start}, end
}
