package output

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Format templates drive the file output. A template is a run of literal
// text and {placeholder} tokens; a placeholder names a record field, with /
// separating the keys of nested maps: "{parent/child}-{source}.log".

var (
	// ErrUnterminatedPlaceholder reports a '{' with no closing '}'.
	ErrUnterminatedPlaceholder = errors.New("unterminated placeholder")
	// ErrKeyNotFound reports a placeholder naming an absent record field.
	ErrKeyNotFound = errors.New("key not found")
	// ErrTypeMismatch reports a placeholder resolving to a map or list,
	// which have no single-line rendering.
	ErrTypeMismatch = errors.New("type mismatch")
)

// Token is one piece of a parsed format template. Path is nil for literal
// tokens; for placeholders it holds the key path into the record.
type Token struct {
	Literal string
	Path    []string
}

// ParseFormat splits a template into literal and placeholder tokens.
func ParseFormat(format string) ([]Token, error) {
	tokens := []Token{}
	rest := format
	for len(rest) > 0 {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			tokens = append(tokens, Token{Literal: rest})
			break
		}
		if open > 0 {
			tokens = append(tokens, Token{Literal: rest[:open]})
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return nil, fmt.Errorf("%w at %q", ErrUnterminatedPlaceholder, rest[open:])
		}
		tokens = append(tokens, Token{Path: strings.Split(rest[open+1:open+end], "/")})
		rest = rest[open+end+1:]
	}
	return tokens, nil
}

// Render expands a parsed template against one record.
func Render(tokens []Token, record map[string]any) (string, error) {
	var b strings.Builder
	for _, tok := range tokens {
		if tok.Path == nil {
			b.WriteString(tok.Literal)
			continue
		}

		var current any = record
		for _, key := range tok.Path {
			m, ok := current.(map[string]any)
			if !ok {
				return "", fmt.Errorf("%w: %q", ErrKeyNotFound, key)
			}
			current, ok = m[key]
			if !ok {
				return "", fmt.Errorf("%w: %q", ErrKeyNotFound, key)
			}
		}

		s, err := renderValue(current)
		if err != nil {
			return "", fmt.Errorf("%s: %w", strings.Join(tok.Path, "/"), err)
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func renderValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case bool:
		return strconv.FormatBool(val), nil
	case string:
		return val, nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	default:
		return "", ErrTypeMismatch
	}
}
