// Package prompt renders {placeholder}-style templates used for triage and
// draft instructions. Doubled braces escape literals: {{ renders as { and
// }} renders as }.
package prompt

import (
	"fmt"
	"strings"
)

// Render substitutes every {name} in tmpl with vars[name]. A placeholder
// without a matching var is an error, as is an unmatched brace or a
// placeholder name that is not a plain identifier.
func Render(tmpl string, vars map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl))

	for i := 0; i < len(tmpl); {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("unterminated placeholder at offset %d", i)
			}
			name := tmpl[i+1 : i+1+end]
			if !isIdent(name) {
				return "", fmt.Errorf("invalid placeholder %q at offset %d", name, i)
			}
			val, ok := vars[name]
			if !ok {
				return "", fmt.Errorf("unknown placeholder {%s}", name)
			}
			b.WriteString(val)
			i += end + 2
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i += 2
				continue
			}
			return "", fmt.Errorf("unmatched '}' at offset %d", i)
		default:
			b.WriteByte(c)
			i++
		}
	}

	return b.String(), nil
}

// Placeholders returns the distinct placeholder names referenced by tmpl in
// order of first appearance. It reports the same syntax errors as Render.
func Placeholders(tmpl string) ([]string, error) {
	var names []string
	seen := make(map[string]bool)

	for i := 0; i < len(tmpl); {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				i += 2
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated placeholder at offset %d", i)
			}
			name := tmpl[i+1 : i+1+end]
			if !isIdent(name) {
				return nil, fmt.Errorf("invalid placeholder %q at offset %d", name, i)
			}
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
			i += end + 2
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				i += 2
				continue
			}
			return nil, fmt.Errorf("unmatched '}' at offset %d", i)
		default:
			i++
		}
	}

	return names, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return false
		}
	}
	return true
}
