package nodefilter

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const filterTypeSuffix = "InputFilter"

// FieldPath is the ancestry of a field, outermost name first
type FieldPath []string

// Child returns a new path extended by name. The receiver is not modified.
func (p FieldPath) Child(name string) FieldPath {
	child := make(FieldPath, len(p)+1)
	copy(child, p)
	child[len(p)] = name
	return child
}

// String joins the path with spaces, the form used in type names and
// descriptions
func (p FieldPath) String() string {
	return strings.Join(p, " ")
}

// Dotted joins the path with dots, the form used to address node properties
func (p FieldPath) Dotted() string {
	return strings.Join(p, ".")
}

// FilterTypeName returns the input type name for the field at path on
// typeName, e.g. ("Post", [author name]) → "PostAuthorNameInputFilter".
// The full path is always part of the name, so two fields of one type only
// share a name when their paths spell the same words.
func FilterTypeName(typeName string, path FieldPath) string {
	parts := make([]string, 0, len(path)+2)
	parts = append(parts, typeName)
	parts = append(parts, path...)
	parts = append(parts, filterTypeSuffix)
	return PascalCase(parts...)
}

// PascalCase splits every part into words and concatenates them title-cased.
// Anything other than an ASCII letter or digit separates words, as do
// lower-to-upper humps ("publishedAt"), the end of an acronym ("XMLHttp")
// and a digit followed by a letter ("v2beta"). The result is a valid GraphQL
// name.
func PascalCase(parts ...string) string {
	// Casers keep state, so each call gets its own
	caser := cases.Title(language.Und)

	var b strings.Builder
	for _, part := range parts {
		for _, word := range splitWords(part) {
			b.WriteString(caser.String(word))
		}
	}

	name := b.String()
	if name != "" && isDigit(name[0]) {
		name = "_" + name
	}
	return name
}

func splitWords(s string) []string {
	var words []string
	var cur []byte

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isAlnum(c) {
			flush()
			continue
		}

		if n := len(cur); n > 0 {
			prev := cur[n-1]
			switch {
			case isLower(prev) && isUpper(c):
				flush()
			case isDigit(prev) && !isDigit(c):
				flush()
			case isUpper(prev) && isLower(c) && n > 1 && isUpper(cur[n-2]):
				cur = cur[:n-1]
				flush()
				cur = append(cur, prev)
			}
		}
		cur = append(cur, c)
	}
	flush()

	return words
}

func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlnum(c byte) bool { return isLower(c) || isUpper(c) || isDigit(c) }

// isGraphQLName reports whether s matches /^[_A-Za-z][_0-9A-Za-z]*$/
func isGraphQLName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || isLower(c) || isUpper(c) || (i > 0 && isDigit(c)) {
			continue
		}
		return false
	}
	return true
}

// isFieldName reports whether s can name a field: a GraphQL name outside
// the reserved __ prefix
func isFieldName(s string) bool {
	return isGraphQLName(s) && !strings.HasPrefix(s, "__")
}

// lowerFirst lower-cases the leading rune of an ASCII name
func lowerFirst(s string) string {
	if s == "" || !isUpper(s[0]) {
		return s
	}
	return string(s[0]+32) + s[1:]
}
