// internal/store/guard.go
package store

import (
	"fmt"
	"regexp"
	"strings"
)

var word = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_$]*`)

// writeKeywords are rejected wherever they appear outside a literal, so a
// data-modifying CTE cannot hide behind a leading WITH.
var writeKeywords = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "REPLACE": true,
	"MERGE": true, "UPSERT": true, "INTO": true,
	"DROP": true, "ALTER": true, "CREATE": true, "TRUNCATE": true,
	"ATTACH": true, "DETACH": true, "PRAGMA": true, "VACUUM": true,
	"REINDEX": true, "GRANT": true, "REVOKE": true,
}

// ReadOnlyStatement returns the statement with comments and a trailing
// semicolon removed, or ErrQueryRejected unless it is a single SELECT (or
// WITH ... SELECT) statement that names no write keyword.
func ReadOnlyStatement(query string) (string, error) {
	cleaned, skeleton := stripComments(query)
	cleaned = strings.TrimRight(strings.TrimSpace(cleaned), "; \t\r\n")
	skeleton = strings.TrimRight(strings.TrimSpace(skeleton), "; \t\r\n")

	if cleaned == "" {
		return "", fmt.Errorf("%w: empty statement", ErrQueryRejected)
	}
	if strings.Contains(skeleton, ";") {
		return "", fmt.Errorf("%w: multiple statements", ErrQueryRejected)
	}

	fields := strings.Fields(cleaned)
	keyword := strings.ToUpper(strings.TrimLeft(fields[0], "("))
	if keyword != "SELECT" && keyword != "WITH" {
		return "", fmt.Errorf("%w: only SELECT statements are allowed, got %s", ErrQueryRejected, fields[0])
	}

	for _, loc := range word.FindAllStringIndex(skeleton, -1) {
		w := strings.ToUpper(skeleton[loc[0]:loc[1]])
		if !writeKeywords[w] {
			continue
		}
		// REPLACE(...) is the string function.
		if w == "REPLACE" && strings.HasPrefix(strings.TrimLeft(skeleton[loc[1]:], " \t\r\n"), "(") {
			continue
		}
		return "", fmt.Errorf("%w: %s is not allowed in a read-only query", ErrQueryRejected, w)
	}
	return cleaned, nil
}

// stripComments removes line and block comments outside quoted spans. It
// returns the cleaned text and a skeleton of it where every quoted span is
// reduced to its quotes, for keyword and separator checks.
func stripComments(query string) (string, string) {
	var text, skeleton strings.Builder
	text.Grow(len(query))
	skeleton.Grow(len(query))

	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			end := closingQuote(query, i)
			text.WriteString(query[i:end])
			skeleton.WriteByte(c)
			skeleton.WriteByte(c)
			i = end - 1
		case c == '-' && i+1 < len(query) && query[i+1] == '-':
			for i+1 < len(query) && query[i+1] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(query) && query[i+1] == '*':
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				i = len(query)
			} else {
				i += end + 3
			}
			text.WriteByte(' ')
			skeleton.WriteByte(' ')
		default:
			text.WriteByte(c)
			skeleton.WriteByte(c)
		}
	}
	return text.String(), skeleton.String()
}

// closingQuote returns the index just past the quoted span starting at
// start. A doubled quote character is an escaped quote.
func closingQuote(query string, start int) int {
	q := query[start]
	for i := start + 1; i < len(query); i++ {
		if query[i] != q {
			continue
		}
		if i+1 < len(query) && query[i+1] == q {
			i++
			continue
		}
		return i + 1
	}
	return len(query)
}
