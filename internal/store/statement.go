package store

import "strings"

type stmtKind int

const (
	kindExec stmtKind = iota
	kindQuery
	kindPragma
)

var queryKeywords = map[string]bool{
	"SELECT":   true,
	"WITH":     true,
	"SHOW":     true,
	"DESCRIBE": true,
	"DESC":     true,
	"EXPLAIN":  true,
	"VALUES":   true,
}

func statementKind(stmt string) stmtKind {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return kindExec
	}
	kw := strings.ToUpper(strings.TrimLeft(fields[0], "("))
	switch {
	case kw == "PRAGMA":
		return kindPragma
	case queryKeywords[kw]:
		return kindQuery
	}
	return kindExec
}

// rewritePlaceholders turns "%s" into "?" and "%%" into "%" outside
// quoted literals and identifiers.
func rewritePlaceholders(query string) string {
	if !strings.Contains(query, "%") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	var quote byte
	for i := 0; i < len(query); i++ {
		ch := query[i]
		if quote != 0 {
			b.WriteByte(ch)
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"', '`':
			quote = ch
		case '%':
			if i+1 < len(query) {
				switch query[i+1] {
				case 's':
					b.WriteByte('?')
					i++
					continue
				case '%':
					b.WriteByte('%')
					i++
					continue
				}
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func firstLine(stmt string) string {
	s := strings.TrimSpace(stmt)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}
