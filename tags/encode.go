package tags

import "strings"

// htmlAttributeEncode escapes a value for a double-quoted HTML attribute.
// Quote characters become the &quot; entity rather than a numeric escape
// because the enclosing markup may have used single quotes.
func htmlAttributeEncode(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// jsStringEscape escapes a value for embedding inside a double-quoted
// JavaScript string literal that itself lives in a script body. A "</"
// sequence is written "<\/" so serialized tags cannot terminate the
// enclosing script element.
func jsStringEscape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '<':
			if i+1 < len(s) && s[i+1] == '/' {
				b.WriteString(`<\/`)
				i++
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
