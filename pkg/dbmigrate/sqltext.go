package dbmigrate

import "strings"

// IsEmptySQL reports whether content holds no executable statement once
// comments, whitespace and bare semicolons are removed.
func IsEmptySQL(content string) bool {
	return strings.Trim(stripComments(content), " \t\r\n;") == ""
}

// stripComments removes "--" line comments and "/* */" block comments that
// appear outside quoted literals. Block comments nest, as in Postgres.
func stripComments(sql string) string {
	var b strings.Builder
	b.Grow(len(sql))

	depth := 0
	var quote byte

	for i := 0; i < len(sql); i++ {
		c := sql[i]

		switch {
		case depth > 0:
			if c == '*' && i+1 < len(sql) && sql[i+1] == '/' {
				depth--
				i++
			} else if c == '/' && i+1 < len(sql) && sql[i+1] == '*' {
				depth++
				i++
			}
		case quote != 0:
			b.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
			b.WriteByte(c)
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			b.WriteByte('\n')
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			depth++
			i++
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}
