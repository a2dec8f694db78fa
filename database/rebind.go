package database

import (
	"strconv"
	"strings"
)

// Rebind rewrites ? placeholders as $1, $2, ... when running on PostgreSQL.
// Question marks inside single-quoted literals are left alone.
func Rebind(query string) string {
	if Driver != DriverPostgres {
		return query
	}
	return rebindNumbered(query)
}

func rebindNumbered(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
