package repo

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards so user input matches literally
// (Postgres uses backslash as the default LIKE escape character).
func escapeLike(s string) string {
	return likeEscaper.Replace(strings.TrimSpace(s))
}
