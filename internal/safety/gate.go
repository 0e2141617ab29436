// Package safety implements the keyword gate that keeps generated SQL
// read-only before it reaches a tenant database.
package safety

import "strings"

// forbiddenTokens is the fixed vocabulary of statement classes that must
// never be executed. The match is a case-insensitive substring check, not a
// SQL parse: a SELECT whose literal text merely mentions one of these words
// is blocked too. That over-blocking is intended; the gate prefers refusing
// a safe query over running an unsafe one.
var forbiddenTokens = []string{
	"DROP",
	"DELETE",
	"ALTER",
	"UPDATE",
	"INSERT",
	"TRUNCATE",
	"CREATE",
}

// Classify returns every forbidden token found in sql, in vocabulary order.
// An empty result means the statement may be executed.
func Classify(sql string) []string {
	upper := strings.ToUpper(sql)

	var matched []string
	for _, token := range forbiddenTokens {
		if strings.Contains(upper, token) {
			matched = append(matched, token)
		}
	}
	return matched
}

// IsSafe reports whether sql passes the gate.
func IsSafe(sql string) bool {
	return len(Classify(sql)) == 0
}
