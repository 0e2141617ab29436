// Package extract recovers a structured (reasoning, sql) pair from raw LLM
// output. Models wrap their answers unpredictably: bare JSON, fenced JSON,
// fenced SQL, labeled fences, prose with an embedded object, or nothing
// usable at all. Extract runs an ordered chain of parsing strategies over
// progressively more degraded assumptions and short-circuits on the first
// success. It is a total function: it never fails, the worst case is an
// empty response carrying only the raw text.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/medika-labs/medquery/internal/domain"
)

var (
	// a bare word alone on the first line, e.g. a language label like "json"
	leadingMarkerRe = regexp.MustCompile(`^[A-Za-z]+[ \t]*\r?\n`)

	// fenced code block with an optional language tag
	fencedBlockRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*[ \t]*\r?\n?(.*?)```")

	// fence delimiters with their language tag, for post-extraction stripping
	fenceDelimRe = regexp.MustCompile("```[a-zA-Z0-9_-]*")

	// first statement up to its terminating semicolon; matches any statement
	// keyword so a bare mutating statement still reaches the safety gate
	firstStmtRe = regexp.MustCompile(`(?is)\b(?:select|with|insert|update|delete|drop|alter|create|truncate)\b.*?;`)

	// quoted JSON string values for field-level salvage
	sqlFieldRe       = regexp.MustCompile(`(?i)"sql"\s*:\s*("(?:[^"\\]|\\.)*")`)
	reasoningFieldRe = regexp.MustCompile(`(?i)"reasoning"\s*:\s*("(?:[^"\\]|\\.)*")`)
)

// minSQLLength guards against fences that wrapped only punctuation.
const minSQLLength = 5

// attempt is one strategy in the chain: pure text in, optional response out.
type attempt func(string) (reasoning, sql string, ok bool)

var chain = []attempt{
	attemptDirectJSON,
	attemptMarkerStrippedJSON,
	attemptFencedJSON,
	attemptBareObjectSpan,
	attemptFencedSQL,
	attemptFirstStatement,
	attemptFieldSalvage,
}

// Extract parses raw model output into a ModelResponse. It never returns an
// error; when every strategy fails the result carries only RawText and the
// caller surfaces a parse failure.
func Extract(raw string) domain.ModelResponse {
	resp := domain.ModelResponse{RawText: raw}

	for _, try := range chain {
		if reasoning, sql, ok := try(raw); ok {
			resp.Reasoning = strings.TrimSpace(reasoning)
			resp.SQL = normalizeSQL(sql)
			return resp
		}
	}

	return resp
}

// parseEnvelope decodes s as a JSON object with the expected reasoning/sql
// string fields. The sql field must be present; reasoning is optional.
func parseEnvelope(s string) (string, string, bool) {
	var env struct {
		Reasoning *string `json:"reasoning"`
		SQL       *string `json:"sql"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &env); err != nil {
		return "", "", false
	}
	if env.SQL == nil {
		return "", "", false
	}
	reasoning := ""
	if env.Reasoning != nil {
		reasoning = *env.Reasoning
	}
	return reasoning, *env.SQL, true
}

// Strategy 1: the whole output is the JSON envelope.
func attemptDirectJSON(raw string) (string, string, bool) {
	return parseEnvelope(raw)
}

// Strategy 2: a bare-word label precedes the envelope ("json\n{...}").
func attemptMarkerStrippedJSON(raw string) (string, string, bool) {
	trimmed := strings.TrimSpace(raw)
	stripped := leadingMarkerRe.ReplaceAllString(trimmed, "")
	if stripped == trimmed {
		return "", "", false
	}
	return parseEnvelope(stripped)
}

// Strategy 3: the first fenced block whose content parses as the envelope,
// regardless of the declared language tag.
func attemptFencedJSON(raw string) (string, string, bool) {
	for _, m := range fencedBlockRe.FindAllStringSubmatch(raw, -1) {
		if reasoning, sql, ok := parseEnvelope(m[1]); ok {
			return reasoning, sql, true
		}
	}
	return "", "", false
}

// Strategy 4: greedy first-to-last-brace span anywhere in the text.
func attemptBareObjectSpan(raw string) (string, string, bool) {
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first < 0 || last <= first {
		return "", "", false
	}
	return parseEnvelope(raw[first : last+1])
}

// Strategy 5: a fenced block holding SQL. If the block embeds a brace span
// that parses as the envelope, prefer it (models sometimes fence a JSON
// object with prose around it); content that is some other valid JSON is
// skipped rather than mistaken for SQL.
func attemptFencedSQL(raw string) (string, string, bool) {
	for _, m := range fencedBlockRe.FindAllStringSubmatch(raw, -1) {
		content := m[1]

		if reasoning, sql, ok := attemptBareObjectSpan(content); ok {
			return reasoning, sql, true
		}

		if json.Valid([]byte(strings.TrimSpace(content))) {
			continue
		}

		return "", content, true
	}
	return "", "", false
}

// Strategy 6: the first statement span ending in a semicolon, with no
// reasoning. Mutating statements are extracted too; refusing them is the
// safety gate's job, and it needs the SQL to do it.
func attemptFirstStatement(raw string) (string, string, bool) {
	stmt := firstStmtRe.FindString(raw)
	if stmt == "" {
		return "", "", false
	}
	return "", stmt, true
}

// Strategy 7: regex-match the quoted field values anywhere in the text.
// Each field may be salvaged independently of the other.
func attemptFieldSalvage(raw string) (string, string, bool) {
	reasoning, okReasoning := salvageQuoted(reasoningFieldRe, raw)
	sql, okSQL := salvageQuoted(sqlFieldRe, raw)
	if !okReasoning && !okSQL {
		return "", "", false
	}
	return reasoning, sql, true
}

func salvageQuoted(re *regexp.Regexp, raw string) (string, bool) {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	var value string
	if err := json.Unmarshal([]byte(m[1]), &value); err != nil {
		return "", false
	}
	return value, true
}

// normalizeSQL applies the post-extraction cleanup shared by every strategy:
// drop a leading bare-word marker, remove all fence delimiters, trim, and
// reject anything shorter than minSQLLength.
func normalizeSQL(sql string) string {
	sql = strings.TrimSpace(sql)

	if m := leadingMarkerRe.FindString(sql); m != "" {
		word := strings.ToLower(strings.TrimSpace(m))
		// never strip a statement starter that happens to sit alone on
		// the first line
		if word != "select" && word != "with" {
			sql = sql[len(m):]
		}
	}

	sql = fenceDelimRe.ReplaceAllString(sql, "")
	sql = strings.TrimSpace(sql)

	if len(sql) < minSQLLength {
		return ""
	}
	return sql
}
