package db

import (
	"fmt"
	"strconv"
	"strings"
)

// QueryBuilder assembles a RediSearch DIALECT 2 query from intersected clauses.
type QueryBuilder struct {
	clauses []string
}

// NewQuery starts an empty query; an empty query matches every indexed document.
func NewQuery() *QueryBuilder {
	return &QueryBuilder{}
}

// Tag adds @field:{v1 | v2 ...}. No values adds nothing.
func (q *QueryBuilder) Tag(field string, values ...string) *QueryBuilder {
	if c := tagClause(field, values); c != "" {
		q.clauses = append(q.clauses, c)
	}
	return q
}

// NotTag adds -@field:{v1 | v2 ...}.
func (q *QueryBuilder) NotTag(field string, values ...string) *QueryBuilder {
	if c := tagClause(field, values); c != "" {
		q.clauses = append(q.clauses, "-"+c)
	}
	return q
}

// Range adds an inclusive numeric range; nil bounds are open.
func (q *QueryBuilder) Range(field string, lo, hi *int64) *QueryBuilder {
	if lo == nil && hi == nil {
		return q
	}
	minBound, maxBound := "-inf", "+inf"
	if lo != nil {
		minBound = strconv.FormatInt(*lo, 10)
	}
	if hi != nil {
		maxBound = strconv.FormatInt(*hi, 10)
	}
	q.clauses = append(q.clauses, fmt.Sprintf("@%s:[%s %s]", field, minBound, maxBound))
	return q
}

// AnyTerm adds @f1|f2:(t1|t2 ...), matching documents containing at least one term
// in at least one field. No terms adds nothing.
func (q *QueryBuilder) AnyTerm(fields []string, terms []string) *QueryBuilder {
	if len(terms) == 0 || len(fields) == 0 {
		return q
	}
	escaped := make([]string, len(terms))
	for i, t := range terms {
		escaped[i] = EscapeQuery(t)
	}
	q.clauses = append(q.clauses, fmt.Sprintf("@%s:(%s)", strings.Join(fields, "|"), strings.Join(escaped, "|")))
	return q
}

// String renders the query; "*" when no clause was added.
func (q *QueryBuilder) String() string {
	if len(q.clauses) == 0 {
		return "*"
	}
	return strings.Join(q.clauses, " ")
}

func tagClause(field string, values []string) string {
	if len(values) == 0 {
		return ""
	}
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = EscapeTag(v)
	}
	return fmt.Sprintf("@%s:{%s}", field, strings.Join(escaped, " | "))
}

// EscapeTag escapes a value for use inside a TAG {...} clause.
func EscapeTag(s string) string { return tagEscaper.Replace(s) }

// EscapeQuery escapes a term for use in a text clause.
func EscapeQuery(s string) string { return queryEscaper.Replace(s) }

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"|", "\\|",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"/", "\\/",
	" ", "\\ ",
)

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`.`, `\.`,
	`,`, `\,`,
	`:`, `\:`,
)
