package editor

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/joacominatel/sitewisedb/internal/diag"
)

type tokenKind int

const (
	tokWord tokenKind = iota
	tokNumber
	tokString  // 'text'
	tokIdent   // "quoted identifier"
	tokComment // -- to end of line
	tokSpace
	tokSymbol
)

type token struct {
	kind tokenKind
	text string
}

// lex splits a statement into tokens. Unterminated literals run to the end
// of the input so a query being typed still lexes.
func lex(s string) []token {
	var toks []token
	rs := []rune(s)
	for i := 0; i < len(rs); {
		start := i
		r := rs[i]
		var kind tokenKind
		switch {
		case unicode.IsSpace(r):
			kind = tokSpace
			for i < len(rs) && unicode.IsSpace(rs[i]) {
				i++
			}
		case r == '-' && i+1 < len(rs) && rs[i+1] == '-':
			kind = tokComment
			for i < len(rs) && rs[i] != '\n' {
				i++
			}
		case r == '\'' || r == '"':
			kind = tokString
			if r == '"' {
				kind = tokIdent
			}
			i++
			for i < len(rs) {
				if rs[i] == r {
					// A doubled quote stays inside the literal.
					if i+1 < len(rs) && rs[i+1] == r {
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
		case unicode.IsLetter(r) || r == '_':
			kind = tokWord
			for i < len(rs) && (unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i]) || rs[i] == '_') {
				i++
			}
		case unicode.IsDigit(r):
			kind = tokNumber
			for i < len(rs) && (unicode.IsDigit(rs[i]) || rs[i] == '.') {
				i++
			}
		default:
			kind = tokSymbol
			i++
		}
		toks = append(toks, token{kind: kind, text: string(rs[start:i])})
	}
	return toks
}

func (t token) is(keyword string) bool {
	return t.kind == tokWord && strings.EqualFold(t.text, keyword)
}

func (t token) isKeyword() bool {
	return t.kind == tokWord && sqlKeywords[strings.ToLower(t.text)]
}

// name returns the identifier a word or quoted identifier token denotes.
func (t token) name() (string, bool) {
	switch t.kind {
	case tokWord:
		return t.text, true
	case tokIdent:
		s := strings.TrimPrefix(t.text, `"`)
		s = strings.TrimSuffix(s, `"`)
		return strings.ReplaceAll(s, `""`, `"`), true
	}
	return "", false
}

// significant drops whitespace and comments.
func significant(toks []token) []token {
	out := make([]token, 0, len(toks))
	for _, t := range toks {
		if t.kind != tokSpace && t.kind != tokComment {
			out = append(out, t)
		}
	}
	return out
}

// tableRef is a table named in a FROM or JOIN clause.
type tableRef struct {
	table string
	alias string
}

// referencedTables lists the tables a statement reads, with their aliases.
func referencedTables(toks []token) []tableRef {
	sig := significant(toks)
	var refs []tableRef
	for i := 0; i < len(sig); i++ {
		if !sig[i].is("from") && !sig[i].is("join") {
			continue
		}
		for j := i + 1; j < len(sig); {
			name, ok := sig[j].name()
			if !ok || sig[j].isKeyword() {
				break
			}
			ref := tableRef{table: name}
			j++
			if j < len(sig) && sig[j].is("as") {
				j++
			}
			if j < len(sig) && sig[j].kind == tokWord && !sig[j].isKeyword() {
				ref.alias = sig[j].text
				j++
			}
			refs = append(refs, ref)
			if j >= len(sig) || sig[j].text != "," {
				break
			}
			j++
		}
	}
	return refs
}

// resolveQualifier maps an alias or table name used before a dot to a table.
func resolveQualifier(qualifier string, refs []tableRef) string {
	for _, r := range refs {
		if strings.EqualFold(r.alias, qualifier) || strings.EqualFold(r.table, qualifier) {
			return r.table
		}
	}
	return qualifier
}

// writeStatements start statements the backend cannot run.
var writeStatements = map[string]bool{
	"insert": true, "update": true, "delete": true, "merge": true,
	"upsert": true, "replace": true, "create": true, "drop": true,
	"alter": true, "truncate": true, "grant": true, "revoke": true,
	"copy": true, "call": true, "begin": true, "commit": true,
	"rollback": true,
}

// readOnlyViolation reports the first statement in sql that is not a query,
// formatted as a status line.
func readOnlyViolation(sql string) (string, bool) {
	leading := true
	for _, t := range significant(lex(sql)) {
		if t.text == ";" {
			leading = true
			continue
		}
		if !leading || t.text == "(" {
			continue
		}
		leading = false
		if t.kind == tokWord && writeStatements[strings.ToLower(t.text)] {
			return fmt.Sprintf("%s: %s is not supported. IoT SiteWise only answers queries.",
				diag.GeneralWarning, strings.ToUpper(t.text)), true
		}
	}
	return "", false
}
