package animals

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SearchColumns son los campos del formulario de búsqueda, en orden.
var SearchColumns = []Field{FieldSpecies, FieldBreed, FieldColor, FieldAge, FieldSex, FieldIntakeReason}

type FilterStatus string

const (
	FilterNoQuery FilterStatus = "no_query"
	FilterMatched FilterStatus = "matched"
	FilterNoMatch FilterStatus = "no_match"
)

type FilterResult struct {
	Snapshot Snapshot
	Status   FilterStatus
}

// Query es el valor buscado por columna.
type Query map[Field]string

// Active devuelve la query sin los valores vacíos.
func (q Query) Active() Query {
	out := Query{}
	for f, v := range q {
		if strings.TrimSpace(v) != "" {
			out[f] = v
		}
	}
	return out
}

// ParseQuery arma una Query a partir de nombres de columna (etiqueta o atributo).
func ParseQuery(in map[string]string) (Query, error) {
	q := Query{}
	for name, v := range in {
		c, ok := LookupColumn(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown search field %q", ErrValidation, name)
		}
		q[c.Field] = v
	}
	return q, nil
}

// Filter aplica un match por palabra completa, sin distinguir mayúsculas,
// en cada columna con query no vacía (AND entre columnas).
// "cat" matchea "Cat" y "black cat" pero no "category".
// Los límites de palabra consideran letras Unicode ("Pequin" no matchea "Pequinés").
func Filter(s Snapshot, q Query) FilterResult {
	active := q.Active()
	if len(active) == 0 {
		return FilterResult{Snapshot: s, Status: FilterNoQuery}
	}

	patterns := make(map[Field]*regexp.Regexp, len(active))
	for f, v := range active {
		patterns[f] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(v))
	}

	rows := make([]Row, 0)
	for _, row := range s.Rows {
		ok := true
		for f, re := range patterns {
			if !matchWord(re, row.Record.Text(f)) {
				ok = false
				break
			}
		}
		if ok {
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		return FilterResult{Snapshot: Snapshot{Rows: rows}, Status: FilterNoMatch}
	}
	return FilterResult{Snapshot: Snapshot{Rows: rows}, Status: FilterMatched}
}

// matchWord busca re en s con la semántica de \b a ambos lados, pero con
// letras y dígitos Unicode como caracteres de palabra (\b de RE2 es solo ASCII).
// Ante un match rechazado se reintenta desde la runa siguiente para no perder
// matches solapados.
func matchWord(re *regexp.Regexp, s string) bool {
	for off := 0; off <= len(s); {
		loc := re.FindStringIndex(s[off:])
		if loc == nil {
			return false
		}
		start, end := off+loc[0], off+loc[1]
		if end > start && wordBoundary(s, start) && wordBoundary(s, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		if size == 0 {
			return false
		}
		off = start + size
	}
	return false
}

// wordBoundary indica si entre la runa anterior a i y la que empieza en i
// hay un cambio palabra/no-palabra.
func wordBoundary(s string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:i])
		before = isWordRune(r)
	}
	if i < len(s) {
		r, _ := utf8.DecodeRuneInString(s[i:])
		after = isWordRune(r)
	}
	return before != after
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
