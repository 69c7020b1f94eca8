package animals

import (
	"context"
	"iter"
)

// Repository es el puerto contra la tabla administrada.
// Cada adapter (dynamodb, postgres, memory) implementa las primitivas tal cual;
// la paginación la resuelve ScanAll/Records para todos por igual.
type Repository interface {
	// Scan devuelve una página. Token vacío = desde el inicio.
	// Fields restringe los atributos devueltos (nil = todos).
	Scan(ctx context.Context, req ScanRequest) (Page, error)
	Get(ctx context.Context, id int64) (Record, error)
	Put(ctx context.Context, r Record) error
	// Update aplica solo los campos de changes y devuelve los valores que la
	// tabla confirma como actualizados. Un id inexistente es ErrNotFound.
	Update(ctx context.Context, id int64, changes Changes) (Changes, error)
	Delete(ctx context.Context, id int64) error
}

type ScanRequest struct {
	Token  string
	Fields []Field
}

// Page es una página de scan. Next vacío indica que no quedan más.
type Page struct {
	Records []Record
	Next    string
}

// Records recorre la tabla completa siguiendo los tokens de continuación.
// Es lazy: cada página se pide cuando el consumidor llega a ella, y se puede
// volver a recorrer (cada range arranca un scan nuevo).
func Records(ctx context.Context, repo Repository, fields ...Field) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		token := ""
		seen := map[string]struct{}{}
		for {
			page, err := repo.Scan(ctx, ScanRequest{Token: token, Fields: fields})
			if err != nil {
				yield(Record{}, err)
				return
			}
			for _, r := range page.Records {
				if !yield(r, nil) {
					return
				}
			}
			if page.Next == "" {
				return
			}
			// un token repetido dejaría el loop girando para siempre
			if _, dup := seen[page.Next]; dup {
				yield(Record{}, Unavailable(errLoopingToken))
				return
			}
			seen[page.Next] = struct{}{}
			token = page.Next
		}
	}
}

// ScanAll materializa la tabla completa.
func ScanAll(ctx context.Context, repo Repository, fields ...Field) ([]Record, error) {
	out := make([]Record, 0)
	for r, err := range Records(ctx, repo, fields...) {
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
