package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"companion-connect/internal/domain/animals"
)

// DefaultPageSize es el tamaño de página del scan en memoria. Chico a propósito
// para que la paginación se ejercite también en dev.
const DefaultPageSize = 25

type animalRepo struct {
	mu       sync.RWMutex
	byID     map[int64]animals.Record
	pageSize int
}

func NewAnimalRepo(pageSize int) animals.Repository {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &animalRepo{
		byID:     make(map[int64]animals.Record),
		pageSize: pageSize,
	}
}

// Scan recorre por id ascendente; el token es el último id devuelto.
func (r *animalRepo) Scan(ctx context.Context, req animals.ScanRequest) (animals.Page, error) {
	var after int64
	if req.Token != "" {
		v, err := strconv.ParseInt(req.Token, 10, 64)
		if err != nil {
			return animals.Page{}, animals.Unavailable(fmt.Errorf("invalid continuation token %q", req.Token))
		}
		after = v
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.byID))
	for id := range r.byID {
		if id > after {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	page := animals.Page{Records: make([]animals.Record, 0, min(len(ids), r.pageSize))}
	for _, id := range ids {
		if len(page.Records) == r.pageSize {
			page.Next = strconv.FormatInt(page.Records[len(page.Records)-1].ID, 10)
			break
		}
		rec, err := project(r.byID[id], req.Fields)
		if err != nil {
			return animals.Page{}, err
		}
		page.Records = append(page.Records, rec)
	}
	return page, nil
}

func (r *animalRepo) Get(ctx context.Context, id int64) (animals.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return animals.Record{}, animals.ErrNotFound
	}
	return rec, nil
}

func (r *animalRepo) Put(ctx context.Context, rec animals.Record) error {
	if rec.ID <= 0 {
		return animals.Rejected(animals.ErrWriteRejected, "id must be a positive integer")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[rec.ID] = rec
	return nil
}

func (r *animalRepo) Update(ctx context.Context, id int64, changes animals.Changes) (animals.Changes, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil, animals.ErrNotFound
	}
	updated, err := rec.With(changes)
	if err != nil {
		return nil, animals.Rejected(animals.ErrUpdateRejected, err.Error())
	}
	r.byID[id] = updated
	return changes, nil
}

func (r *animalRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byID, id)
	return nil
}

// project deja solo los campos pedidos (el id siempre viaja).
func project(rec animals.Record, fields []animals.Field) (animals.Record, error) {
	if len(fields) == 0 {
		return rec, nil
	}
	changes := make(animals.Changes, 0, len(fields))
	for _, f := range fields {
		if f == animals.FieldID {
			continue
		}
		v, ok := rec.Value(f)
		if !ok {
			return animals.Record{}, errors.New("unknown projection field " + string(f))
		}
		changes = append(changes, animals.Change{Field: f, Value: v})
	}
	return animals.Record{ID: rec.ID}.With(changes)
}
