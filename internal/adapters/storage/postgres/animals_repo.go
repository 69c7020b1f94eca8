package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"companion-connect/internal/domain/animals"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DefaultPageSize es el LIMIT de cada página del scan por keyset.
const DefaultPageSize = 100

// La tabla usa los mismos nombres de atributo que la tabla administrada.
const schemaAnimals = `
CREATE TABLE IF NOT EXISTS animals (
	id               BIGINT PRIMARY KEY,
	animalname       TEXT NOT NULL DEFAULT '',
	speciesname      TEXT NOT NULL DEFAULT '',
	breedname        TEXT NOT NULL DEFAULT '',
	sexname          TEXT NOT NULL DEFAULT '',
	animalage        NUMERIC NOT NULL DEFAULT 0,
	basecolour       TEXT NOT NULL DEFAULT '',
	location         TEXT NOT NULL DEFAULT '',
	sheltercode      TEXT NOT NULL DEFAULT '',
	identichipnumber TEXT NOT NULL DEFAULT '',
	intakereason     TEXT NOT NULL DEFAULT '',
	intakedate       TEXT NOT NULL DEFAULT '',
	movementtype     TEXT NOT NULL DEFAULT '',
	movementdate     TEXT NOT NULL DEFAULT '',
	returnedreason   TEXT NOT NULL DEFAULT '',
	deceasedreason   TEXT NOT NULL DEFAULT '',
	diedoffshelter   TEXT NOT NULL DEFAULT '',
	istransfer       TEXT NOT NULL DEFAULT '',
	istrial          TEXT NOT NULL DEFAULT '',
	puttosleep       TEXT NOT NULL DEFAULT '',
	isdoa            TEXT NOT NULL DEFAULT ''
)`

// allColumns respeta el orden de animals.Columns.
var allColumns = func() []animals.Field {
	out := make([]animals.Field, 0, len(animals.Columns))
	for _, c := range animals.Columns {
		out = append(out, c.Field)
	}
	return out
}()

type AnimalsRepo struct {
	db       *sql.DB
	pageSize int
}

func NewAnimalsRepo(db *sql.DB, pageSize int) *AnimalsRepo {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &AnimalsRepo{db: db, pageSize: pageSize}
}

// EnsureSchema crea la tabla si no existe.
func (r *AnimalsRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaAnimals); err != nil {
		return classify(animals.ErrStoreUnavailable, err)
	}
	return nil
}

// Scan pagina por id ascendente (keyset). El token es el último id de la página.
func (r *AnimalsRepo) Scan(ctx context.Context, req animals.ScanRequest) (animals.Page, error) {
	var after int64
	if req.Token != "" {
		v, err := strconv.ParseInt(req.Token, 10, 64)
		if err != nil {
			return animals.Page{}, animals.Unavailable(fmt.Errorf("invalid continuation token %q", req.Token))
		}
		after = v
	}

	cols, err := selectColumns(req.Fields)
	if err != nil {
		return animals.Page{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+joinColumns(cols)+`
		FROM animals
		WHERE id > $1
		ORDER BY id ASC
		LIMIT $2
	`, after, r.pageSize)
	if err != nil {
		return animals.Page{}, classify(animals.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	page := animals.Page{Records: make([]animals.Record, 0)}
	for rows.Next() {
		rec, err := scanRecord(rows, cols)
		if err != nil {
			return animals.Page{}, scanError(animals.ErrStoreUnavailable, err)
		}
		page.Records = append(page.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return animals.Page{}, classify(animals.ErrStoreUnavailable, err)
	}

	if len(page.Records) == r.pageSize {
		page.Next = strconv.FormatInt(page.Records[len(page.Records)-1].ID, 10)
	}
	return page, nil
}

func (r *AnimalsRepo) Get(ctx context.Context, id int64) (animals.Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+joinColumns(allColumns)+`
		FROM animals
		WHERE id = $1
	`, id)

	rec, err := scanRecord(row, allColumns)
	if err != nil {
		return animals.Record{}, scanError(animals.ErrStoreUnavailable, err)
	}
	return rec, nil
}

// Put inserta o pisa la fila completa.
func (r *AnimalsRepo) Put(ctx context.Context, rec animals.Record) error {
	if rec.ID <= 0 {
		return animals.Rejected(animals.ErrWriteRejected, "id must be a positive integer")
	}

	args := make([]any, 0, len(allColumns))
	placeholders := make([]string, 0, len(allColumns))
	sets := make([]string, 0, len(allColumns)-1)
	for i, f := range allColumns {
		v, _ := rec.Value(f)
		args = append(args, v)
		placeholders = append(placeholders, "$"+strconv.Itoa(i+1))
		if f != animals.FieldID {
			sets = append(sets, string(f)+" = EXCLUDED."+string(f))
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO animals (`+joinColumns(allColumns)+`)
		VALUES (`+strings.Join(placeholders, ",")+`)
		ON CONFLICT (id) DO UPDATE SET `+strings.Join(sets, ", "), args...)
	if err != nil {
		return classify(animals.ErrWriteRejected, err)
	}
	return nil
}

// Update setea solo las columnas cambiadas y devuelve lo que quedó guardado.
func (r *AnimalsRepo) Update(ctx context.Context, id int64, changes animals.Changes) (animals.Changes, error) {
	if len(changes) == 0 {
		return nil, nil
	}

	fields := changes.Fields()
	if _, err := selectColumns(fields); err != nil {
		return nil, animals.Rejected(animals.ErrUpdateRejected, err.Error())
	}

	args := []any{id}
	sets := make([]string, 0, len(changes))
	for _, c := range changes {
		if c.Field == animals.FieldID {
			return nil, animals.Rejected(animals.ErrUpdateRejected, "id cannot be changed")
		}
		v := c.Value
		if f, ok := v.(animals.Flag); ok {
			v = string(f)
		}
		args = append(args, v)
		sets = append(sets, string(c.Field)+" = $"+strconv.Itoa(len(args)))
	}

	returning := append([]animals.Field{animals.FieldID}, fields...)
	row := r.db.QueryRowContext(ctx, `
		UPDATE animals
		SET `+strings.Join(sets, ", ")+`
		WHERE id = $1
		RETURNING `+joinColumns(returning), args...)

	rec, err := scanRecord(row, returning)
	if err != nil {
		return nil, scanError(animals.ErrUpdateRejected, err)
	}

	out := make(animals.Changes, 0, len(fields))
	for _, f := range fields {
		v, _ := rec.Value(f)
		out = append(out, animals.Change{Field: f, Value: v})
	}
	return out, nil
}

func (r *AnimalsRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM animals WHERE id = $1`, id); err != nil {
		return classify(animals.ErrDeleteRejected, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRecord lee las columnas pedidas. Los NULL quedan en el valor cero.
func scanRecord(s scanner, cols []animals.Field) (animals.Record, error) {
	var id sql.NullInt64
	var age decimal.NullDecimal
	texts := make(map[animals.Field]*sql.NullString, len(cols))

	dest := make([]any, 0, len(cols))
	for _, f := range cols {
		switch f {
		case animals.FieldID:
			dest = append(dest, &id)
		case animals.FieldAge:
			dest = append(dest, &age)
		default:
			ns := &sql.NullString{}
			texts[f] = ns
			dest = append(dest, ns)
		}
	}

	if err := s.Scan(dest...); err != nil {
		return animals.Record{}, err
	}
	if !id.Valid || id.Int64 <= 0 {
		return animals.Record{}, fmt.Errorf("%w: missing or invalid id", animals.ErrMalformedRecord)
	}

	changes := make(animals.Changes, 0, len(cols))
	for _, f := range cols {
		switch f {
		case animals.FieldID:
		case animals.FieldAge:
			if age.Valid {
				changes = append(changes, animals.Change{Field: f, Value: age.Decimal})
			}
		default:
			changes = append(changes, animals.Change{Field: f, Value: texts[f].String})
		}
	}
	rec, err := animals.Record{ID: id.Int64}.With(changes)
	if err != nil {
		return animals.Record{}, fmt.Errorf("%w: %v", animals.ErrMalformedRecord, err)
	}
	return rec, nil
}

// selectColumns valida los campos contra las columnas conocidas; el id
// siempre va primero. Los nombres se concatenan al SQL solo tras esta validación.
func selectColumns(fields []animals.Field) ([]animals.Field, error) {
	if len(fields) == 0 {
		return allColumns, nil
	}
	out := []animals.Field{animals.FieldID}
	for _, f := range fields {
		if f == animals.FieldID {
			continue
		}
		if !slices.Contains(allColumns, f) {
			return nil, fmt.Errorf("unknown column %q", f)
		}
		out = append(out, f)
	}
	return out, nil
}

// scanError traduce el error de una lectura: sin filas es ErrNotFound y un
// record malformado se devuelve tal cual.
func scanError(kind error, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return animals.ErrNotFound
	case errors.Is(err, animals.ErrMalformedRecord):
		return err
	}
	return classify(kind, err)
}

func joinColumns(cols []animals.Field) string {
	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ", ")
}

// classify: un error del servidor (PgError) es un rechazo con su mensaje;
// el resto (conexión, timeout) es store no disponible.
func classify(kind error, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return animals.Rejected(kind, pgErr.Message)
	}
	return animals.Unavailable(err)
}
