package animals

import (
	"context"
	"strings"
)

// Column es una columna de la tabla mostrada: atributo + etiqueta.
type Column struct {
	Field Field
	Label string
}

// Columns define el orden fijo de la tabla y sus etiquetas.
var Columns = []Column{
	{FieldID, "ID"},
	{FieldName, "Name"},
	{FieldSpecies, "Species"},
	{FieldBreed, "Breed"},
	{FieldSex, "Sex"},
	{FieldAge, "Age"},
	{FieldColor, "Color"},
	{FieldLocation, "Location"},
	{FieldShelterCode, "Shelter Code"},
	{FieldChipNumber, "Chip Number"},
	{FieldIntakeReason, "Intake Reason"},
	{FieldIntakeDate, "Intake Date"},
	{FieldMovementType, "Movement Type"},
	{FieldMovementDate, "Movement Date"},
	{FieldReturnedReason, "Return Reason"},
	{FieldDeceasedReason, "Deceased Reason"},
	{FieldDiedOffShelter, "Off Shelter Death"},
	{FieldIsTransfer, "Transfer"},
	{FieldIsTrial, "Trial"},
	{FieldPutToSleep, "Euthanasia"},
	{FieldIsDOA, "DOA"},
}

// LookupColumn acepta la etiqueta ("Intake Reason") o el atributo ("intakereason"),
// sin distinguir mayúsculas.
func LookupColumn(name string) (Column, bool) {
	name = strings.TrimSpace(name)
	for _, c := range Columns {
		if strings.EqualFold(c.Label, name) || strings.EqualFold(string(c.Field), name) {
			return c, true
		}
	}
	return Column{}, false
}

// Labels devuelve las etiquetas en orden.
func Labels() []string {
	out := make([]string, 0, len(Columns))
	for _, c := range Columns {
		out = append(out, c.Label)
	}
	return out
}

// Row es una fila de la tabla. Index es 1-based y no tiene relación con el id.
type Row struct {
	Index  int
	Record Record
}

// Values devuelve los valores de la fila en el orden de Columns.
func (r Row) Values() []string {
	out := make([]string, 0, len(Columns))
	for _, c := range Columns {
		out = append(out, r.Record.Text(c.Field))
	}
	return out
}

// Snapshot es la tabla completa en memoria, en el orden del scan.
type Snapshot struct {
	Rows []Row
}

func NewSnapshot(records []Record) Snapshot {
	rows := make([]Row, 0, len(records))
	for i, r := range records {
		rows = append(rows, Row{Index: i + 1, Record: r})
	}
	return Snapshot{Rows: rows}
}

func (s Snapshot) Len() int { return len(s.Rows) }

// BuildSnapshot hace el scan completo y arma la tabla.
// Los atributos ausentes quedan en su valor cero; un item sin id válido
// falla en el adapter con ErrMalformedRecord, nunca se descarta en silencio.
func BuildSnapshot(ctx context.Context, repo Repository) (Snapshot, error) {
	records, err := ScanAll(ctx, repo)
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(records), nil
}
