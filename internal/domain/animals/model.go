package animals

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout es el formato ISO-8601 con el que se guardan intakedate/movementdate.
const DateLayout = "2006-01-02"

// Field es el nombre del atributo tal como se guarda en la tabla.
type Field string

const (
	FieldID             Field = "id"
	FieldName           Field = "animalname"
	FieldSpecies        Field = "speciesname"
	FieldBreed          Field = "breedname"
	FieldSex            Field = "sexname"
	FieldAge            Field = "animalage"
	FieldColor          Field = "basecolour"
	FieldLocation       Field = "location"
	FieldShelterCode    Field = "sheltercode"
	FieldChipNumber     Field = "identichipnumber"
	FieldIntakeReason   Field = "intakereason"
	FieldIntakeDate     Field = "intakedate"
	FieldMovementType   Field = "movementtype"
	FieldMovementDate   Field = "movementdate"
	FieldReturnedReason Field = "returnedreason"
	FieldDeceasedReason Field = "deceasedreason"
	FieldDiedOffShelter Field = "diedoffshelter"
	FieldIsTransfer     Field = "istransfer"
	FieldIsTrial        Field = "istrial"
	FieldPutToSleep     Field = "puttosleep"
	FieldIsDOA          Field = "isdoa"
)

// Flag guarda los indicadores tipo booleano tal como vienen de la tabla.
// No se normaliza a bool: los datos históricos traen valores libres y se
// devuelven sin tocar.
type Flag string

// Record es una ficha de ingreso de un animal al refugio.
type Record struct {
	ID int64

	Name    string
	Species string
	Breed   string
	Sex     string
	Age     decimal.Decimal
	Color   string

	Location     string
	ShelterCode  string
	ChipNumber   string
	IntakeReason string
	IntakeDate   string // YYYY-MM-DD

	MovementType   string
	MovementDate   string // YYYY-MM-DD
	ReturnedReason string
	DeceasedReason string

	DiedOffShelter Flag
	IsTransfer     Flag
	IsTrial        Flag
	PutToSleep     Flag
	IsDOA          Flag
}

// EditableFields son los campos del formulario de actualización, en orden.
var EditableFields = []Field{
	FieldName, FieldSpecies, FieldBreed, FieldSex, FieldAge, FieldColor,
	FieldLocation, FieldShelterCode, FieldChipNumber, FieldIntakeReason,
	FieldIntakeDate, FieldMovementType, FieldMovementDate, FieldReturnedReason,
	FieldDeceasedReason, FieldDiedOffShelter, FieldIsTransfer, FieldIsTrial,
	FieldPutToSleep, FieldIsDOA,
}

// Value devuelve el valor tipado de un campo: int64 para id,
// decimal.Decimal para la edad y string para el resto.
func (r Record) Value(f Field) (any, bool) {
	switch f {
	case FieldID:
		return r.ID, true
	case FieldAge:
		return r.Age, true
	}
	p := r.textField(f)
	if p == nil {
		return nil, false
	}
	return *p, true
}

// Text devuelve la representación en texto de un campo (la que se muestra y se busca).
func (r Record) Text(f Field) string {
	switch f {
	case FieldID:
		return strconv.FormatInt(r.ID, 10)
	case FieldAge:
		return r.Age.String()
	}
	if p := r.textField(f); p != nil {
		return *p
	}
	return ""
}

// With devuelve una copia del record con los cambios aplicados.
func (r Record) With(changes Changes) (Record, error) {
	out := r
	for _, c := range changes {
		if err := out.set(c.Field, c.Value); err != nil {
			return Record{}, err
		}
	}
	return out, nil
}

func (r *Record) set(f Field, v any) error {
	switch f {
	case FieldID:
		return fmt.Errorf("%w: id cannot be changed", ErrValidation)
	case FieldAge:
		d, ok := v.(decimal.Decimal)
		if !ok {
			return fmt.Errorf("%w: %s must be a decimal", ErrValidation, f)
		}
		r.Age = d
		return nil
	}

	p := r.mutableTextField(f)
	if p == nil {
		return fmt.Errorf("%w: unknown field %q", ErrValidation, f)
	}
	switch s := v.(type) {
	case string:
		*p = s
	case Flag:
		*p = string(s)
	default:
		return fmt.Errorf("%w: %s must be a string", ErrValidation, f)
	}
	return nil
}

func (r Record) textField(f Field) *string {
	return (&r).mutableTextField(f)
}

func (r *Record) mutableTextField(f Field) *string {
	switch f {
	case FieldName:
		return &r.Name
	case FieldSpecies:
		return &r.Species
	case FieldBreed:
		return &r.Breed
	case FieldSex:
		return &r.Sex
	case FieldColor:
		return &r.Color
	case FieldLocation:
		return &r.Location
	case FieldShelterCode:
		return &r.ShelterCode
	case FieldChipNumber:
		return &r.ChipNumber
	case FieldIntakeReason:
		return &r.IntakeReason
	case FieldIntakeDate:
		return &r.IntakeDate
	case FieldMovementType:
		return &r.MovementType
	case FieldMovementDate:
		return &r.MovementDate
	case FieldReturnedReason:
		return &r.ReturnedReason
	case FieldDeceasedReason:
		return &r.DeceasedReason
	case FieldDiedOffShelter:
		return (*string)(&r.DiedOffShelter)
	case FieldIsTransfer:
		return (*string)(&r.IsTransfer)
	case FieldIsTrial:
		return (*string)(&r.IsTrial)
	case FieldPutToSleep:
		return (*string)(&r.PutToSleep)
	case FieldIsDOA:
		return (*string)(&r.IsDOA)
	}
	return nil
}

// Change es un campo modificado y su nuevo valor (string o decimal.Decimal).
type Change struct {
	Field Field
	Value any
}

// Changes es el diff que se manda en un update parcial. Mantiene el orden
// de EditableFields para que la expresión generada sea estable.
type Changes []Change

func (c Changes) Fields() []Field {
	out := make([]Field, 0, len(c))
	for _, ch := range c {
		out = append(out, ch.Field)
	}
	return out
}

// Diff compara por valor el record cargado con el enviado y devuelve
// solo los campos que cambiaron.
func Diff(loaded, submitted Record) Changes {
	out := make(Changes, 0)
	for _, f := range EditableFields {
		if f == FieldAge {
			if !loaded.Age.Equal(submitted.Age) {
				out = append(out, Change{Field: f, Value: submitted.Age})
			}
			continue
		}
		before, after := loaded.Text(f), submitted.Text(f)
		if before != after {
			out = append(out, Change{Field: f, Value: after})
		}
	}
	return out
}

// ParseAge convierte la edad ingresada a decimal exacto con un decimal de precisión.
func ParseAge(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: age must be a number", ErrValidation)
	}
	return NormalizeAge(d)
}

// NormalizeAge valida que la edad no sea negativa y la redondea a un decimal.
func NormalizeAge(d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: age must be >= 0", ErrValidation)
	}
	return d.Round(1), nil
}

// NormalizeDate valida una fecha YYYY-MM-DD. Vacío se mantiene vacío.
func NormalizeDate(f Field, raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrValidation, f)
	}
	return t.Format(DateLayout), nil
}
