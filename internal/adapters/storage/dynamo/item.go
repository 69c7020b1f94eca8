package dynamo

import (
	"fmt"
	"strconv"
	"strings"

	"companion-connect/internal/domain/animals"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

// item es la forma del registro en la tabla. Los atributos que falten en un
// item histórico quedan en su valor cero.
type item struct {
	ID int64 `dynamodbav:"id"`

	Name    textAttr `dynamodbav:"animalname"`
	Species textAttr `dynamodbav:"speciesname"`
	Breed   textAttr `dynamodbav:"breedname"`
	Sex     textAttr `dynamodbav:"sexname"`
	Age     ageAttr  `dynamodbav:"animalage"`
	Color   textAttr `dynamodbav:"basecolour"`

	Location     textAttr `dynamodbav:"location"`
	ShelterCode  textAttr `dynamodbav:"sheltercode"`
	ChipNumber   textAttr `dynamodbav:"identichipnumber"`
	IntakeReason textAttr `dynamodbav:"intakereason"`
	IntakeDate   textAttr `dynamodbav:"intakedate"`

	MovementType   textAttr `dynamodbav:"movementtype"`
	MovementDate   textAttr `dynamodbav:"movementdate"`
	ReturnedReason textAttr `dynamodbav:"returnedreason"`
	DeceasedReason textAttr `dynamodbav:"deceasedreason"`

	DiedOffShelter textAttr `dynamodbav:"diedoffshelter"`
	IsTransfer     textAttr `dynamodbav:"istransfer"`
	IsTrial        textAttr `dynamodbav:"istrial"`
	PutToSleep     textAttr `dynamodbav:"puttosleep"`
	IsDOA          textAttr `dynamodbav:"isdoa"`
}

func toItem(r animals.Record) item {
	return item{
		ID:             r.ID,
		Name:           textAttr(r.Name),
		Species:        textAttr(r.Species),
		Breed:          textAttr(r.Breed),
		Sex:            textAttr(r.Sex),
		Age:            ageAttr{r.Age},
		Color:          textAttr(r.Color),
		Location:       textAttr(r.Location),
		ShelterCode:    textAttr(r.ShelterCode),
		ChipNumber:     textAttr(r.ChipNumber),
		IntakeReason:   textAttr(r.IntakeReason),
		IntakeDate:     textAttr(r.IntakeDate),
		MovementType:   textAttr(r.MovementType),
		MovementDate:   textAttr(r.MovementDate),
		ReturnedReason: textAttr(r.ReturnedReason),
		DeceasedReason: textAttr(r.DeceasedReason),
		DiedOffShelter: textAttr(r.DiedOffShelter),
		IsTransfer:     textAttr(r.IsTransfer),
		IsTrial:        textAttr(r.IsTrial),
		PutToSleep:     textAttr(r.PutToSleep),
		IsDOA:          textAttr(r.IsDOA),
	}
}

// fromItem decodifica un item. Un id faltante o no numérico es ErrMalformedRecord.
func fromItem(av map[string]types.AttributeValue) (animals.Record, error) {
	var it item
	if err := attributevalue.UnmarshalMap(av, &it); err != nil {
		return animals.Record{}, fmt.Errorf("%w: %v", animals.ErrMalformedRecord, err)
	}
	if it.ID <= 0 {
		return animals.Record{}, fmt.Errorf("%w: missing or invalid id", animals.ErrMalformedRecord)
	}
	return animals.Record{
		ID:             it.ID,
		Name:           string(it.Name),
		Species:        string(it.Species),
		Breed:          string(it.Breed),
		Sex:            string(it.Sex),
		Age:            it.Age.Decimal,
		Color:          string(it.Color),
		Location:       string(it.Location),
		ShelterCode:    string(it.ShelterCode),
		ChipNumber:     string(it.ChipNumber),
		IntakeReason:   string(it.IntakeReason),
		IntakeDate:     string(it.IntakeDate),
		MovementType:   string(it.MovementType),
		MovementDate:   string(it.MovementDate),
		ReturnedReason: string(it.ReturnedReason),
		DeceasedReason: string(it.DeceasedReason),
		DiedOffShelter: animals.Flag(it.DiedOffShelter),
		IsTransfer:     animals.Flag(it.IsTransfer),
		IsTrial:        animals.Flag(it.IsTrial),
		PutToSleep:     animals.Flag(it.PutToSleep),
		IsDOA:          animals.Flag(it.IsDOA),
	}, nil
}

// toAttr convierte el valor de un Change al tipo que se serializa.
func toAttr(c animals.Change) (any, error) {
	switch v := c.Value.(type) {
	case decimal.Decimal:
		return ageAttr{v}, nil
	case string:
		return textAttr(v), nil
	case animals.Flag:
		return textAttr(v), nil
	}
	return nil, fmt.Errorf("unsupported value for %s: %T", c.Field, c.Value)
}

// textAttr se guarda como S. Al leer acepta N y BOOL porque los datos
// cargados a mano traen flags y códigos con otros tipos.
type textAttr string

func (t textAttr) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberS{Value: string(t)}, nil
}

func (t *textAttr) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		*t = textAttr(v.Value)
	case *types.AttributeValueMemberN:
		*t = textAttr(v.Value)
	case *types.AttributeValueMemberBOOL:
		*t = textAttr(strconv.FormatBool(v.Value))
	case *types.AttributeValueMemberNULL, nil:
		*t = ""
	default:
		return fmt.Errorf("unexpected attribute type %T for text", av)
	}
	return nil
}

// ageAttr se guarda como N para no perder precisión (2.3 vuelve como 2.3).
type ageAttr struct {
	decimal.Decimal
}

func (a ageAttr) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: a.Decimal.String()}, nil
}

func (a *ageAttr) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	var raw string
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		raw = v.Value
	case *types.AttributeValueMemberS:
		raw = strings.TrimSpace(v.Value)
	case *types.AttributeValueMemberNULL, nil:
		a.Decimal = decimal.Zero
		return nil
	default:
		return fmt.Errorf("unexpected attribute type %T for age", av)
	}
	if raw == "" {
		a.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("age %q: %w", raw, err)
	}
	a.Decimal = d
	return nil
}
