package dynamo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"companion-connect/internal/domain/animals"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// API es el subconjunto de *dynamodb.Client que usa el repo.
type API interface {
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

type AnimalsRepo struct {
	api      API
	table    string
	pageSize int32
}

func NewAnimalsRepo(api API, table string, pageSize int32) *AnimalsRepo {
	return &AnimalsRepo{api: api, table: table, pageSize: pageSize}
}

func (r *AnimalsRepo) Scan(ctx context.Context, req animals.ScanRequest) (animals.Page, error) {
	in := &dynamodb.ScanInput{TableName: aws.String(r.table)}
	if r.pageSize > 0 {
		in.Limit = aws.Int32(r.pageSize)
	}

	if req.Token != "" {
		esk, err := decodeToken(req.Token)
		if err != nil {
			return animals.Page{}, err
		}
		in.ExclusiveStartKey = esk
	}

	if len(req.Fields) > 0 {
		proj := expression.NamesList(expression.Name(string(animals.FieldID)))
		for _, f := range req.Fields {
			if f == animals.FieldID {
				continue
			}
			proj = proj.AddNames(expression.Name(string(f)))
		}
		expr, err := expression.NewBuilder().WithProjection(proj).Build()
		if err != nil {
			return animals.Page{}, fmt.Errorf("dynamodb: build projection: %w", err)
		}
		in.ProjectionExpression = expr.Projection()
		in.ExpressionAttributeNames = expr.Names()
	}

	out, err := r.api.Scan(ctx, in)
	if err != nil {
		return animals.Page{}, classify(animals.ErrStoreUnavailable, err)
	}

	page := animals.Page{Records: make([]animals.Record, 0, len(out.Items))}
	for _, it := range out.Items {
		rec, err := fromItem(it)
		if err != nil {
			return animals.Page{}, err
		}
		page.Records = append(page.Records, rec)
	}

	if len(out.LastEvaluatedKey) > 0 {
		tok, err := encodeToken(out.LastEvaluatedKey)
		if err != nil {
			return animals.Page{}, err
		}
		page.Next = tok
	}
	return page, nil
}

func (r *AnimalsRepo) Get(ctx context.Context, id int64) (animals.Record, error) {
	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            keyOf(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return animals.Record{}, classify(animals.ErrStoreUnavailable, err)
	}
	if len(out.Item) == 0 {
		return animals.Record{}, animals.ErrNotFound
	}
	return fromItem(out.Item)
}

// Put inserta o pisa el item completo. La edad viaja como N (decimal exacto).
func (r *AnimalsRepo) Put(ctx context.Context, rec animals.Record) error {
	if rec.ID <= 0 {
		return animals.Rejected(animals.ErrWriteRejected, "id must be a positive integer")
	}
	av, err := attributevalue.MarshalMap(toItem(rec))
	if err != nil {
		return animals.Rejected(animals.ErrWriteRejected, err.Error())
	}

	if _, err := r.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      av,
	}); err != nil {
		return classify(animals.ErrWriteRejected, err)
	}
	return nil
}

// Update arma un SET con los campos cambiados. La condición attribute_exists
// evita que un update sobre un id borrado cree un item a medias.
func (r *AnimalsRepo) Update(ctx context.Context, id int64, changes animals.Changes) (animals.Changes, error) {
	if len(changes) == 0 {
		return nil, nil
	}

	var upd expression.UpdateBuilder
	for i, c := range changes {
		v, err := toAttr(c)
		if err != nil {
			return nil, animals.Rejected(animals.ErrUpdateRejected, err.Error())
		}
		if i == 0 {
			upd = expression.Set(expression.Name(string(c.Field)), expression.Value(v))
			continue
		}
		upd = upd.Set(expression.Name(string(c.Field)), expression.Value(v))
	}
	cond := expression.AttributeExists(expression.Name(string(animals.FieldID)))

	expr, err := expression.NewBuilder().WithUpdate(upd).WithCondition(cond).Build()
	if err != nil {
		return nil, animals.Rejected(animals.ErrUpdateRejected, err.Error())
	}

	out, err := r.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       keyOf(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, animals.ErrNotFound
		}
		return nil, classify(animals.ErrUpdateRejected, err)
	}

	return confirmedChanges(id, changes, out.Attributes)
}

// Delete borra por id. Un status distinto de 200 sin error se informa como
// ErrDeleteRejected con MsgDeleteNotAcknowledged.
func (r *AnimalsRepo) Delete(ctx context.Context, id int64) error {
	out, err := r.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       keyOf(id),
	})
	if err != nil {
		return classify(animals.ErrDeleteRejected, err)
	}
	if raw, ok := awsmiddleware.GetRawResponse(out.ResultMetadata).(*smithyhttp.Response); ok && raw != nil {
		if raw.StatusCode != http.StatusOK {
			return animals.Rejected(animals.ErrDeleteRejected, animals.MsgDeleteNotAcknowledged)
		}
	}
	return nil
}

// confirmedChanges arma el diff con los valores que devolvió UPDATED_NEW.
// Si la respuesta no trae atributos se asume lo enviado.
func confirmedChanges(id int64, sent animals.Changes, attrs map[string]types.AttributeValue) (animals.Changes, error) {
	if len(attrs) == 0 {
		return sent, nil
	}
	withKey := make(map[string]types.AttributeValue, len(attrs)+1)
	for k, v := range attrs {
		withKey[k] = v
	}
	withKey[string(animals.FieldID)] = keyOf(id)[string(animals.FieldID)]

	rec, err := fromItem(withKey)
	if err != nil {
		return nil, err
	}

	out := make(animals.Changes, 0, len(sent))
	for _, c := range sent {
		if _, ok := attrs[string(c.Field)]; !ok {
			out = append(out, c)
			continue
		}
		v, _ := rec.Value(c.Field)
		out = append(out, animals.Change{Field: c.Field, Value: v})
	}
	return out, nil
}

// classify separa errores de la API (la tabla rechazó la operación) de
// errores de transporte (la tabla no está disponible).
func classify(kind error, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.ErrorMessage()
		if msg == "" {
			msg = apiErr.ErrorCode()
		}
		return animals.Rejected(kind, msg)
	}
	return animals.Unavailable(err)
}

func keyOf(id int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		string(animals.FieldID): &types.AttributeValueMemberN{Value: strconv.FormatInt(id, 10)},
	}
}

// El token de continuación es el id del LastEvaluatedKey (la clave es solo id).
func encodeToken(lek map[string]types.AttributeValue) (string, error) {
	var k struct {
		ID int64 `dynamodbav:"id"`
	}
	if err := attributevalue.UnmarshalMap(lek, &k); err != nil {
		return "", animals.Unavailable(fmt.Errorf("decode last evaluated key: %w", err))
	}
	return strconv.FormatInt(k.ID, 10), nil
}

func decodeToken(tok string) (map[string]types.AttributeValue, error) {
	id, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return nil, animals.Unavailable(fmt.Errorf("invalid continuation token %q", tok))
	}
	return keyOf(id), nil
}
