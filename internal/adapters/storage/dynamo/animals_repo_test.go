package dynamo

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"companion-connect/internal/domain/animals"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTable imita la semántica de DynamoDB que usa el repo: scan ordenado
// por id con Limit, proyección, SET con attribute_exists y borrado idempotente.
type fakeTable struct {
	mu    sync.Mutex
	items map[int64]map[string]types.AttributeValue

	scans   int
	updates []*dynamodb.UpdateItemInput
	deletes int
	err     error
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: map[int64]map[string]types.AttributeValue{}}
}

func (f *fakeTable) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	if f.err != nil {
		return nil, f.err
	}

	ids := make([]int64, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var after int64
	if in.ExclusiveStartKey != nil {
		after = idOf(in.ExclusiveStartKey)
	}
	limit := len(ids)
	if in.Limit != nil {
		limit = int(*in.Limit)
	}

	proj := projected(in.ProjectionExpression, in.ExpressionAttributeNames)
	out := &dynamodb.ScanOutput{}
	for _, id := range ids {
		if id <= after {
			continue
		}
		if len(out.Items) == limit {
			out.LastEvaluatedKey = keyOf(idOf(out.Items[len(out.Items)-1]))
			break
		}
		out.Items = append(out.Items, project(f.items[id], proj))
	}
	return out, nil
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[idOf(in.Key)]}, nil
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.items[idOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, in)
	if f.err != nil {
		return nil, f.err
	}

	id := idOf(in.Key)
	cur, ok := f.items[id]
	if !ok && in.ConditionExpression != nil {
		return nil, &types.ConditionalCheckFailedException{Message: strPtr("The conditional request failed")}
	}
	if cur == nil {
		cur = map[string]types.AttributeValue{"id": in.Key["id"]}
	}

	updated := map[string]types.AttributeValue{}
	expr := strings.TrimSpace(*in.UpdateExpression)
	expr = strings.TrimPrefix(expr, "SET ")
	for _, assign := range strings.Split(expr, ",") {
		parts := strings.SplitN(strings.TrimSpace(assign), "=", 2)
		name := in.ExpressionAttributeNames[strings.TrimSpace(parts[0])]
		val := in.ExpressionAttributeValues[strings.TrimSpace(parts[1])]
		cur[name] = val
		updated[name] = val
	}
	f.items[id] = cur
	return &dynamodb.UpdateItemOutput{Attributes: updated}, nil
}

func (f *fakeTable) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.err != nil {
		return nil, f.err
	}
	delete(f.items, idOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func idOf(av map[string]types.AttributeValue) int64 {
	n, ok := av["id"].(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	id, _ := strconv.ParseInt(n.Value, 10, 64)
	return id
}

func projected(expr *string, names map[string]string) map[string]bool {
	if expr == nil {
		return nil
	}
	out := map[string]bool{}
	for _, p := range strings.Split(*expr, ",") {
		out[names[strings.TrimSpace(p)]] = true
	}
	return out
}

func project(it map[string]types.AttributeValue, keep map[string]bool) map[string]types.AttributeValue {
	if keep == nil {
		return it
	}
	out := map[string]types.AttributeValue{}
	for k, v := range it {
		if keep[k] {
			out[k] = v
		}
	}
	return out
}

func strPtr(s string) *string { return &s }

func seed(t *testing.T, repo *AnimalsRepo, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		require.NoError(t, repo.Put(context.Background(), animals.Record{
			ID:      int64(i),
			Name:    "animal-" + strconv.Itoa(i),
			Species: "Dog",
			Age:     decimal.RequireFromString("1.5"),
		}))
	}
}

func TestScanAll_UnionOfPages(t *testing.T) {
	table := newFakeTable()
	repo := NewAnimalsRepo(table, "animals", 2)
	seed(t, repo, 5)

	got, err := animals.ScanAll(context.Background(), repo)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, 3, table.scans)
	for i, r := range got {
		assert.Equal(t, int64(i+1), r.ID)
	}
}

func TestScan_ProjectionAlwaysKeepsID(t *testing.T) {
	table := newFakeTable()
	repo := NewAnimalsRepo(table, "animals", 0)
	seed(t, repo, 3)

	page, err := repo.Scan(context.Background(), animals.ScanRequest{Fields: []animals.Field{animals.FieldName}})
	require.NoError(t, err)
	require.Len(t, page.Records, 3)
	assert.Equal(t, "animal-1", page.Records[0].Name)
	assert.Empty(t, page.Records[0].Species)
	assert.Empty(t, page.Next)
}

func TestPutGet_AgeRoundTripsExactly(t *testing.T) {
	repo := NewAnimalsRepo(newFakeTable(), "animals", 0)
	ctx := context.Background()

	rec := animals.Record{ID: 7, Name: "Luna", Age: decimal.RequireFromString("2.3"), IsTrial: "true"}
	require.NoError(t, repo.Put(ctx, rec))

	got, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "2.3", got.Age.String())
	assert.True(t, got.Age.Equal(decimal.RequireFromString("2.3")))
	assert.Equal(t, animals.Flag("true"), got.IsTrial)
}

func TestGet_MissingIsNotFound(t *testing.T) {
	repo := NewAnimalsRepo(newFakeTable(), "animals", 0)
	_, err := repo.Get(context.Background(), 99)
	assert.ErrorIs(t, err, animals.ErrNotFound)
}

func TestGet_DefaultsMissingAttributes(t *testing.T) {
	table := newFakeTable()
	table.items[3] = map[string]types.AttributeValue{
		"id":         &types.AttributeValueMemberN{Value: "3"},
		"animalname": &types.AttributeValueMemberS{Value: "Rex"},
		"isdoa":      &types.AttributeValueMemberBOOL{Value: false},
		"animalage":  &types.AttributeValueMemberS{Value: "4"},
	}
	repo := NewAnimalsRepo(table, "animals", 0)

	got, err := repo.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Rex", got.Name)
	assert.Equal(t, "", got.Breed)
	assert.Equal(t, animals.Flag("false"), got.IsDOA)
	assert.Equal(t, "4", got.Age.String())
}

func TestScan_MalformedID(t *testing.T) {
	table := newFakeTable()
	table.items[1] = map[string]types.AttributeValue{
		"animalname": &types.AttributeValueMemberS{Value: "ghost"},
	}
	repo := NewAnimalsRepo(table, "animals", 0)

	_, err := animals.ScanAll(context.Background(), repo)
	assert.ErrorIs(t, err, animals.ErrMalformedRecord)
}

func TestUpdate_SendsOnlyChangedFields(t *testing.T) {
	table := newFakeTable()
	repo := NewAnimalsRepo(table, "animals", 0)
	seed(t, repo, 1)

	confirmed, err := repo.Update(context.Background(), 1, animals.Changes{
		{Field: animals.FieldBreed, Value: "Beagle"},
	})
	require.NoError(t, err)
	require.Len(t, table.updates, 1)

	in := table.updates[0]
	assert.Len(t, in.ExpressionAttributeValues, 1)
	assert.Contains(t, *in.UpdateExpression, "SET")
	assert.Equal(t, types.ReturnValueUpdatedNew, in.ReturnValues)
	require.NotNil(t, in.ConditionExpression)
	assert.Contains(t, *in.ConditionExpression, "attribute_exists")

	require.Len(t, confirmed, 1)
	assert.Equal(t, "Beagle", confirmed[0].Value)

	got, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Beagle", got.Breed)
	assert.Equal(t, "animal-1", got.Name)
}

func TestUpdate_EmptyChangesSkipsTable(t *testing.T) {
	table := newFakeTable()
	repo := NewAnimalsRepo(table, "animals", 0)

	confirmed, err := repo.Update(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Empty(t, confirmed)
	assert.Empty(t, table.updates)
}

func TestUpdate_MissingIDIsNotFound(t *testing.T) {
	repo := NewAnimalsRepo(newFakeTable(), "animals", 0)
	_, err := repo.Update(context.Background(), 42, animals.Changes{{Field: animals.FieldName, Value: "x"}})
	assert.ErrorIs(t, err, animals.ErrNotFound)
}

func TestDelete_ThenGetIsAbsent(t *testing.T) {
	repo := NewAnimalsRepo(newFakeTable(), "animals", 0)
	ctx := context.Background()
	seed(t, repo, 2)

	require.NoError(t, repo.Delete(ctx, 2))
	_, err := repo.Get(ctx, 2)
	assert.ErrorIs(t, err, animals.ErrNotFound)

	rest, err := animals.ScanAll(ctx, repo)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestErrorClassification(t *testing.T) {
	ctx := context.Background()
	apiErr := &smithy.GenericAPIError{Code: "ValidationException", Message: "One or more parameter values were invalid"}

	t.Run("api error on put is a rejection", func(t *testing.T) {
		table := newFakeTable()
		table.err = apiErr
		err := NewAnimalsRepo(table, "animals", 0).Put(ctx, animals.Record{ID: 1})
		assert.ErrorIs(t, err, animals.ErrWriteRejected)
		assert.Equal(t, "One or more parameter values were invalid", animals.StoreMessage(err))
		assert.Equal(t, "Failed to create new entry: One or more parameter values were invalid", animals.Message(err))
	})

	t.Run("api error on update is a rejection", func(t *testing.T) {
		table := newFakeTable()
		table.err = apiErr
		_, err := NewAnimalsRepo(table, "animals", 0).Update(ctx, 1, animals.Changes{{Field: animals.FieldName, Value: "x"}})
		assert.ErrorIs(t, err, animals.ErrUpdateRejected)
	})

	t.Run("api error on delete is a rejection", func(t *testing.T) {
		table := newFakeTable()
		table.err = apiErr
		err := NewAnimalsRepo(table, "animals", 0).Delete(ctx, 1)
		assert.ErrorIs(t, err, animals.ErrDeleteRejected)
		assert.Equal(t, "Error deleting animal: One or more parameter values were invalid", animals.Message(err))
	})

	t.Run("transport error is unavailable", func(t *testing.T) {
		table := newFakeTable()
		table.err = errors.New("dial tcp: connection refused")
		_, err := NewAnimalsRepo(table, "animals", 0).Scan(ctx, animals.ScanRequest{})
		assert.ErrorIs(t, err, animals.ErrStoreUnavailable)
		assert.Contains(t, animals.Message(err), "Failed to fetch data")
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/x-amz-json-1.0"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func clientWith(t *testing.T, rt roundTripFunc) *AnimalsRepo {
	t.Helper()
	repo, err := Open(context.Background(), Config{
		Region:          "us-east-1",
		Table:           "animals",
		Endpoint:        "http://dynamodb.test",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Transport:       rt,
	})
	require.NoError(t, err)
	return repo
}

func TestDelete_Acknowledgement(t *testing.T) {
	t.Run("200 is ok", func(t *testing.T) {
		var target string
		repo := clientWith(t, func(r *http.Request) (*http.Response, error) {
			target = r.Header.Get("X-Amz-Target")
			return jsonResponse(http.StatusOK, "{}"), nil
		})
		require.NoError(t, repo.Delete(context.Background(), 5))
		assert.Equal(t, "DynamoDB_20120810.DeleteItem", target)
	})

	t.Run("non 200 without error is not acknowledged", func(t *testing.T) {
		repo := clientWith(t, func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusAccepted, "{}"), nil
		})
		err := repo.Delete(context.Background(), 5)
		require.Error(t, err)
		assert.ErrorIs(t, err, animals.ErrDeleteRejected)
		assert.Equal(t, animals.MsgDeleteNotAcknowledged, animals.Message(err))
	})

	t.Run("service exception is a rejection", func(t *testing.T) {
		repo := clientWith(t, func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusBadRequest,
				`{"__type":"com.amazonaws.dynamodb.v20120810#ResourceNotFoundException","message":"Requested resource not found"}`), nil
		})
		err := repo.Delete(context.Background(), 5)
		assert.ErrorIs(t, err, animals.ErrDeleteRejected)
		assert.Equal(t, "Requested resource not found", animals.StoreMessage(err))
	})
}
