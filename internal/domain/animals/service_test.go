package animals

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID     map[int64]Record
	pageSize int

	scanErr   error
	putErr    error
	updateErr error
	deleteErr error

	scans   int
	puts    int
	updates []Changes
	deletes int
}

func newTestRepo(records ...Record) *testRepo {
	r := &testRepo{byID: map[int64]Record{}, pageSize: 2}
	for _, rec := range records {
		r.byID[rec.ID] = rec
	}
	return r
}

func (r *testRepo) Scan(ctx context.Context, req ScanRequest) (Page, error) {
	r.scans++
	if r.scanErr != nil {
		return Page{}, r.scanErr
	}
	var after int64
	if req.Token != "" {
		after, _ = strconv.ParseInt(req.Token, 10, 64)
	}
	ids := make([]int64, 0, len(r.byID))
	for id := range r.byID {
		if id > after {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	page := Page{}
	for _, id := range ids {
		if len(page.Records) == r.pageSize {
			page.Next = strconv.FormatInt(page.Records[len(page.Records)-1].ID, 10)
			break
		}
		rec := r.byID[id]
		if len(req.Fields) == 1 && req.Fields[0] == FieldID {
			rec = Record{ID: rec.ID}
		}
		page.Records = append(page.Records, rec)
	}
	return page, nil
}

func (r *testRepo) Get(ctx context.Context, id int64) (Record, error) {
	rec, ok := r.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *testRepo) Put(ctx context.Context, rec Record) error {
	r.puts++
	if r.putErr != nil {
		return r.putErr
	}
	r.byID[rec.ID] = rec
	return nil
}

func (r *testRepo) Update(ctx context.Context, id int64, changes Changes) (Changes, error) {
	r.updates = append(r.updates, changes)
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	rec, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	updated, err := rec.With(changes)
	if err != nil {
		return nil, err
	}
	r.byID[id] = updated
	return changes, nil
}

func (r *testRepo) Delete(ctx context.Context, id int64) error {
	r.deletes++
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.byID, id)
	return nil
}

func newTestService(repo Repository) *Service {
	svc := NewService(repo, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) }
	return svc
}

// -------------------------
// Allocator
// -------------------------

func TestNextID_MaxPlusOneAcrossPages(t *testing.T) {
	repo := newTestRepo(Record{ID: 3}, Record{ID: 10}, Record{ID: 7}, Record{ID: 1}, Record{ID: 4})
	got := NewAllocator(repo, nil).NextID(context.Background())
	if got != 11 {
		t.Fatalf("expected 11, got %d", got)
	}
	if repo.scans != 3 {
		t.Fatalf("expected 3 scan pages, got %d", repo.scans)
	}
}

func TestNextID_EmptyTable(t *testing.T) {
	got := NewAllocator(newTestRepo(), nil).NextID(context.Background())
	if got != 1 {
		t.Fatalf("expected 1 on empty table, got %d", got)
	}
}

func TestNextID_ScanFailureFallsBack(t *testing.T) {
	repo := newTestRepo(Record{ID: 5})
	repo.scanErr = Unavailable(errors.New("connection reset"))

	var fallbacks int
	alloc := NewAllocator(repo, nil)
	alloc.OnFallback = func(error) { fallbacks++ }

	if got := alloc.NextID(context.Background()); got != AllocatorFallback {
		t.Fatalf("expected fallback %d, got %d", AllocatorFallback, got)
	}
	if fallbacks != 1 {
		t.Fatalf("expected OnFallback once, got %d", fallbacks)
	}
}

// -------------------------
// Create
// -------------------------

func TestCreate_AssignsIDAndDefaultsIntakeDate(t *testing.T) {
	repo := newTestRepo(Record{ID: 4, Name: "Old"})
	svc := newTestService(repo)

	res, err := svc.Create(context.Background(), CreateInput{
		Name:    "  Luna ",
		Species: "Cat",
		Age:     decimal.RequireFromString("2.34"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Record.ID != 5 {
		t.Fatalf("expected id 5, got %d", res.Record.ID)
	}
	if res.Record.Name != "Luna" {
		t.Fatalf("expected trimmed name, got %q", res.Record.Name)
	}
	if res.Record.Age.String() != "2.3" {
		t.Fatalf("expected age rounded to 2.3, got %s", res.Record.Age)
	}
	if res.Record.IntakeDate != "2024-03-09" {
		t.Fatalf("expected intake date today, got %q", res.Record.IntakeDate)
	}
	if res.Snapshot.Len() != 2 {
		t.Fatalf("expected refreshed snapshot with 2 rows, got %d", res.Snapshot.Len())
	}
}

func TestCreate_RejectsNegativeAge(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateInput{Name: "x", Age: decimal.NewFromInt(-1)})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if repo.puts != 0 {
		t.Fatalf("expected no put, got %d", repo.puts)
	}
}

func TestCreate_PutRejectedIsNotRetried(t *testing.T) {
	repo := newTestRepo()
	repo.putErr = Rejected(ErrWriteRejected, "ValidationException")
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateInput{Name: "x"})
	if !errors.Is(err, ErrWriteRejected) {
		t.Fatalf("expected ErrWriteRejected, got %v", err)
	}
	if repo.puts != 1 {
		t.Fatalf("expected exactly one put, got %d", repo.puts)
	}
	if Message(err) != "Failed to create new entry: ValidationException" {
		t.Fatalf("unexpected message %q", Message(err))
	}
}

func TestCreate_RefreshFailureKeepsRecord(t *testing.T) {
	repo := &refreshFailRepo{testRepo: newTestRepo()}
	svc := newTestService(repo)

	res, err := svc.Create(context.Background(), CreateInput{Name: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.RefreshErr == nil {
		t.Fatalf("expected refresh error")
	}
	if _, ok := repo.byID[res.Record.ID]; !ok {
		t.Fatalf("expected record stored despite refresh failure")
	}
}

// refreshFailRepo falla los scans posteriores al primer put.
type refreshFailRepo struct {
	*testRepo
}

func (r *refreshFailRepo) Scan(ctx context.Context, req ScanRequest) (Page, error) {
	if r.puts > 0 {
		return Page{}, Unavailable(errors.New("timeout"))
	}
	return r.testRepo.Scan(ctx, req)
}

// -------------------------
// Update
// -------------------------

func TestUpdate_SendsOnlyChangedFields(t *testing.T) {
	repo := newTestRepo(Record{ID: 1, Name: "Milo", Breed: "Siamese", Age: decimal.RequireFromString("2.3")})
	svc := newTestService(repo)

	res, err := svc.Update(context.Background(), "1", UpdateForm{
		Text: map[Field]string{FieldName: "Milo", FieldBreed: "Persian"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(repo.updates) != 1 {
		t.Fatalf("expected one update call, got %d", len(repo.updates))
	}
	sent := repo.updates[0]
	if len(sent) != 1 || sent[0].Field != FieldBreed {
		t.Fatalf("expected only breedname sent, got %v", sent.Fields())
	}
	if res.Record.Breed != "Persian" || res.Record.Name != "Milo" {
		t.Fatalf("unexpected record after update: %+v", res.Record)
	}
}

func TestUpdate_NoChangesSkipsStore(t *testing.T) {
	repo := newTestRepo(Record{ID: 1, Name: "Milo", Age: decimal.RequireFromString("2.3")})
	svc := newTestService(repo)

	age := decimal.RequireFromString("2.30")
	res, err := svc.Update(context.Background(), "1", UpdateForm{
		Text: map[Field]string{FieldName: "Milo"},
		Age:  &age,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(repo.updates) != 0 {
		t.Fatalf("expected no update call, got %d", len(repo.updates))
	}
	if len(res.Changes) != 0 {
		t.Fatalf("expected empty diff, got %v", res.Changes.Fields())
	}
}

func TestUpdate_InvalidID(t *testing.T) {
	svc := newTestService(newTestRepo())
	for _, raw := range []string{"", "abc", "0", "-3", "1.5"} {
		_, err := svc.Update(context.Background(), raw, UpdateForm{})
		if !errors.Is(err, ErrInvalidID) {
			t.Fatalf("%q: expected ErrInvalidID, got %v", raw, err)
		}
	}
}

func TestUpdate_MissingID(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), "9", UpdateForm{Text: map[Field]string{FieldName: "x"}})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if Message(err) != "No data found for this ID." {
		t.Fatalf("unexpected message %q", Message(err))
	}
	if len(repo.updates) != 0 {
		t.Fatalf("expected no update call")
	}
}

func TestUpdate_RejectedByStore(t *testing.T) {
	repo := newTestRepo(Record{ID: 1, Name: "Milo"})
	repo.updateErr = Rejected(ErrUpdateRejected, "Item size has exceeded the maximum allowed size")
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), "1", UpdateForm{Text: map[Field]string{FieldName: "Max"}})
	if Message(err) != "Update failed: Item size has exceeded the maximum allowed size" {
		t.Fatalf("unexpected message %q", Message(err))
	}
}

func TestUpdate_InvalidDate(t *testing.T) {
	svc := newTestService(newTestRepo(Record{ID: 1}))
	_, err := svc.Update(context.Background(), "1", UpdateForm{Text: map[Field]string{FieldMovementDate: "09/03/2024"}})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

// -------------------------
// Delete
// -------------------------

func TestDelete_ExistingThenMissing(t *testing.T) {
	repo := newTestRepo(Record{ID: 2, Name: "Rex"})
	svc := newTestService(repo)

	id, err := svc.Delete(context.Background(), "2")
	if err != nil || id != 2 {
		t.Fatalf("delete: id=%d err=%v", id, err)
	}

	id, err = svc.Delete(context.Background(), "2")
	if !errors.Is(err, ErrNotFound) || id != 2 {
		t.Fatalf("expected ErrNotFound for id 2, got id=%d err=%v", id, err)
	}
	if repo.deletes != 1 {
		t.Fatalf("expected delete called once, got %d", repo.deletes)
	}
}

func TestDelete_NotAcknowledged(t *testing.T) {
	repo := newTestRepo(Record{ID: 2})
	repo.deleteErr = Rejected(ErrDeleteRejected, MsgDeleteNotAcknowledged)
	svc := newTestService(repo)

	_, err := svc.Delete(context.Background(), "2")
	if Message(err) != "Deletion did not succeed" {
		t.Fatalf("unexpected message %q", Message(err))
	}
}

// -------------------------
// Search
// -------------------------

func TestSearch_RemembersAndRefreshes(t *testing.T) {
	repo := newTestRepo(
		Record{ID: 1, Species: "Cat"},
		Record{ID: 2, Species: "Dog"},
		Record{ID: 3, Species: "cat"},
	)
	svc := newTestService(repo)
	sess := NewSession("s1")

	res, err := svc.Search(context.Background(), sess, Query{FieldSpecies: "CAT"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Status != FilterMatched || res.Snapshot.Len() != 2 {
		t.Fatalf("expected 2 matches, got %s/%d", res.Status, res.Snapshot.Len())
	}

	res, err = svc.SearchRemembered(context.Background(), sess)
	if err != nil || res.Snapshot.Len() != 2 {
		t.Fatalf("expected remembered search to return 2 rows, got %d err=%v", res.Snapshot.Len(), err)
	}

	res, err = svc.Refresh(context.Background(), sess)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if res.Status != FilterNoQuery || res.Snapshot.Len() != 3 {
		t.Fatalf("expected unfiltered table, got %s/%d", res.Status, res.Snapshot.Len())
	}
	if len(sess.SearchValues()) != 0 {
		t.Fatalf("expected cleared session values")
	}
}

func TestSearch_ScanFailure(t *testing.T) {
	repo := newTestRepo()
	repo.scanErr = Unavailable(errors.New("no route to host"))
	svc := newTestService(repo)

	_, err := svc.Search(context.Background(), NewSession("s"), Query{FieldBreed: "x"})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

// -------------------------
// Pagination
// -------------------------

type loopingRepo struct{ *testRepo }

func (loopingRepo) Scan(ctx context.Context, req ScanRequest) (Page, error) {
	return Page{Records: []Record{{ID: 1}}, Next: "same"}, nil
}

func TestRecords_StopsOnRepeatedToken(t *testing.T) {
	_, err := ScanAll(context.Background(), loopingRepo{newTestRepo()})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable on looping token, got %v", err)
	}
}

func TestRecords_StopsEarly(t *testing.T) {
	repo := newTestRepo(Record{ID: 1}, Record{ID: 2}, Record{ID: 3}, Record{ID: 4}, Record{ID: 5})
	n := 0
	for _, err := range Records(context.Background(), repo) {
		if err != nil {
			t.Fatalf("records: %v", err)
		}
		n++
		if n == 2 {
			break
		}
	}
	if repo.scans != 1 {
		t.Fatalf("expected lazy iteration to fetch one page, got %d", repo.scans)
	}
}
