package main

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	AddFunc    func(ctx context.Context, id string, book Book) error
	GetOneFunc func(ctx context.Context, id string) (Book, error)
	UpdateFunc func(ctx context.Context, id string, book Book) (Book, error)
	DeleteFunc func(ctx context.Context, id string) error
	ListFunc   func(ctx context.Context, q ListQuery) ([]Book, int, error)
	CountFunc  func(ctx context.Context) (int, error)
}

// Add mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Add(ctx context.Context, id string, book Book) error {
	return m.AddFunc(ctx, id, book)
}

// GetOne mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	return m.GetOneFunc(ctx, id)
}

// Update mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) Update(ctx context.Context, id string, book Book) (Book, error) {
	return m.UpdateFunc(ctx, id, book)
}

// Delete mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

// List mocks the behavior of listing books by the repository.
func (m *MockBookStorage) List(ctx context.Context, q ListQuery) ([]Book, int, error) {
	return m.ListFunc(ctx, q)
}

// Count mocks the behavior of counting books by the repository.
func (m *MockBookStorage) Count(ctx context.Context) (int, error) {
	return m.CountFunc(ctx)
}

type MockUserStorage struct {
	AddFunc        func(ctx context.Context, id string, user User) error
	GetOneFunc     func(ctx context.Context, id string) (User, error)
	GetByEmailFunc func(ctx context.Context, email string) (User, error)
	ListFunc       func(ctx context.Context, q ListQuery) ([]User, int, error)
	UpdateRoleFunc func(ctx context.Context, id string, role Role) (User, error)
	CountFunc      func(ctx context.Context) (int, error)
}

func (m *MockUserStorage) Add(ctx context.Context, id string, user User) error {
	return m.AddFunc(ctx, id, user)
}

func (m *MockUserStorage) GetOne(ctx context.Context, id string) (User, error) {
	return m.GetOneFunc(ctx, id)
}

func (m *MockUserStorage) GetByEmail(ctx context.Context, email string) (User, error) {
	return m.GetByEmailFunc(ctx, email)
}

func (m *MockUserStorage) List(ctx context.Context, q ListQuery) ([]User, int, error) {
	return m.ListFunc(ctx, q)
}

func (m *MockUserStorage) UpdateRole(ctx context.Context, id string, role Role) (User, error) {
	return m.UpdateRoleFunc(ctx, id, role)
}

func (m *MockUserStorage) Count(ctx context.Context) (int, error) {
	return m.CountFunc(ctx)
}

type MockSessionStorage struct {
	AddFunc    func(ctx context.Context, session Session, ttl time.Duration) error
	GetFunc    func(ctx context.Context, token string) (Session, error)
	DeleteFunc func(ctx context.Context, token string) error
}

func (m *MockSessionStorage) Add(ctx context.Context, session Session, ttl time.Duration) error {
	return m.AddFunc(ctx, session, ttl)
}

func (m *MockSessionStorage) Get(ctx context.Context, token string) (Session, error) {
	return m.GetFunc(ctx, token)
}

func (m *MockSessionStorage) Delete(ctx context.Context, token string) error {
	return m.DeleteFunc(ctx, token)
}

type MockGenreStorage struct {
	AddFunc    func(ctx context.Context, id string, genre Genre) error
	GetOneFunc func(ctx context.Context, id string) (Genre, error)
	UpdateFunc func(ctx context.Context, id string, genre Genre) (Genre, error)
	DeleteFunc func(ctx context.Context, id string) error
	GetAllFunc func(ctx context.Context) ([]Genre, error)
}

func (m *MockGenreStorage) Add(ctx context.Context, id string, genre Genre) error {
	return m.AddFunc(ctx, id, genre)
}

func (m *MockGenreStorage) GetOne(ctx context.Context, id string) (Genre, error) {
	return m.GetOneFunc(ctx, id)
}

func (m *MockGenreStorage) Update(ctx context.Context, id string, genre Genre) (Genre, error) {
	return m.UpdateFunc(ctx, id, genre)
}

func (m *MockGenreStorage) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

func (m *MockGenreStorage) GetAll(ctx context.Context) ([]Genre, error) {
	return m.GetAllFunc(ctx)
}

type MockReviewStorage struct {
	AddFunc           func(ctx context.Context, id string, review Review) error
	GetOneFunc        func(ctx context.Context, id string) (Review, error)
	UpdateFunc        func(ctx context.Context, id string, review Review) (Review, error)
	DeleteFunc        func(ctx context.Context, id string) error
	ListForBookFunc   func(ctx context.Context, bookID string, status ReviewStatus) ([]Review, error)
	ListByStatusFunc  func(ctx context.Context, status ReviewStatus, q ListQuery) ([]Review, int, error)
	ListByUserFunc    func(ctx context.Context, userID string) ([]Review, error)
	CountByStatusFunc func(ctx context.Context, status ReviewStatus) (int, error)
}

func (m *MockReviewStorage) Add(ctx context.Context, id string, review Review) error {
	return m.AddFunc(ctx, id, review)
}

func (m *MockReviewStorage) GetOne(ctx context.Context, id string) (Review, error) {
	return m.GetOneFunc(ctx, id)
}

func (m *MockReviewStorage) Update(ctx context.Context, id string, review Review) (Review, error) {
	return m.UpdateFunc(ctx, id, review)
}

func (m *MockReviewStorage) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

func (m *MockReviewStorage) ListForBook(ctx context.Context, bookID string, status ReviewStatus) ([]Review, error) {
	return m.ListForBookFunc(ctx, bookID, status)
}

func (m *MockReviewStorage) ListByStatus(ctx context.Context, status ReviewStatus, q ListQuery) ([]Review, int, error) {
	return m.ListByStatusFunc(ctx, status, q)
}

func (m *MockReviewStorage) ListByUser(ctx context.Context, userID string) ([]Review, error) {
	return m.ListByUserFunc(ctx, userID)
}

func (m *MockReviewStorage) CountByStatus(ctx context.Context, status ReviewStatus) (int, error) {
	return m.CountByStatusFunc(ctx, status)
}

type MockLibraryStorage struct {
	UpsertFunc        func(ctx context.Context, entry LibraryEntry) error
	GetOneFunc        func(ctx context.Context, userID, bookID string) (LibraryEntry, error)
	GetAllForUserFunc func(ctx context.Context, userID string) ([]LibraryEntry, error)
	GetAllFunc        func(ctx context.Context) ([]LibraryEntry, error)
}

func (m *MockLibraryStorage) Upsert(ctx context.Context, entry LibraryEntry) error {
	return m.UpsertFunc(ctx, entry)
}

func (m *MockLibraryStorage) GetOne(ctx context.Context, userID, bookID string) (LibraryEntry, error) {
	return m.GetOneFunc(ctx, userID, bookID)
}

func (m *MockLibraryStorage) GetAllForUser(ctx context.Context, userID string) ([]LibraryEntry, error) {
	return m.GetAllForUserFunc(ctx, userID)
}

func (m *MockLibraryStorage) GetAll(ctx context.Context) ([]LibraryEntry, error) {
	return m.GetAllFunc(ctx)
}

type MockTutorialStorage struct {
	AddFunc    func(ctx context.Context, id string, tutorial Tutorial) error
	GetOneFunc func(ctx context.Context, id string) (Tutorial, error)
	UpdateFunc func(ctx context.Context, id string, tutorial Tutorial) (Tutorial, error)
	DeleteFunc func(ctx context.Context, id string) error
	ListFunc   func(ctx context.Context, q ListQuery) ([]Tutorial, int, error)
	CountFunc  func(ctx context.Context) (int, error)
}

func (m *MockTutorialStorage) Add(ctx context.Context, id string, tutorial Tutorial) error {
	return m.AddFunc(ctx, id, tutorial)
}

func (m *MockTutorialStorage) GetOne(ctx context.Context, id string) (Tutorial, error) {
	return m.GetOneFunc(ctx, id)
}

func (m *MockTutorialStorage) Update(ctx context.Context, id string, tutorial Tutorial) (Tutorial, error) {
	return m.UpdateFunc(ctx, id, tutorial)
}

func (m *MockTutorialStorage) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

func (m *MockTutorialStorage) List(ctx context.Context, q ListQuery) ([]Tutorial, int, error) {
	return m.ListFunc(ctx, q)
}

func (m *MockTutorialStorage) Count(ctx context.Context) (int, error) {
	return m.CountFunc(ctx)
}

// MockQueuer implements a fake Queuer. Pushed events are recorded
// so tests can inspect what a handler enqueued.
type MockQueuer struct {
	PushFunc func(ctx context.Context, qid string, event Event) error
	PopFunc  func(ctx context.Context, qids ...string) (string, Event, error)
	Pushed   []Event
}

func (m *MockQueuer) Push(ctx context.Context, qid string, event Event) error {
	m.Pushed = append(m.Pushed, event)
	if m.PushFunc != nil {
		return m.PushFunc(ctx, qid, event)
	}
	return nil
}

func (m *MockQueuer) Pop(ctx context.Context, qids ...string) (string, Event, error) {
	return m.PopFunc(ctx, qids...)
}

// MockImageStore implements a fake ImageStore.
type MockImageStore struct {
	SaveFunc func(ctx context.Context, id, contentType string, content io.Reader) (string, error)
	OpenFunc func(ctx context.Context, id string) (io.ReadCloser, string, error)
}

func (m *MockImageStore) Save(ctx context.Context, id, contentType string, content io.Reader) (string, error) {
	return m.SaveFunc(ctx, id, contentType, content)
}

func (m *MockImageStore) Open(ctx context.Context, id string) (io.ReadCloser, string, error) {
	return m.OpenFunc(ctx, id)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2026, 0o1, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Fri, 02 Jan 2026 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
	Valid     bool
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string, valid bool) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id, Valid: valid}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// IsValid mocks IsValid behavior by providing configured status.
func (muid *MockUIDHandler) IsValid(_, _ string) bool {
	return muid.Valid
}

// newTestAPIHandler wires an APIHandler with mocked ambient pieces and
// the given storages. Tests override individual fields as needed.
func newTestAPIHandler(store *Storages) *APIHandler {
	clock := NewMockClocker()
	config := &Config{
		Auth:    AuthConfig{SessionTTL: time.Hour, BcryptCost: 4},
		Uploads: UploadsConfig{MaxSizeMB: 5, PublicBase: "http://localhost/uploads"},
		Cache:   CacheConfig{TTL: time.Minute},
	}
	return NewAPIHandler(
		zap.NewNop(),
		config,
		&Statistics{started: clock.Now()},
		clock,
		NewMockUIDHandler("abc", true),
		NewQueryCache(config.Cache.TTL, clock),
		&MockQueuer{},
		store,
		nil,
		nil,
	)
}
