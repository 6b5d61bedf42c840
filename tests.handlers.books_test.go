package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

// TestStatusHandler ensures api handler can provides its status.
func TestStatusHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	api := newTestAPIHandler(nil)
	api.Status(w, req, httprouter.Params{})
	res := w.Result()
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))
	m := make(map[string]interface{})
	err = json.Unmarshal(data, &m)
	assert.NoError(t, err)

	_, ok := m["requestid"]
	assert.True(t, ok)

	v, ok := m["status"]
	assert.True(t, ok)
	assert.Equal(t, "up & running since 0 mins", v)

	v, ok = m["message"]
	assert.True(t, ok)
	assert.Equal(t, v, "Hello. Bookworm platform api is available. Enjoy :)")
}

// TestCreateBookHandler ensures api handler can create a book.
//
//nolint:funlen
func TestCreateBookHandler(t *testing.T) {
	api := newTestAPIHandler(&Storages{
		Books: &MockBookStorage{
			AddFunc: func(ctx context.Context, id string, book Book) error {
				return nil
			},
		},
	})

	t.Run("should pass: valid payload", func(t *testing.T) {
		book := Book{
			Title:       "Test book title",
			Description: "Test book description",
			Author:      "Jerome Amon",
			TotalPages:  120,
		}
		payload, err := json.Marshal(book)
		assert.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/books", bytes.NewBuffer(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, res.StatusCode)
		assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))

		resultMap := make(map[string]interface{})
		err = json.Unmarshal(data, &resultMap)
		assert.NoError(t, err)

		_, ok := resultMap["requestid"]
		assert.True(t, ok)

		v, ok := resultMap["status"]
		assert.True(t, ok)
		assert.Equal(t, float64(http.StatusCreated), v)

		v, ok = resultMap["message"]
		assert.True(t, ok)
		assert.Equal(t, "Book created successfully.", v)

		v, ok = resultMap["data"]
		assert.True(t, ok)

		bookMap, ok := v.(map[string]interface{})
		assert.True(t, ok)
		assert.Equal(t, "b:abc", bookMap["id"])
		assert.Equal(t, "Test book title", bookMap["title"])
		assert.Equal(t, "Test book description", bookMap["description"])
		assert.Equal(t, "Jerome Amon", bookMap["author"])
		assert.Equal(t, float64(120), bookMap["totalPages"])

		// aggregates always start at zero whatever the client sent.
		assert.Equal(t, float64(0), bookMap["averageRating"])
		assert.Equal(t, float64(0), bookMap["totalReviews"])
		assert.NotEmpty(t, bookMap["createdAt"])
		assert.NotEmpty(t, bookMap["updatedAt"])
	})

	t.Run("should fail: storage insertion failure", func(t *testing.T) {
		api := newTestAPIHandler(&Storages{
			Books: &MockBookStorage{
				AddFunc: func(ctx context.Context, id string, book Book) error {
					return errors.New("storage failure")
				},
			},
		})

		book := Book{
			Title:       "Test book title",
			Description: "Test book description",
			Author:      "Jerome Amon",
		}
		payload, err := json.Marshal(book)
		assert.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/books", bytes.NewBuffer(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)

		resultMap := make(map[string]interface{})
		err = json.Unmarshal(data, &resultMap)
		assert.NoError(t, err)

		v, ok := resultMap["status"]
		assert.True(t, ok)
		assert.Equal(t, float64(http.StatusInternalServerError), v)

		v, ok = resultMap["message"]
		assert.True(t, ok)
		assert.Equal(t, "failed to create the book", v)
	})

	t.Run("should fail: required field in payload", func(t *testing.T) {
		testCases := []struct {
			name     string
			payload  []byte
			expected string
		}{
			{
				name:     "empty title",
				payload:  []byte(`{"title":"", "description":"Test book description", "author":"Jerome Amon"}`),
				expected: `{"requestid":"", "status":400, "message":"failed to create the book", "data":"title is required"}`,
			},
			{
				name:     "missing author",
				payload:  []byte(`{"title":"Test book title", "description":"Test book description"}`),
				expected: `{"requestid":"", "status":400, "message":"failed to create the book", "data":"author is required"}`,
			},
			{
				name:     "negative pages",
				payload:  []byte(`{"title":"Test book title", "description":"Test book description", "author":"Jerome Amon", "totalPages":-5}`),
				expected: `{"requestid":"", "status":400, "message":"failed to create the book", "data":"totalPages must not be negative"}`,
			},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/books", bytes.NewBuffer(tc.payload))
				w := httptest.NewRecorder()
				api.CreateBook(w, req, httprouter.Params{})
				res := w.Result()
				defer res.Body.Close()
				assert.Equal(t, http.StatusBadRequest, res.StatusCode)
				data, err := io.ReadAll(res.Body)
				assert.NoError(t, err)
				assert.JSONEq(t, tc.expected, string(data))
			})
		}
	})
}

// TestGetOneBookHandler ensures the composite book page aggregates the
// book, its approved reviews and the viewer library entry.
func TestGetOneBookHandler(t *testing.T) {
	bookID := "b:cb8f2136-fae4-4200-85d9-3533c7f8c70d"

	t.Run("should fail: invalid book id", func(t *testing.T) {
		api := newTestAPIHandler(nil)
		api.uids = NewMockUIDHandler("abc", false)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/books/not-an-id", nil)
		w := httptest.NewRecorder()
		api.GetOneBook(w, req, httprouter.Params{{Key: "id", Value: "not-an-id"}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("should fail: missing book", func(t *testing.T) {
		api := newTestAPIHandler(&Storages{
			Books: &MockBookStorage{
				GetOneFunc: func(ctx context.Context, id string) (Book, error) {
					return Book{}, ErrBookNotFound
				},
			},
			Reviews: &MockReviewStorage{
				ListForBookFunc: func(ctx context.Context, bookID string, status ReviewStatus) ([]Review, error) {
					return nil, nil
				},
			},
		})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/books/"+bookID, nil)
		w := httptest.NewRecorder()
		api.GetOneBook(w, req, httprouter.Params{{Key: "id", Value: bookID}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		expected := `{"requestid":"", "status":404, "message":"book does not exist", "data":{}}`
		assert.JSONEq(t, expected, string(data))
	})

	t.Run("should pass: signed-in viewer gets its library entry", func(t *testing.T) {
		api := newTestAPIHandler(&Storages{
			Books: &MockBookStorage{
				GetOneFunc: func(ctx context.Context, id string) (Book, error) {
					return Book{ID: id, Title: "Test book title"}, nil
				},
			},
			Reviews: &MockReviewStorage{
				ListForBookFunc: func(ctx context.Context, bookID string, status ReviewStatus) ([]Review, error) {
					assert.Equal(t, ReviewApproved, status)
					return []Review{{ID: "v:1", BookID: bookID, Rating: 5, Status: ReviewApproved}}, nil
				},
			},
			Library: &MockLibraryStorage{
				GetOneFunc: func(ctx context.Context, userID, bookID string) (LibraryEntry, error) {
					return LibraryEntry{UserID: userID, BookID: bookID, Status: LibraryReading, Progress: 42}, nil
				},
			},
		})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/books/"+bookID, nil)
		ctx := context.WithValue(req.Context(), ContextUser, User{ID: "u:1", Role: RoleUser})
		w := httptest.NewRecorder()
		api.GetOneBook(w, req.WithContext(ctx), httprouter.Params{{Key: "id", Value: bookID}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)

		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		var resp struct {
			Data BookDetail `json:"data"`
		}
		err = json.Unmarshal(data, &resp)
		assert.NoError(t, err)
		assert.Equal(t, bookID, resp.Data.Book.ID)
		assert.Len(t, resp.Data.Reviews, 1)
		if assert.NotNil(t, resp.Data.Library) {
			assert.Equal(t, LibraryReading, resp.Data.Library.Status)
			assert.Equal(t, 42, resp.Data.Library.Progress)
		}
	})

	t.Run("should pass: guest viewer gets no library entry", func(t *testing.T) {
		api := newTestAPIHandler(&Storages{
			Books: &MockBookStorage{
				GetOneFunc: func(ctx context.Context, id string) (Book, error) {
					return Book{ID: id}, nil
				},
			},
			Reviews: &MockReviewStorage{
				ListForBookFunc: func(ctx context.Context, bookID string, status ReviewStatus) ([]Review, error) {
					return []Review{}, nil
				},
			},
		})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/books/"+bookID, nil)
		w := httptest.NewRecorder()
		api.GetOneBook(w, req, httprouter.Params{{Key: "id", Value: bookID}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)

		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		var resp struct {
			Data BookDetail `json:"data"`
		}
		err = json.Unmarshal(data, &resp)
		assert.NoError(t, err)
		assert.Nil(t, resp.Data.Library)
	})
}

// TestGetAllBooksHandler ensures identical list calls are served from
// the cache until a mutation invalidates the books resource.
func TestGetAllBooksHandler(t *testing.T) {
	calls := 0
	api := newTestAPIHandler(&Storages{
		Books: &MockBookStorage{
			ListFunc: func(ctx context.Context, q ListQuery) ([]Book, int, error) {
				calls++
				return []Book{{ID: "b:1", Title: "Test book title"}}, 1, nil
			},
		},
	})

	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/books?search=test&page=1", nil)
		w := httptest.NewRecorder()
		api.GetAllBooks(w, req, httprouter.Params{})
		return w
	}

	w := get()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)

	// same filters within the cache lifetime: no second storage read.
	w = get()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)

	// a books mutation forces the next read to refetch.
	api.cache.Invalidate(ResourceBooks)
	w = get()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, calls)

	var resp struct {
		Total int    `json:"total"`
		Data  []Book `json:"data"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	assert.Len(t, resp.Data, 1)
}

// TestUpdateBookHandler ensures clients cannot overwrite the derived
// rating aggregates of a book.
func TestUpdateBookHandler(t *testing.T) {
	bookID := "b:cb8f2136-fae4-4200-85d9-3533c7f8c70d"
	var updated Book
	api := newTestAPIHandler(&Storages{
		Books: &MockBookStorage{
			GetOneFunc: func(ctx context.Context, id string) (Book, error) {
				return Book{ID: id, AverageRating: 4.5, TotalReviews: 12}, nil
			},
			UpdateFunc: func(ctx context.Context, id string, book Book) (Book, error) {
				updated = book
				return book, nil
			},
		},
	})

	payload := []byte(`{"title":"New title", "description":"New description", "author":"Jerome Amon", "averageRating":1, "totalReviews":999}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/books/"+bookID, bytes.NewBuffer(payload))
	w := httptest.NewRecorder()
	api.UpdateBook(w, req, httprouter.Params{{Key: "id", Value: bookID}})
	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 4.5, updated.AverageRating)
	assert.Equal(t, 12, updated.TotalReviews)
	assert.Equal(t, "New title", updated.Title)
}

// TestDeleteOneBook_MissingBook ensures deletion of an unknown book is a 404.
func TestDeleteOneBook_MissingBook(t *testing.T) {
	api := newTestAPIHandler(&Storages{
		Books: &MockBookStorage{
			GetOneFunc: func(ctx context.Context, id string) (Book, error) {
				return Book{}, ErrBookNotFound
			},
		},
	})

	missingBookID := "b:cb8f2136-fae4-4200-85d9-3533c7f8c70d"
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/books/"+missingBookID, nil)
	w := httptest.NewRecorder()
	api.DeleteOneBook(w, req, httprouter.Params{{Key: "id", Value: missingBookID}})
	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	data, err := io.ReadAll(res.Body)
	assert.NoError(t, err)
	expected := `{"requestid":"", "status":404, "message":"book does not exist", "data":{}}`
	assert.JSONEq(t, expected, string(data))
}
