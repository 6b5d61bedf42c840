package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

// TestCreateReviewHandler ensures a new review starts pending and is
// denormalized with the author and book names.
func TestCreateReviewHandler(t *testing.T) {
	t.Run("should pass: valid payload", func(t *testing.T) {
		var added Review
		api := newTestAPIHandler(&Storages{
			Books: &MockBookStorage{
				GetOneFunc: func(ctx context.Context, id string) (Book, error) {
					return Book{ID: id, Title: "Test book title"}, nil
				},
			},
			Reviews: &MockReviewStorage{
				AddFunc: func(ctx context.Context, id string, review Review) error {
					added = review
					return nil
				},
			},
		})

		payload := []byte(`{"bookId":"b:1", "rating":5, "comment":"Great read."}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", bytes.NewBuffer(payload))
		ctx := context.WithValue(req.Context(), ContextUser, User{ID: "u:1", Name: "Fahim", Role: RoleUser})
		w := httptest.NewRecorder()
		api.CreateReview(w, req.WithContext(ctx), httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusCreated, res.StatusCode)

		assert.Equal(t, ReviewPending, added.Status)
		assert.Equal(t, "u:1", added.UserID)
		assert.Equal(t, "Fahim", added.UserName)
		assert.Equal(t, "Test book title", added.BookName)

		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		var resp struct {
			Message string `json:"message"`
			Data    Review `json:"data"`
		}
		err = json.Unmarshal(data, &resp)
		assert.NoError(t, err)
		assert.Equal(t, "Review submitted successfully. It will appear once approved.", resp.Message)
		assert.Equal(t, ReviewPending, resp.Data.Status)
	})

	t.Run("should fail: missing book", func(t *testing.T) {
		api := newTestAPIHandler(&Storages{
			Books: &MockBookStorage{
				GetOneFunc: func(ctx context.Context, id string) (Book, error) {
					return Book{}, ErrBookNotFound
				},
			},
		})
		payload := []byte(`{"bookId":"b:gone", "rating":3, "comment":"Fine."}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", bytes.NewBuffer(payload))
		ctx := context.WithValue(req.Context(), ContextUser, User{ID: "u:1", Role: RoleUser})
		w := httptest.NewRecorder()
		api.CreateReview(w, req.WithContext(ctx), httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("should fail: rating out of range", func(t *testing.T) {
		api := newTestAPIHandler(nil)
		for _, payload := range []string{
			`{"bookId":"b:1", "rating":0, "comment":"x"}`,
			`{"bookId":"b:1", "rating":6, "comment":"x"}`,
		} {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", bytes.NewBufferString(payload))
			ctx := context.WithValue(req.Context(), ContextUser, User{ID: "u:1", Role: RoleUser})
			w := httptest.NewRecorder()
			api.CreateReview(w, req.WithContext(ctx), httprouter.Params{})
			res := w.Result()
			res.Body.Close()
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		}
	})
}

// TestApproveReviewHandler ensures the approve transition flips the
// status and rebuilds the book rating aggregates from approved reviews.
func TestApproveReviewHandler(t *testing.T) {
	t.Run("should pass: aggregates recomputed", func(t *testing.T) {
		var updatedBook Book
		api := newTestAPIHandler(&Storages{
			Books: &MockBookStorage{
				GetOneFunc: func(ctx context.Context, id string) (Book, error) {
					return Book{ID: id, Title: "Test book title"}, nil
				},
				UpdateFunc: func(ctx context.Context, id string, book Book) (Book, error) {
					updatedBook = book
					return book, nil
				},
			},
			Reviews: &MockReviewStorage{
				GetOneFunc: func(ctx context.Context, id string) (Review, error) {
					return Review{ID: id, BookID: "b:1", Rating: 5, Status: ReviewPending}, nil
				},
				UpdateFunc: func(ctx context.Context, id string, review Review) (Review, error) {
					return review, nil
				},
				ListForBookFunc: func(ctx context.Context, bookID string, status ReviewStatus) ([]Review, error) {
					assert.Equal(t, ReviewApproved, status)
					return []Review{
						{ID: "v:1", BookID: bookID, Rating: 5, Status: ReviewApproved},
						{ID: "v:2", BookID: bookID, Rating: 4, Status: ReviewApproved},
					}, nil
				},
			},
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/v:1/approve", nil)
		w := httptest.NewRecorder()
		api.ApproveReview(w, req, httprouter.Params{{Key: "id", Value: "v:1"}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)

		assert.Equal(t, 2, updatedBook.TotalReviews)
		assert.Equal(t, 4.5, updatedBook.AverageRating)

		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		var resp struct {
			Data Review `json:"data"`
		}
		err = json.Unmarshal(data, &resp)
		assert.NoError(t, err)
		assert.Equal(t, ReviewApproved, resp.Data.Status)
	})

	t.Run("should fail: missing review", func(t *testing.T) {
		api := newTestAPIHandler(&Storages{
			Reviews: &MockReviewStorage{
				GetOneFunc: func(ctx context.Context, id string) (Review, error) {
					return Review{}, ErrReviewNotFound
				},
			},
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/v:gone/approve", nil)
		w := httptest.NewRecorder()
		api.ApproveReview(w, req, httprouter.Params{{Key: "id", Value: "v:gone"}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		expected := `{"requestid":"", "status":404, "message":"review does not exist", "data":{}}`
		assert.JSONEq(t, expected, string(data))
	})
}

// TestDeleteReviewHandler ensures deleting an approved review refreshes
// the aggregates while deleting a pending one leaves the book untouched.
func TestDeleteReviewHandler(t *testing.T) {
	testCases := []struct {
		name            string
		status          ReviewStatus
		expectRecompute bool
	}{
		{"approved review", ReviewApproved, true},
		{"pending review", ReviewPending, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			recomputed := false
			api := newTestAPIHandler(&Storages{
				Books: &MockBookStorage{
					GetOneFunc: func(ctx context.Context, id string) (Book, error) {
						return Book{ID: id}, nil
					},
					UpdateFunc: func(ctx context.Context, id string, book Book) (Book, error) {
						recomputed = true
						return book, nil
					},
				},
				Reviews: &MockReviewStorage{
					GetOneFunc: func(ctx context.Context, id string) (Review, error) {
						return Review{ID: id, BookID: "b:1", Rating: 2, Status: tc.status}, nil
					},
					DeleteFunc: func(ctx context.Context, id string) error {
						return nil
					},
					ListForBookFunc: func(ctx context.Context, bookID string, status ReviewStatus) ([]Review, error) {
						return []Review{}, nil
					},
				},
			})

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/v:1", nil)
			w := httptest.NewRecorder()
			api.DeleteReview(w, req, httprouter.Params{{Key: "id", Value: "v:1"}})
			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, http.StatusOK, res.StatusCode)
			assert.Equal(t, tc.expectRecompute, recomputed)
		})
	}
}

// TestGetBookReviewsHandler ensures the public listing requires a book id.
func TestGetBookReviewsHandler(t *testing.T) {
	api := newTestAPIHandler(&Storages{
		Reviews: &MockReviewStorage{
			ListForBookFunc: func(ctx context.Context, bookID string, status ReviewStatus) ([]Review, error) {
				return []Review{{ID: "v:1", BookID: bookID, Status: ReviewApproved}}, nil
			},
		},
	})

	t.Run("should fail: missing bookId", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews", nil)
		w := httptest.NewRecorder()
		api.GetBookReviews(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		expected := `{"requestid":"", "status":400, "message":"bookId is required", "data":{}}`
		assert.JSONEq(t, expected, string(data))
	})

	t.Run("should pass: approved reviews of the book", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews?bookId=b:1", nil)
		w := httptest.NewRecorder()
		api.GetBookReviews(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		var resp struct {
			Total int      `json:"total"`
			Data  []Review `json:"data"`
		}
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		assert.NoError(t, err)
		assert.Equal(t, 1, resp.Total)
	})
}

// TestGetPendingReviewsHandler ensures the moderation queue listing is
// cached between identical calls.
func TestGetPendingReviewsHandler(t *testing.T) {
	calls := 0
	api := newTestAPIHandler(&Storages{
		Reviews: &MockReviewStorage{
			ListByStatusFunc: func(ctx context.Context, status ReviewStatus, q ListQuery) ([]Review, int, error) {
				calls++
				assert.Equal(t, ReviewPending, status)
				return []Review{{ID: "v:1", Status: ReviewPending}}, 1, nil
			},
		},
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/pending", nil)
		w := httptest.NewRecorder()
		api.GetPendingReviews(w, req, httprouter.Params{})
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 1, calls)
}
