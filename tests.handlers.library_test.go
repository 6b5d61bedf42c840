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

// TestSaveLibraryEntryHandler ensures the reading state transitions are
// validated and the entry is keyed on the signed-in user.
func TestSaveLibraryEntryHandler(t *testing.T) {
	t.Run("should pass: reading with progress", func(t *testing.T) {
		var saved LibraryEntry
		api := newTestAPIHandler(&Storages{
			Books: &MockBookStorage{
				GetOneFunc: func(ctx context.Context, id string) (Book, error) {
					return Book{ID: id}, nil
				},
			},
			Library: &MockLibraryStorage{
				UpsertFunc: func(ctx context.Context, entry LibraryEntry) error {
					saved = entry
					return nil
				},
			},
		})

		payload := []byte(`{"bookId":"b:1", "status":"reading", "progress":42}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/library", bytes.NewBuffer(payload))
		ctx := context.WithValue(req.Context(), ContextUser, User{ID: "u:1", Role: RoleUser})
		w := httptest.NewRecorder()
		api.SaveLibraryEntry(w, req.WithContext(ctx), httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)

		// the entry belongs to the caller whatever the payload says.
		assert.Equal(t, "u:1", saved.UserID)
		assert.Equal(t, "b:1", saved.BookID)
		assert.Equal(t, LibraryReading, saved.Status)
		assert.Equal(t, 42, saved.Progress)
		assert.False(t, saved.UpdatedAt.IsZero())
	})

	t.Run("should fail: invalid transitions", func(t *testing.T) {
		testCases := []struct {
			name     string
			payload  string
			expected string
		}{
			{
				"progress outside reading",
				`{"bookId":"b:1", "status":"want", "progress":10}`,
				"progress only applies to a book being read",
			},
			{
				"unknown status",
				`{"bookId":"b:1", "status":"paused"}`,
				"status must be one of want, reading, read",
			},
			{
				"progress above 100",
				`{"bookId":"b:1", "status":"reading", "progress":150}`,
				"progress must be between 0 and 100",
			},
			{
				"missing book id",
				`{"status":"reading", "progress":10}`,
				"bookId is required",
			},
		}

		api := newTestAPIHandler(nil)
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/library", bytes.NewBufferString(tc.payload))
				ctx := context.WithValue(req.Context(), ContextUser, User{ID: "u:1", Role: RoleUser})
				w := httptest.NewRecorder()
				api.SaveLibraryEntry(w, req.WithContext(ctx), httprouter.Params{})
				res := w.Result()
				defer res.Body.Close()
				assert.Equal(t, http.StatusBadRequest, res.StatusCode)

				var entry LibraryEntry
				assert.NoError(t, json.Unmarshal([]byte(tc.payload), &entry))
				assert.EqualError(t, ValidateLibraryEntryRequestBody(&entry), tc.expected)
			})
		}
	})

	t.Run("should fail: missing book", func(t *testing.T) {
		api := newTestAPIHandler(&Storages{
			Books: &MockBookStorage{
				GetOneFunc: func(ctx context.Context, id string) (Book, error) {
					return Book{}, ErrBookNotFound
				},
			},
		})
		payload := []byte(`{"bookId":"b:gone", "status":"want"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/library", bytes.NewBuffer(payload))
		ctx := context.WithValue(req.Context(), ContextUser, User{ID: "u:1", Role: RoleUser})
		w := httptest.NewRecorder()
		api.SaveLibraryEntry(w, req.WithContext(ctx), httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

// TestGetMyLibraryHandler ensures the listing joins each entry with its
// book and drops entries whose book left the catalog.
func TestGetMyLibraryHandler(t *testing.T) {
	api := newTestAPIHandler(&Storages{
		Books: &MockBookStorage{
			GetOneFunc: func(ctx context.Context, id string) (Book, error) {
				if id == "b:gone" {
					return Book{}, ErrBookNotFound
				}
				return Book{ID: id, Title: "Test book title"}, nil
			},
		},
		Library: &MockLibraryStorage{
			GetAllForUserFunc: func(ctx context.Context, userID string) ([]LibraryEntry, error) {
				assert.Equal(t, "u:1", userID)
				return []LibraryEntry{
					{UserID: userID, BookID: "b:1", Status: LibraryRead},
					{UserID: userID, BookID: "b:gone", Status: LibraryWant},
					{UserID: userID, BookID: "b:2", Status: LibraryReading, Progress: 15},
				}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/library", nil)
	ctx := context.WithValue(req.Context(), ContextUser, User{ID: "u:1", Role: RoleUser})
	w := httptest.NewRecorder()
	api.GetMyLibrary(w, req.WithContext(ctx), httprouter.Params{})
	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	data, err := io.ReadAll(res.Body)
	assert.NoError(t, err)
	var resp struct {
		Total int           `json:"total"`
		Data  []LibraryItem `json:"data"`
	}
	err = json.Unmarshal(data, &resp)
	assert.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, "b:1", resp.Data[0].Entry.BookID)
	assert.Equal(t, "Test book title", resp.Data[0].Book.Title)
	assert.Equal(t, "b:2", resp.Data[1].Entry.BookID)
}
