package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// LibraryItem joins a library entry with its book for listing calls.
type LibraryItem struct {
	Entry LibraryEntry `json:"entry"`
	Book  Book         `json:"book"`
}

// SaveLibraryEntry inserts or replaces the entry of the signed-in user
// for a book. One entry exists per (user, book), saving again replaces
// the previous reading state.
func (api *APIHandler) SaveLibraryEntry(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var entry LibraryEntry
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	user, _ := GetUserFromContext(r.Context())
	err := DecodeRequestBody(r, &entry)
	if err == nil {
		err = ValidateLibraryEntryRequestBody(&entry)
	}
	if err != nil {
		api.logger.Error("failed to save library entry", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to save the library entry", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	if _, err = api.store.Books.GetOne(r.Context(), entry.BookID); err == ErrBookNotFound {
		api.logger.Error("book does not exist", zap.String("book.id", entry.BookID), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "book does not exist", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	} else if err != nil {
		api.logger.Error("failed to check if the book exist", zap.String("book.id", entry.BookID), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to save the library entry", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	entry.UserID = user.ID
	entry.UpdatedAt = api.clock.Now().UTC()

	err = api.store.Library.Upsert(r.Context(), entry)
	if err != nil {
		api.logger.Error("failed to save library entry", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to save the library entry", entry)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.cache.Invalidate(ResourceLibrary, ResourceDashboard, ResourceAdminDashboard)
	api.pushEvent(r, UpdateQueue, "library.saved", entry.UserID+"/"+entry.BookID, entry)

	api.logger.Info("success to save library entry",
		zap.String("request.id", requestID),
		zap.String("user.id", entry.UserID),
		zap.String("book.id", entry.BookID),
		zap.String("library.status", string(entry.Status)),
	)
	resp := GenericResponse(requestID, http.StatusOK, "Library entry saved successfully.", nil, entry)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetMyLibrary serves the signed-in user library with each entry book.
// A book removed from the catalog drops out of the listing.
func (api *APIHandler) GetMyLibrary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	user, _ := GetUserFromContext(r.Context())

	entries, err := api.store.Library.GetAllForUser(r.Context(), user.ID)
	if err != nil {
		api.logger.Error("failed to get library", zap.String("user.id", user.ID), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get the library", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	items := []LibraryItem{}
	for _, entry := range entries {
		book, err := api.store.Books.GetOne(r.Context(), entry.BookID)
		if err == ErrBookNotFound {
			continue
		}
		if err != nil {
			api.logger.Error("failed to load library book", zap.String("book.id", entry.BookID), zap.String("request.id", requestID), zap.Error(err))
			errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get the library", EmptyData)
			if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
				api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
			}
			return
		}
		items = append(items, LibraryItem{Entry: entry, Book: book})
	}

	total := len(items)
	resp := GenericResponse(requestID, http.StatusOK, "Library fetched successfully.", &total, items)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
