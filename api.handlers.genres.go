package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// GetAllGenres serves the full genre list, cached between mutations.
func (api *APIHandler) GetAllGenres(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	key := NewCacheKey(ResourceGenres, nil, 1)

	var genres []Genre
	if cached, ok := api.cache.Get(key); ok {
		genres = cached.([]Genre)
	} else {
		var err error
		genres, err = api.store.Genres.GetAll(r.Context())
		if err != nil {
			api.logger.Error("failed to get all genres", zap.String("request.id", requestID), zap.Error(err))
			errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get all genres", EmptyData)
			if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
				api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
			}
			return
		}
		api.cache.Set(key, genres)
	}

	total := len(genres)
	resp := GenericResponse(requestID, http.StatusOK, "All genres fetched successfully.", &total, genres)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// CreateGenre inserts a new genre. Admin only. Genre names are unique.
func (api *APIHandler) CreateGenre(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var genre Genre
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	err := DecodeRequestBody(r, &genre)
	if err == nil {
		err = ValidateGenreRequestBody(&genre)
	}
	if err != nil {
		api.logger.Error("failed to create genre", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to create the genre", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	genre.ID = api.uids.Generate(GenreIDPrefix)
	genre.CreatedAt = api.clock.Now().UTC()

	err = api.store.Genres.Add(r.Context(), genre.ID, genre)
	if err == ErrGenreTaken {
		api.logger.Error("genre already exists", zap.String("request.id", requestID), zap.String("genre.name", genre.Name))
		errResp := NewAPIError(requestID, http.StatusConflict, "genre already exists", genre)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to create genre", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to create the genre", genre)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.cache.Invalidate(ResourceGenres, ResourceAdminDashboard)
	api.pushEvent(r, CreateQueue, "genre.created", genre.ID, genre)

	api.logger.Info("success to create genre", zap.String("request.id", requestID), zap.String("genre.id", genre.ID))
	resp := GenericResponse(requestID, http.StatusCreated, "Genre created successfully.", nil, genre)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// UpdateGenre renames an existing genre. Admin only.
func (api *APIHandler) UpdateGenre(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var genre Genre
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id := ps.ByName("id")
	err := DecodeRequestBody(r, &genre)
	if err == nil {
		err = ValidateGenreRequestBody(&genre)
	}
	if err != nil {
		api.logger.Error("failed to update genre", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to update the genre", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	current, err := api.store.Genres.GetOne(r.Context(), id)
	if err == ErrGenreNotFound {
		api.logger.Error("genre does not exist", zap.String("genre.id", id), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "genre does not exist", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to check if the genre exist", zap.String("genre.id", id), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to update the genre", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	genre.ID = id
	genre.CreatedAt = current.CreatedAt

	genre, err = api.store.Genres.Update(r.Context(), id, genre)
	if err != nil {
		api.logger.Error("failed to update genre", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to update the genre", genre)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.cache.Invalidate(ResourceGenres, ResourceBooks, ResourceAdminDashboard)
	api.pushEvent(r, UpdateQueue, "genre.updated", genre.ID, genre)

	api.logger.Info("success to update genre", zap.String("genre.id", genre.ID), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Genre updated successfully.", nil, genre)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// DeleteGenre removes a genre. Admin only. Books keep their genre
// names, the catalog filter simply stops matching the removed one.
func (api *APIHandler) DeleteGenre(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id := ps.ByName("id")
	genre, err := api.store.Genres.GetOne(r.Context(), id)
	if err == ErrGenreNotFound {
		api.logger.Error("genre does not exist", zap.String("genre.id", id), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "genre does not exist", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to check if the genre exist", zap.String("genre.id", id), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to delete the genre", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	err = api.store.Genres.Delete(r.Context(), id)
	if err != nil {
		api.logger.Error("failed to delete genre", zap.String("genre.id", id), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to delete the genre", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.cache.Invalidate(ResourceGenres, ResourceAdminDashboard)
	api.pushEvent(r, DeleteQueue, "genre.deleted", id, genre)

	api.logger.Info("success to delete genre", zap.String("genre.id", id), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Genre deleted successfully.", nil, genre)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
