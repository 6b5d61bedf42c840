package main

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// TutorialList is the cached payload of a tutorials listing call.
type TutorialList struct {
	Tutorials []Tutorial `json:"tutorials"`
	Total     int        `json:"total"`
}

// GetAllTutorials serves the paginated tutorial list to signed-in users.
func (api *APIHandler) GetAllTutorials(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	q := ParseListQuery(r.URL.Query())
	key := NewCacheKey(ResourceTutorials, map[string]string{
		"search": q.Search,
		"limit":  strconv.Itoa(q.Limit),
	}, q.Page)

	var list TutorialList
	if cached, ok := api.cache.Get(key); ok {
		list = cached.(TutorialList)
	} else {
		tutorials, total, err := api.store.Tutorials.List(r.Context(), q)
		if err != nil {
			api.logger.Error("failed to get all tutorials", zap.String("request.id", requestID), zap.Error(err))
			errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get all tutorials", EmptyData)
			if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
				api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
			}
			return
		}
		list = TutorialList{Tutorials: tutorials, Total: total}
		api.cache.Set(key, list)
	}

	resp := GenericResponse(requestID, http.StatusOK, "All tutorials fetched successfully.", &list.Total, list.Tutorials)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// CreateTutorial inserts a new tutorial. Admin only.
func (api *APIHandler) CreateTutorial(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var tutorial Tutorial
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	err := DecodeRequestBody(r, &tutorial)
	if err == nil {
		err = ValidateTutorialRequestBody(&tutorial)
	}
	if err != nil {
		api.logger.Error("failed to create tutorial", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to create the tutorial", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	tutorial.ID = api.uids.Generate(TutorialIDPrefix)
	tutorial.CreatedAt = api.clock.Now().UTC()

	err = api.store.Tutorials.Add(r.Context(), tutorial.ID, tutorial)
	if err != nil {
		api.logger.Error("failed to create tutorial", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to create the tutorial", tutorial)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.cache.Invalidate(ResourceTutorials)
	api.pushEvent(r, CreateQueue, "tutorial.created", tutorial.ID, tutorial)

	api.logger.Info("success to create tutorial", zap.String("request.id", requestID), zap.String("tutorial.id", tutorial.ID))
	resp := GenericResponse(requestID, http.StatusCreated, "Tutorial created successfully.", nil, tutorial)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// UpdateTutorial replaces the data of an existing tutorial. Admin only.
func (api *APIHandler) UpdateTutorial(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var tutorial Tutorial
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id := ps.ByName("id")
	err := DecodeRequestBody(r, &tutorial)
	if err == nil {
		err = ValidateTutorialRequestBody(&tutorial)
	}
	if err != nil {
		api.logger.Error("failed to update tutorial", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to update the tutorial", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	current, err := api.store.Tutorials.GetOne(r.Context(), id)
	if err == ErrTutorialNotFound {
		api.logger.Error("tutorial does not exist", zap.String("tutorial.id", id), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "tutorial does not exist", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to check if the tutorial exist", zap.String("tutorial.id", id), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to update the tutorial", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	tutorial.ID = id
	tutorial.CreatedAt = current.CreatedAt

	tutorial, err = api.store.Tutorials.Update(r.Context(), id, tutorial)
	if err != nil {
		api.logger.Error("failed to update tutorial", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to update the tutorial", tutorial)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.cache.Invalidate(ResourceTutorials)
	api.pushEvent(r, UpdateQueue, "tutorial.updated", tutorial.ID, tutorial)

	api.logger.Info("success to update tutorial", zap.String("tutorial.id", tutorial.ID), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Tutorial updated successfully.", nil, tutorial)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// DeleteTutorial removes a tutorial. Admin only.
func (api *APIHandler) DeleteTutorial(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id := ps.ByName("id")
	tutorial, err := api.store.Tutorials.GetOne(r.Context(), id)
	if err == ErrTutorialNotFound {
		api.logger.Error("tutorial does not exist", zap.String("tutorial.id", id), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "tutorial does not exist", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to check if the tutorial exist", zap.String("tutorial.id", id), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to delete the tutorial", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	err = api.store.Tutorials.Delete(r.Context(), id)
	if err != nil {
		api.logger.Error("failed to delete tutorial", zap.String("tutorial.id", id), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to delete the tutorial", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.cache.Invalidate(ResourceTutorials)
	api.pushEvent(r, DeleteQueue, "tutorial.deleted", id, tutorial)

	api.logger.Info("success to delete tutorial", zap.String("tutorial.id", id), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Tutorial deleted successfully.", nil, tutorial)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
