package main

import (
	"io"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// UploadImage runs the first phase of the upload-then-create flow:
// validate the file then store it and return its public URL with the
// upload id. The caller then creates the entity referencing the URL.
func (api *APIHandler) UploadImage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	if err := r.ParseMultipartForm(api.uploader.MaxBytes() + 1<<20); err != nil {
		api.logger.Error("failed to parse multipart form", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to read the upload", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.logger.Error("upload file is missing", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, ErrImageRequired.Error(), EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	defer file.Close()

	result, err := api.uploader.Upload(r.Context(), header.Header.Get("Content-Type"), header.Size, file)
	if _, ok := err.(invalidImageError); ok {
		api.logger.Error("upload rejected", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, err.Error(), EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to store upload", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to store the image. check the uploads storage configuration.", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	api.logger.Info("success to upload image", zap.String("request.id", requestID), zap.String("upload.id", result.ID))
	resp := GenericResponse(requestID, http.StatusCreated, "Image uploaded successfully.", nil, result)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// ServeUpload streams a stored image back to the client.
func (api *APIHandler) ServeUpload(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	name := ps.ByName("name")
	// the public name carries the storage extension, the id does not.
	id := strings.TrimSuffix(name, "."+lastSegment(name, "."))
	if ok := api.uids.IsValid(id, UploadIDPrefix); !ok {
		errResp := NewAPIError(requestID, http.StatusNotFound, "image does not exist", EmptyData)
		if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	content, contentType, err := api.images.Open(r.Context(), id)
	if err != nil {
		api.logger.Error("image does not exist", zap.String("upload.id", id), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusNotFound, "image does not exist", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err = io.Copy(w, content); err != nil {
		api.logger.Error("failed to stream image", zap.String("upload.id", id), zap.String("request.id", requestID), zap.Error(err))
	}
}

func lastSegment(s, sep string) string {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[i+len(sep):]
	}
	return ""
}
