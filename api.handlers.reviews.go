package main

import (
	"context"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// ReviewList is the cached payload of the moderation listing call.
type ReviewList struct {
	Reviews []Review `json:"reviews"`
	Total   int      `json:"total"`
}

// recomputeBookRating rebuilds the derived rating aggregates of a book
// from its approved reviews. Called after every review transition.
func (api *APIHandler) recomputeBookRating(ctx context.Context, bookID string) error {
	book, err := api.store.Books.GetOne(ctx, bookID)
	if err != nil {
		return err
	}
	approved, err := api.store.Reviews.ListForBook(ctx, bookID, ReviewApproved)
	if err != nil {
		return err
	}
	sum := 0
	for _, review := range approved {
		sum += review.Rating
	}
	book.TotalReviews = len(approved)
	book.AverageRating = 0
	if len(approved) > 0 {
		book.AverageRating = float64(sum) / float64(len(approved))
	}
	book.UpdatedAt = api.clock.Now().UTC()
	_, err = api.store.Books.Update(ctx, bookID, book)
	return err
}

// CreateReview records a review of the signed-in user for a book. The
// review starts pending and stays invisible until an admin approves it.
func (api *APIHandler) CreateReview(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var review Review
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	user, _ := GetUserFromContext(r.Context())
	err := DecodeRequestBody(r, &review)
	if err == nil {
		err = ValidateReviewRequestBody(&review)
	}
	if err != nil {
		api.logger.Error("failed to create review", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to create the review", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	book, err := api.store.Books.GetOne(r.Context(), review.BookID)
	if err == ErrBookNotFound {
		api.logger.Error("book does not exist", zap.String("book.id", review.BookID), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "book does not exist", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to check if the book exist", zap.String("book.id", review.BookID), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to create the review", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	review.ID = api.uids.Generate(ReviewIDPrefix)
	review.UserID = user.ID
	review.UserName = user.Name
	review.BookName = book.Title
	review.Status = ReviewPending
	review.CreatedAt = api.clock.Now().UTC()

	err = api.store.Reviews.Add(r.Context(), review.ID, review)
	if err != nil {
		api.logger.Error("failed to create review", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to create the review", review)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.cache.Invalidate(ResourceReviews, ResourceAdminDashboard)
	api.pushEvent(r, CreateQueue, "review.created", review.ID, review)

	api.logger.Info("success to create review",
		zap.String("request.id", requestID),
		zap.String("review.id", review.ID),
		zap.String("book.id", review.BookID),
	)
	resp := GenericResponse(requestID, http.StatusCreated, "Review submitted successfully. It will appear once approved.", nil, review)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetBookReviews serves the approved reviews of a book.
func (api *APIHandler) GetBookReviews(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	bookID := r.URL.Query().Get("bookId")
	if bookID == "" {
		errResp := NewAPIError(requestID, http.StatusBadRequest, missingFieldError("bookId").Error(), EmptyData)
		if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	reviews, err := api.store.Reviews.ListForBook(r.Context(), bookID, ReviewApproved)
	if err != nil {
		api.logger.Error("failed to get book reviews", zap.String("book.id", bookID), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get book reviews", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	total := len(reviews)
	resp := GenericResponse(requestID, http.StatusOK, "Book reviews fetched successfully.", &total, reviews)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetPendingReviews serves the moderation queue. Admin only.
func (api *APIHandler) GetPendingReviews(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	q := ParseListQuery(r.URL.Query())
	key := NewCacheKey(ResourceReviews, map[string]string{
		"status": string(ReviewPending),
		"limit":  strconv.Itoa(q.Limit),
	}, q.Page)

	var list ReviewList
	if cached, ok := api.cache.Get(key); ok {
		list = cached.(ReviewList)
	} else {
		reviews, total, err := api.store.Reviews.ListByStatus(r.Context(), ReviewPending, q)
		if err != nil {
			api.logger.Error("failed to get pending reviews", zap.String("request.id", requestID), zap.Error(err))
			errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get pending reviews", EmptyData)
			if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
				api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
			}
			return
		}
		list = ReviewList{Reviews: reviews, Total: total}
		api.cache.Set(key, list)
	}

	resp := GenericResponse(requestID, http.StatusOK, "Pending reviews fetched successfully.", &list.Total, list.Reviews)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// ApproveReview flips a pending review to approved and refreshes the
// book rating aggregates. Admin only.
func (api *APIHandler) ApproveReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id := ps.ByName("id")
	review, err := api.store.Reviews.GetOne(r.Context(), id)
	if err == ErrReviewNotFound {
		api.logger.Error("review does not exist", zap.String("review.id", id), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "review does not exist", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to check if the review exist", zap.String("review.id", id), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to approve the review", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	review.Status = ReviewApproved
	review, err = api.store.Reviews.Update(r.Context(), id, review)
	if err != nil {
		api.logger.Error("failed to approve review", zap.String("review.id", id), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to approve the review", review)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	if err = api.recomputeBookRating(r.Context(), review.BookID); err != nil {
		api.logger.Error("failed to refresh book rating",
			zap.String("book.id", review.BookID),
			zap.String("request.id", requestID),
			zap.Error(err),
		)
	}
	api.cache.Invalidate(ResourceReviews, ResourceBooks, ResourceDashboard, ResourceAdminDashboard)
	api.pushEvent(r, UpdateQueue, "review.approved", review.ID, review)

	api.logger.Info("success to approve review", zap.String("review.id", id), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Review approved successfully.", nil, review)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// DeleteReview removes a review whatever its status. Admin only.
func (api *APIHandler) DeleteReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id := ps.ByName("id")
	review, err := api.store.Reviews.GetOne(r.Context(), id)
	if err == ErrReviewNotFound {
		api.logger.Error("review does not exist", zap.String("review.id", id), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "review does not exist", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to check if the review exist", zap.String("review.id", id), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to delete the review", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	err = api.store.Reviews.Delete(r.Context(), id)
	if err == ErrReviewNotFound {
		api.logger.Error("review does not exist", zap.String("review.id", id), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "review does not exist", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to delete review", zap.String("review.id", id), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to delete the review", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	// Only approved reviews contribute to the aggregates.
	if review.Status == ReviewApproved {
		if err = api.recomputeBookRating(r.Context(), review.BookID); err != nil {
			api.logger.Error("failed to refresh book rating",
				zap.String("book.id", review.BookID),
				zap.String("request.id", requestID),
				zap.Error(err),
			)
		}
	}
	api.cache.Invalidate(ResourceReviews, ResourceBooks, ResourceDashboard, ResourceAdminDashboard)
	api.pushEvent(r, DeleteQueue, "review.deleted", id, review)

	api.logger.Info("success to delete review", zap.String("review.id", id), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Review deleted successfully.", nil, review)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
