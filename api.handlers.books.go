package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BookList is the cached payload of a books listing call.
type BookList struct {
	Books []Book `json:"books"`
	Total int    `json:"total"`
}

// BookDetail is the composite payload of a book page: the book itself,
// its approved reviews and the viewer library entry when one exists.
type BookDetail struct {
	Book    Book          `json:"book"`
	Reviews []Review      `json:"reviews"`
	Library *LibraryEntry `json:"libraryEntry,omitempty"`
}

// CreateBook inserts a new book into the catalog. Admin only.
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	book := Book{}
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	err := DecodeRequestBody(r, &book)
	if err != nil {
		api.logger.Error("failed to create book", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to create the book", book)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	err = ValidateCreateBookRequestBody(&book)
	if err != nil {
		api.logger.Error("failed to create book", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to create the book", err.Error())
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	book.ID = api.uids.Generate(BookIDPrefix)
	book.AverageRating = 0
	book.TotalReviews = 0
	book.CreatedAt = api.clock.Now().UTC()
	book.UpdatedAt = book.CreatedAt

	err = api.store.Books.Add(r.Context(), book.ID, book)
	if err != nil {
		api.logger.Error("failed to create book", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to create the book", book)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.cache.Invalidate(ResourceBooks, ResourceDashboard, ResourceAdminDashboard)
	api.pushEvent(r, CreateQueue, "book.created", book.ID, book)

	api.logger.Info("success to create book", zap.String("request.id", requestID), zap.String("book.id", book.ID))
	resp := GenericResponse(requestID, http.StatusCreated, "Book created successfully.", nil, book)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// CreateBookWithCover runs the two phases in one call: store the cover
// image first, then create the book referencing its URL. A failed
// creation leaves the stored image behind, there is no rollback of the
// upload phase.
func (api *APIHandler) CreateBookWithCover(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	if err := r.ParseMultipartForm(api.uploader.MaxBytes() + 1<<20); err != nil {
		api.logger.Error("failed to parse multipart form", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to create the book", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	file, header, err := r.FormFile("cover")
	if err != nil {
		api.logger.Error("cover file is missing", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, ErrImageRequired.Error(), EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	defer file.Close()

	var book Book
	if err = json.Unmarshal([]byte(r.FormValue("book")), &book); err == nil {
		err = ValidateCreateBookRequestBody(&book)
	}
	if err != nil {
		api.logger.Error("failed to create book with cover", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to create the book", err.Error())
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	result, err := api.uploader.Upload(r.Context(), header.Header.Get("Content-Type"), header.Size, file)
	if _, ok := err.(invalidImageError); ok {
		api.logger.Error("cover rejected", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, err.Error(), EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to store cover", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to upload the cover image. check the uploads storage configuration.", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	book.ID = api.uids.Generate(BookIDPrefix)
	book.CoverImage = result.URL
	book.AverageRating = 0
	book.TotalReviews = 0
	book.CreatedAt = api.clock.Now().UTC()
	book.UpdatedAt = book.CreatedAt

	err = api.store.Books.Add(r.Context(), book.ID, book)
	if err != nil {
		api.logger.Error("failed to create book after cover upload",
			zap.String("request.id", requestID),
			zap.String("upload.id", result.ID),
			zap.Error(err),
		)
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to create the book", book)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.cache.Invalidate(ResourceBooks, ResourceDashboard, ResourceAdminDashboard)
	api.pushEvent(r, CreateQueue, "book.created", book.ID, book)

	api.logger.Info("success to create book with cover",
		zap.String("request.id", requestID),
		zap.String("book.id", book.ID),
		zap.String("upload.id", result.ID),
	)
	resp := GenericResponse(requestID, http.StatusCreated, "Book created successfully.", nil, book)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetAllBooks serves the filtered and paginated catalog. Identical
// calls within the cache lifetime are answered from the cache.
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	q := ParseListQuery(r.URL.Query())
	key := NewCacheKey(ResourceBooks, map[string]string{
		"search": q.Search,
		"genre":  q.Genre,
		"limit":  strconv.Itoa(q.Limit),
	}, q.Page)

	var list BookList
	if cached, ok := api.cache.Get(key); ok {
		list = cached.(BookList)
	} else {
		books, total, err := api.store.Books.List(r.Context(), q)
		if err != nil {
			api.logger.Error("failed to get all books", zap.String("request.id", requestID), zap.Error(err))
			errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get all books", EmptyData)
			if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
				api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
			}
			return
		}
		list = BookList{Books: books, Total: total}
		api.cache.Set(key, list)
	}

	api.logger.Info("success to get all books", zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "All books fetched successfully.", &list.Total, list.Books)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.Error(err))
	}
}

// GetOneBook serves the composite book page: the book, its approved
// reviews and the viewer library entry. The three reads run
// concurrently and the page fails as a whole when the book is gone.
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id := ps.ByName("id")
	if ok := api.uids.IsValid(id, BookIDPrefix); !ok {
		api.logger.Error("book id provided is not valid", zap.String("book.id", id), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "book id provided is not valid", Book{})
		if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	var detail BookDetail
	g, gCtx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		book, err := api.store.Books.GetOne(gCtx, id)
		detail.Book = book
		return err
	})
	g.Go(func() error {
		reviews, err := api.store.Reviews.ListForBook(gCtx, id, ReviewApproved)
		detail.Reviews = reviews
		return err
	})
	if viewer, ok := GetUserFromContext(r.Context()); ok {
		g.Go(func() error {
			entry, err := api.store.Library.GetOne(gCtx, viewer.ID, id)
			if err == ErrLibraryEntryNotFound {
				return nil
			}
			if err == nil {
				detail.Library = &entry
			}
			return err
		})
	}

	err := g.Wait()
	if err == ErrBookNotFound {
		api.logger.Error("book does not exist", zap.String("book.id", id), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "book does not exist", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to get book", zap.String("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get the book", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	api.logger.Info("success to get book", zap.String("book.id", id), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Book fetched successfully.", nil, detail)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// UpdateBook replaces the data of an existing book. Admin only.
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var book Book
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id := ps.ByName("id")
	err := DecodeRequestBody(r, &book)
	if err == nil {
		book.ID = id
		err = ValidateUpdateBookRequestBody(&book)
	}
	if err != nil {
		api.logger.Error("failed to update book", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to update the book", err.Error())
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	current, err := api.store.Books.GetOne(r.Context(), id)
	if err == ErrBookNotFound {
		api.logger.Error("book does not exist", zap.String("book.id", id), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "book does not exist", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to check if the book exist", zap.String("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to update the book", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	// Rating aggregates are derived values, clients cannot set them.
	book.AverageRating = current.AverageRating
	book.TotalReviews = current.TotalReviews
	book.CreatedAt = current.CreatedAt
	book.UpdatedAt = api.clock.Now().UTC()

	book, err = api.store.Books.Update(r.Context(), id, book)
	if err != nil {
		api.logger.Error("failed to update book", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to update the book", book)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.cache.Invalidate(ResourceBooks, ResourceDashboard, ResourceAdminDashboard)
	api.pushEvent(r, UpdateQueue, "book.updated", book.ID, book)

	api.logger.Info("success to update book", zap.String("book.id", book.ID), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Book updated successfully.", nil, book)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// DeleteOneBook removes a book from the catalog. Admin only.
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id := ps.ByName("id")
	if ok := api.uids.IsValid(id, BookIDPrefix); !ok {
		api.logger.Error("book id provided is not valid", zap.String("book.id", id), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "book id provided is not valid", Book{})
		if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	book, err := api.store.Books.GetOne(r.Context(), id)
	if err == ErrBookNotFound {
		api.logger.Error("book does not exist", zap.String("book.id", id), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "book does not exist", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to check if the book exist", zap.String("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to check if the book exist", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	err = api.store.Books.Delete(r.Context(), id)
	if err == ErrBookNotFound {
		api.logger.Error("book does not exist", zap.String("book.id", id), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "book does not exist", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to delete book", zap.String("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to delete the book", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.cache.Invalidate(ResourceBooks, ResourceDashboard, ResourceAdminDashboard)
	api.pushEvent(r, DeleteQueue, "book.deleted", id, book)

	api.logger.Info("success to delete book", zap.String("book.id", id), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Book deleted successfully.", nil, book)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
