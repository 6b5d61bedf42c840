package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

// DecodeRequestBody is a helper function to parse a json request body
// into the given destination structure.
func DecodeRequestBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("invalid request body")
	}
	return json.NewDecoder(r.Body).Decode(dst)
}

// ParseListQuery extracts pagination and filtering parameters from the
// request query string. Absent or malformed numbers fall back to the
// defaults applied by Normalize.
func ParseListQuery(values url.Values) ListQuery {
	page, _ := strconv.Atoi(values.Get("page"))
	limit, _ := strconv.Atoi(values.Get("limit"))
	return ListQuery{
		Search: values.Get("search"),
		Genre:  values.Get("genre"),
		Page:   page,
		Limit:  limit,
	}.Normalize()
}

// ValidateCreateBookRequestBody is a helper function to check if the content of a book creation request is valid.
func ValidateCreateBookRequestBody(book *Book) error {
	if len(book.Title) == 0 {
		return missingFieldError("title")
	}

	if len(book.Author) == 0 {
		return missingFieldError("author")
	}

	if len(book.Description) == 0 {
		return missingFieldError("description")
	}

	if book.TotalPages < 0 {
		return invalidFieldError("totalPages must not be negative")
	}

	return nil
}

// ValidateUpdateBookRequestBody is a helper function to check if the content of a book update request is valid.
func ValidateUpdateBookRequestBody(book *Book) error {
	if err := ValidateCreateBookRequestBody(book); err != nil {
		return err
	}

	if len(book.ID) == 0 {
		return missingFieldError("id")
	}

	return nil
}

// ValidateGenreRequestBody is a helper function to check if the content of a genre request is valid.
func ValidateGenreRequestBody(genre *Genre) error {
	if len(genre.Name) == 0 {
		return missingFieldError("name")
	}
	return nil
}

// ValidateTutorialRequestBody is a helper function to check if the content of a tutorial request is valid.
func ValidateTutorialRequestBody(tutorial *Tutorial) error {
	if len(tutorial.Title) == 0 {
		return missingFieldError("title")
	}

	if len(tutorial.YoutubeLink) == 0 {
		return missingFieldError("youtubeLink")
	}

	return nil
}

// ValidateReviewRequestBody is a helper function to check if the content of a review creation request is valid.
func ValidateReviewRequestBody(review *Review) error {
	if len(review.BookID) == 0 {
		return missingFieldError("bookId")
	}

	if review.Rating < 1 || review.Rating > 5 {
		return invalidFieldError("rating must be between 1 and 5")
	}

	if len(review.Comment) == 0 {
		return missingFieldError("comment")
	}

	return nil
}

// ValidateLibraryEntryRequestBody checks the reading state transition
// of a library save request. Progress only applies to a book being
// read and stays within [0,100].
func ValidateLibraryEntryRequestBody(entry *LibraryEntry) error {
	if len(entry.BookID) == 0 {
		return missingFieldError("bookId")
	}

	if !entry.Status.IsValid() {
		return invalidFieldError("status must be one of want, reading, read")
	}

	if entry.Status != LibraryReading && entry.Progress != 0 {
		return invalidFieldError("progress only applies to a book being read")
	}

	if entry.Progress < 0 || entry.Progress > 100 {
		return invalidFieldError("progress must be between 0 and 100")
	}

	return nil
}

// SignUpRequest is the payload of an email based account creation.
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Image    string `json:"image"`
}

// SignInRequest is the payload of an email based sign-in.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ValidateSignUpRequestBody is a helper function to check if the content of a sign-up request is valid.
func ValidateSignUpRequestBody(req *SignUpRequest) error {
	if len(req.Name) == 0 {
		return missingFieldError("name")
	}

	if len(req.Email) == 0 {
		return missingFieldError("email")
	}

	if len(req.Password) < 8 {
		return invalidFieldError("password must be at least 8 characters")
	}

	return nil
}

// ValidateSignInRequestBody is a helper function to check if the content of a sign-in request is valid.
func ValidateSignInRequestBody(req *SignInRequest) error {
	if len(req.Email) == 0 {
		return missingFieldError("email")
	}

	if len(req.Password) == 0 {
		return missingFieldError("password")
	}

	return nil
}

// UpdateRoleRequest is the payload of an admin role change.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// ValidateUpdateRoleRequestBody ensures the requested role is a known one.
func ValidateUpdateRoleRequestBody(req *UpdateRoleRequest) error {
	if len(req.Role) == 0 {
		return missingFieldError("role")
	}

	if req.Role != "admin" && req.Role != "user" {
		return invalidFieldError("role must be admin or user")
	}

	return nil
}
