package main

import (
	"net/http"
	"sort"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MonthCount is one month bucket of a trend series.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// GenreCount is one genre bucket of the top genres series.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// UserDashboard aggregates everything the user dashboard page shows.
type UserDashboard struct {
	Stats struct {
		TotalBooks     int `json:"totalBooks"`
		Reading        int `json:"reading"`
		Completed      int `json:"completed"`
		ReviewsWritten int `json:"reviewsWritten"`
	} `json:"stats"`
	ReadingTrends []MonthCount `json:"readingTrends"`
	RecentBooks   []Book       `json:"recentBooks"`
	TopGenres     []GenreCount `json:"topGenres"`
}

// AdminDashboard aggregates everything the admin overview page shows.
type AdminDashboard struct {
	Stats struct {
		TotalBooks     int `json:"totalBooks"`
		TotalUsers     int `json:"totalUsers"`
		TotalGenres    int `json:"totalGenres"`
		PendingReviews int `json:"pendingReviews"`
		ReadingNow     int `json:"readingNow"`
	} `json:"stats"`
	MonthlyTrends  []MonthCount `json:"monthlyTrends"`
	PendingReviews []Review     `json:"pendingReviews"`
}

// trendMonths is the number of month buckets in dashboard trend series.
const trendMonths = 6

func monthBuckets(now time.Time) []MonthCount {
	buckets := make([]MonthCount, trendMonths)
	for i := 0; i < trendMonths; i++ {
		m := now.AddDate(0, i-trendMonths+1, 0)
		buckets[i] = MonthCount{Month: m.Format("Jan 2006")}
	}
	return buckets
}

func bumpMonthBucket(buckets []MonthCount, t time.Time) {
	label := t.Format("Jan 2006")
	for i := range buckets {
		if buckets[i].Month == label {
			buckets[i].Count++
			return
		}
	}
}

// GetUserDashboard serves the signed-in user dashboard aggregate. The
// independent reads run concurrently and the result is cached per user.
func (api *APIHandler) GetUserDashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	user, _ := GetUserFromContext(r.Context())
	key := NewCacheKey(ResourceDashboard, map[string]string{"user": user.ID}, 1)

	if cached, ok := api.cache.Get(key); ok {
		dashboard := cached.(UserDashboard)
		resp := GenericResponse(requestID, http.StatusOK, "Dashboard fetched successfully.", nil, dashboard)
		if err := WriteResponse(r.Context(), w, resp); err != nil {
			api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	var entries []LibraryEntry
	var reviews []Review
	var recent []Book

	g, gCtx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		entries, err = api.store.Library.GetAllForUser(gCtx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		reviews, err = api.store.Reviews.ListByUser(gCtx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		recent, _, err = api.store.Books.List(gCtx, ListQuery{Limit: 5}.Normalize())
		return err
	})

	if err := g.Wait(); err != nil {
		api.logger.Error("failed to build dashboard", zap.String("user.id", user.ID), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get the dashboard", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	var dashboard UserDashboard
	dashboard.Stats.TotalBooks = len(entries)
	dashboard.Stats.ReviewsWritten = len(reviews)
	dashboard.RecentBooks = recent

	trends := monthBuckets(api.clock.Now())
	genreCounts := map[string]int{}
	for _, entry := range entries {
		switch entry.Status {
		case LibraryReading:
			dashboard.Stats.Reading++
		case LibraryRead:
			dashboard.Stats.Completed++
		}
		bumpMonthBucket(trends, entry.UpdatedAt)
		if book, err := api.store.Books.GetOne(r.Context(), entry.BookID); err == nil {
			for _, genre := range book.Genres {
				genreCounts[genre]++
			}
		}
	}
	dashboard.ReadingTrends = trends

	dashboard.TopGenres = []GenreCount{}
	for genre, count := range genreCounts {
		dashboard.TopGenres = append(dashboard.TopGenres, GenreCount{Genre: genre, Count: count})
	}
	sort.Slice(dashboard.TopGenres, func(i, j int) bool {
		if dashboard.TopGenres[i].Count != dashboard.TopGenres[j].Count {
			return dashboard.TopGenres[i].Count > dashboard.TopGenres[j].Count
		}
		return dashboard.TopGenres[i].Genre < dashboard.TopGenres[j].Genre
	})
	if len(dashboard.TopGenres) > 5 {
		dashboard.TopGenres = dashboard.TopGenres[:5]
	}

	api.cache.Set(key, dashboard)
	api.logger.Info("success to build dashboard", zap.String("user.id", user.ID), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Dashboard fetched successfully.", nil, dashboard)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetAdminDashboard serves the admin overview aggregate. Admin only.
func (api *APIHandler) GetAdminDashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	key := NewCacheKey(ResourceAdminDashboard, nil, 1)

	if cached, ok := api.cache.Get(key); ok {
		dashboard := cached.(AdminDashboard)
		resp := GenericResponse(requestID, http.StatusOK, "Admin dashboard fetched successfully.", nil, dashboard)
		if err := WriteResponse(r.Context(), w, resp); err != nil {
			api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	var dashboard AdminDashboard
	var genres []Genre
	var users []User
	var pending []Review
	var entries []LibraryEntry

	g, gCtx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		dashboard.Stats.TotalBooks, err = api.store.Books.Count(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		dashboard.Stats.TotalUsers, err = api.store.Users.Count(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		genres, err = api.store.Genres.GetAll(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		users, _, err = api.store.Users.List(gCtx, ListQuery{Limit: 100}.Normalize())
		return err
	})
	g.Go(func() error {
		var err error
		pending, _, err = api.store.Reviews.ListByStatus(gCtx, ReviewPending, ListQuery{Limit: 5}.Normalize())
		return err
	})
	g.Go(func() error {
		var err error
		dashboard.Stats.PendingReviews, err = api.store.Reviews.CountByStatus(gCtx, ReviewPending)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = api.store.Library.GetAll(gCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		api.logger.Error("failed to build admin dashboard", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get the admin dashboard", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	dashboard.Stats.TotalGenres = len(genres)
	dashboard.PendingReviews = pending
	for _, entry := range entries {
		if entry.Status == LibraryReading {
			dashboard.Stats.ReadingNow++
		}
	}

	trends := monthBuckets(api.clock.Now())
	for _, user := range users {
		bumpMonthBucket(trends, user.CreatedAt)
	}
	dashboard.MonthlyTrends = trends

	api.cache.Set(key, dashboard)
	api.logger.Info("success to build admin dashboard", zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Admin dashboard fetched successfully.", nil, dashboard)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
