package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"skillswap/server/internal/api/handlers"
	"skillswap/server/internal/api/middleware"
	"skillswap/server/internal/auth"
	"skillswap/server/internal/models"
	"skillswap/server/internal/services"
	"skillswap/server/internal/utils"
)

func newReviewRouter(svc *MockReviewService, userID utils.SixID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewRestReviewHandler(svc)
	r := gin.New()
	r.Use(asUser(userID))
	r.POST("/v1/review", handler.SubmitReview)
	r.GET("/v1/review/user/:id", handler.GetUserReviews)
	r.GET("/v1/review/trade/:id", handler.GetTradeReviews)
	return r
}

func submitBody(tradeID, revieweeID utils.SixID, rating int, text string) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"tradeRequestId": tradeID.String(),
		"revieweeId":     revieweeID.String(),
		"rating":         rating,
		"review":         text,
	})
	return body
}

func TestRestReviewHandler_SubmitReview_Success(t *testing.T) {
	mockSvc := new(MockReviewService)
	reviewer := utils.NewSixID()
	reviewee := utils.NewSixID()
	tradeID := utils.NewSixID()
	r := newReviewRouter(mockSvc, reviewer)

	expected := &models.Review{
		TradeRequest: tradeID,
		Reviewer:     reviewer,
		Reviewee:     reviewee,
		Rating:       5,
		Review:       "superb",
	}
	expected.GenID()
	mockSvc.On("Submit", mock.Anything, tradeID, reviewer, reviewee, 5, "superb").Return(expected, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/review", bytes.NewReader(submitBody(tradeID, reviewee, 5, "superb")))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp models.Review
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, expected.ID, resp.ID)
	mockSvc.AssertExpectations(t)
}

func TestRestReviewHandler_SubmitReview_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"duplicate is 400 not 409", services.ErrDuplicateReview, http.StatusBadRequest},
		{"trade not completed", services.ErrTradeNotCompleted, http.StatusBadRequest},
		{"invalid rating", services.ErrInvalidRating, http.StatusBadRequest},
		{"invalid reviewee", services.ErrInvalidReviewee, http.StatusBadRequest},
		{"not participant", services.ErrNotParticipant, http.StatusForbidden},
		{"trade missing", mongo.ErrNoDocuments, http.StatusNotFound},
		{"unknown", errBoom, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockSvc := new(MockReviewService)
			reviewer := utils.NewSixID()
			r := newReviewRouter(mockSvc, reviewer)

			mockSvc.On("Submit", mock.Anything, mock.Anything, reviewer, mock.Anything, 3, "text").
				Return(nil, tc.serviceErr)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/v1/review", bytes.NewReader(submitBody(utils.NewSixID(), utils.NewSixID(), 3, "text")))
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestRestReviewHandler_GetUserReviews(t *testing.T) {
	mockSvc := new(MockReviewService)
	userID := utils.NewSixID()
	r := newReviewRouter(mockSvc, utils.NewSixID())

	page := &services.ReviewPage{
		Reviews:  []models.Review{{Reviewee: userID, Rating: 4}},
		Stats:    services.ReviewStats{Average: 4.0, Total: 1, Histogram: map[int]int64{4: 1}},
		Page:     2,
		PageSize: 5,
	}
	mockSvc.On("ListForUser", mock.Anything, userID, 2, 5).Return(page, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/review/user/"+userID.String()+"?page=2&page_size=5", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp services.ReviewPage
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Stats.Total)
	assert.Equal(t, 2, resp.Page)
	mockSvc.AssertExpectations(t)
}

func TestRestReviewHandler_GetUserReviews_BadPagingFallsBack(t *testing.T) {
	mockSvc := new(MockReviewService)
	userID := utils.NewSixID()
	r := newReviewRouter(mockSvc, utils.NewSixID())

	page := &services.ReviewPage{Reviews: []models.Review{}, Page: 1, PageSize: 20}
	mockSvc.On("ListForUser", mock.Anything, userID, 1, 20).Return(page, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/review/user/"+userID.String()+"?page=-3&page_size=9999", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestRestReviewHandler_GetUserReviews_RequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := new(MockReviewService)
	handler := handlers.NewRestReviewHandler(mockSvc)

	const secret = "test-secret"
	r := gin.New()
	r.Use(middleware.AuthMiddleware(secret))
	r.GET("/v1/review/user/:id", handler.GetUserReviews)

	userID := utils.NewSixID()

	// No Authorization header: rejected before the handler runs
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/review/user/"+userID.String(), nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockSvc.AssertNotCalled(t, "ListForUser")

	// A valid bearer token reaches the handler
	token, err := auth.GenerateJWT(utils.NewSixID(), secret, time.Minute)
	assert.NoError(t, err)
	page := &services.ReviewPage{Reviews: []models.Review{}, Page: 1, PageSize: 20}
	mockSvc.On("ListForUser", mock.Anything, userID, 1, 20).Return(page, nil)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/v1/review/user/"+userID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestRestReviewHandler_GetTradeReviews_Forbidden(t *testing.T) {
	mockSvc := new(MockReviewService)
	caller := utils.NewSixID()
	tradeID := utils.NewSixID()
	r := newReviewRouter(mockSvc, caller)

	mockSvc.On("ListForTrade", mock.Anything, tradeID, caller).Return(nil, services.ErrNotParticipant)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/review/trade/"+tradeID.String(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
