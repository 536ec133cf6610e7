package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"skillswap/server/internal/api/handlers"
	"skillswap/server/internal/api/middleware"
	"skillswap/server/internal/models"
	"skillswap/server/internal/services"
	"skillswap/server/internal/utils"
)

var errBoom = errors.New("boom")

// asUser injects the authenticated user the way AuthMiddleware would.
func asUser(userID utils.SixID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID.String())
		c.Next()
	}
}

func newTradeRouter(svc *MockTradeService, userID utils.SixID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewRestTradeHandler(svc)
	r := gin.New()
	r.Use(asUser(userID))
	r.POST("/v1/trade", handler.CreateTrade)
	r.GET("/v1/trade", handler.ListTrades)
	r.GET("/v1/trade/:id", handler.GetTrade)
	r.PATCH("/v1/trade/:id/status", handler.UpdateTradeStatus)
	return r
}

func TestRestTradeHandler_CreateTrade_Success(t *testing.T) {
	mockSvc := new(MockTradeService)
	sender := utils.NewSixID()
	receiver := utils.NewSixID()
	senderSkill := utils.NewSixID()
	receiverSkill := utils.NewSixID()
	r := newTradeRouter(mockSvc, sender)

	expected := &models.TradeRequest{
		Sender:        sender,
		Receiver:      receiver,
		SenderSkill:   senderSkill,
		ReceiverSkill: receiverSkill,
		Status:        models.TradePending,
	}
	expected.GenID()
	mockSvc.On("Create", mock.Anything, sender, receiver, senderSkill, receiverSkill, "hi").Return(expected, nil)

	body, _ := json.Marshal(map[string]string{
		"receiverId":      receiver.String(),
		"senderSkillId":   senderSkill.String(),
		"receiverSkillId": receiverSkill.String(),
		"message":         "hi",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/trade", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp models.TradeRequest
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, expected.ID, resp.ID)
	assert.Equal(t, models.TradePending, resp.Status)
	mockSvc.AssertExpectations(t)
}

func TestRestTradeHandler_CreateTrade_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"self trade", services.ErrSelfTrade, http.StatusBadRequest},
		{"duplicate is 400 not 409", services.ErrDuplicateTrade, http.StatusBadRequest},
		{"missing field", services.ErrMissingField, http.StatusBadRequest},
		{"unknown", errBoom, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockSvc := new(MockTradeService)
			sender := utils.NewSixID()
			r := newTradeRouter(mockSvc, sender)

			mockSvc.On("Create", mock.Anything, sender, mock.Anything, mock.Anything, mock.Anything, "").
				Return(nil, tc.serviceErr)

			body, _ := json.Marshal(map[string]string{
				"receiverId":      utils.NewSixID().String(),
				"senderSkillId":   utils.NewSixID().String(),
				"receiverSkillId": utils.NewSixID().String(),
			})
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/v1/trade", bytes.NewReader(body))
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestRestTradeHandler_CreateTrade_BadRequestBody(t *testing.T) {
	mockSvc := new(MockTradeService)
	r := newTradeRouter(mockSvc, utils.NewSixID())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/trade", bytes.NewReader([]byte(`{"receiverId":""}`)))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Create")
}

func TestRestTradeHandler_UpdateStatus(t *testing.T) {
	mockSvc := new(MockTradeService)
	user := utils.NewSixID()
	r := newTradeRouter(mockSvc, user)

	trade := &models.TradeRequest{Status: models.TradeAccepted}
	trade.GenID()
	mockSvc.On("UpdateStatus", mock.Anything, trade.ID, user, models.TradeAccepted).Return(trade, nil)

	body := []byte(`{"status":"accepted"}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/v1/trade/"+trade.ID.String()+"/status", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestRestTradeHandler_UpdateStatus_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"not participant", services.ErrNotParticipant, http.StatusForbidden},
		{"not found", mongo.ErrNoDocuments, http.StatusNotFound},
		{"invalid status", services.ErrInvalidStatus, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockSvc := new(MockTradeService)
			user := utils.NewSixID()
			r := newTradeRouter(mockSvc, user)

			tradeID := utils.NewSixID()
			mockSvc.On("UpdateStatus", mock.Anything, tradeID, user, models.TradeCompleted).
				Return(nil, tc.serviceErr)

			body := []byte(`{"status":"completed"}`)
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("PATCH", "/v1/trade/"+tradeID.String()+"/status", bytes.NewReader(body))
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestRestTradeHandler_GetTrade_ParticipantsOnly(t *testing.T) {
	mockSvc := new(MockTradeService)
	outsider := utils.NewSixID()
	r := newTradeRouter(mockSvc, outsider)

	trade := &models.TradeRequest{Sender: utils.NewSixID(), Receiver: utils.NewSixID()}
	trade.GenID()
	mockSvc.On("FindByID", mock.Anything, trade.ID).Return(trade, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/trade/"+trade.ID.String(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRestTradeHandler_ListTrades(t *testing.T) {
	mockSvc := new(MockTradeService)
	user := utils.NewSixID()
	r := newTradeRouter(mockSvc, user)

	trades := []models.TradeRequest{{Sender: user, Receiver: utils.NewSixID()}}
	mockSvc.On("ListForUser", mock.Anything, user).Return(trades, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/trade", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []models.TradeRequest `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	mockSvc.AssertExpectations(t)
}
