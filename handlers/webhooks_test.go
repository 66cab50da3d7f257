package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"fitbackend/models"
)

func setupWebhookRouter(useCase *MockWebhooksUseCase) *mux.Router {
	router := mux.NewRouter()
	NewWebhooksHandler(useCase).SetupEndpoints(router)
	return router
}

func TestHandleProviderWebhook_ValidSignature(t *testing.T) {
	mockUseCase := new(MockWebhooksUseCase)
	router := setupWebhookRouter(mockUseCase)

	body := `{"object_type":"activity","aspect_type":"create","owner_id":1}`
	mockUseCase.On("VerifySignature", models.ProviderStrava, []byte(body), "abc123").Return(true)
	mockUseCase.On("ProcessWebhook", mock.Anything, models.ProviderStrava, []byte(body)).Return(true)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/strava", strings.NewReader(body))
	req.Header.Set("X-Hub-Signature", "abc123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockUseCase.AssertNumberOfCalls(t, "ProcessWebhook", 1)
}

func TestHandleProviderWebhook_BadSignature(t *testing.T) {
	mockUseCase := new(MockWebhooksUseCase)
	router := setupWebhookRouter(mockUseCase)

	body := `{"object_type":"activity"}`
	mockUseCase.On("VerifySignature", models.ProviderStrava, []byte(body), "bad").Return(false)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/strava", strings.NewReader(body))
	req.Header.Set("X-Hub-Signature", "bad")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	mockUseCase.AssertNotCalled(t, "ProcessWebhook", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleProviderWebhook_UnprocessablePayloadStillOK(t *testing.T) {
	mockUseCase := new(MockWebhooksUseCase)
	router := setupWebhookRouter(mockUseCase)

	body := `this is not json`
	mockUseCase.On("VerifySignature", models.ProviderFitbit, []byte(body), "").Return(true)
	mockUseCase.On("ProcessWebhook", mock.Anything, models.ProviderFitbit, []byte(body)).Return(false)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/fitbit", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	// Providers retry on non-200, so unparseable payloads are acknowledged
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleProviderWebhook_UnknownProvider(t *testing.T) {
	mockUseCase := new(MockWebhooksUseCase)
	router := setupWebhookRouter(mockUseCase)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/myspace", strings.NewReader("{}"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	mockUseCase.AssertNotCalled(t, "VerifySignature", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleStravaSubscriptionChallenge(t *testing.T) {
	mockUseCase := new(MockWebhooksUseCase)
	router := setupWebhookRouter(mockUseCase)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/strava?hub.challenge=ch4113nge&hub.mode=subscribe", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"hub.challenge":"ch4113nge"}`, rec.Body.String())
}

func TestHandleStravaSubscriptionChallenge_MissingChallenge(t *testing.T) {
	mockUseCase := new(MockWebhooksUseCase)
	router := setupWebhookRouter(mockUseCase)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/strava", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
