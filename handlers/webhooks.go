package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"fitbackend/models"
	"fitbackend/usecases"
)

// maxWebhookBodyBytes bounds how much of a provider push we read
const maxWebhookBodyBytes = 1 << 20

// providerSignatureHeaders names the header each provider signs its webhook
// payloads with
var providerSignatureHeaders = map[models.ProviderType]string{
	models.ProviderStrava: "X-Hub-Signature",
	models.ProviderFitbit: "X-Fitbit-Signature",
	models.ProviderGarmin: "X-Webhook-Signature",
}

type WebhooksHandler struct {
	webhooksUseCase usecases.WebhooksUseCaseInterface
}

func NewWebhooksHandler(webhooksUseCase usecases.WebhooksUseCaseInterface) *WebhooksHandler {
	return &WebhooksHandler{
		webhooksUseCase: webhooksUseCase,
	}
}

// HandleProviderWebhook ingests a provider push notification. Other than a
// failed signature check, it always answers 200 - providers retry aggressively
// on anything else, and a payload we cannot process now will not get better.
func (h *WebhooksHandler) HandleProviderWebhook(w http.ResponseWriter, r *http.Request) {
	provider, err := models.ParseProvider(mux.Vars(r)["provider"])
	if err != nil {
		log.Printf("❌ Webhook for unknown provider: %s", mux.Vars(r)["provider"])
		http.Error(w, "unknown provider", http.StatusNotFound)
		return
	}

	log.Printf("📨 Webhook received for provider: %s from %s", provider, r.RemoteAddr)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		log.Printf("❌ Failed to read webhook body: %v", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get(providerSignatureHeaders[provider])
	if !h.webhooksUseCase.VerifySignature(provider, body, signature) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	processed := h.webhooksUseCase.ProcessWebhook(r.Context(), provider, body)
	log.Printf("📨 Webhook for %s processed: %t", provider, processed)

	w.WriteHeader(http.StatusOK)
}

// HandleStravaSubscriptionChallenge answers Strava's subscription validation
// GET with the echoed hub.challenge
func (h *WebhooksHandler) HandleStravaSubscriptionChallenge(w http.ResponseWriter, r *http.Request) {
	challenge := r.URL.Query().Get("hub.challenge")
	if challenge == "" {
		http.Error(w, "missing hub.challenge", http.StatusBadRequest)
		return
	}

	log.Printf("📨 Answering Strava subscription challenge")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{"hub.challenge": challenge}); err != nil {
		log.Printf("❌ Failed to encode challenge response: %v", err)
	}
}

func (h *WebhooksHandler) SetupEndpoints(router *mux.Router) {
	log.Printf("🚀 Registering webhook endpoints")

	router.HandleFunc("/webhooks/strava", h.HandleStravaSubscriptionChallenge).Methods("GET")
	log.Printf("✅ GET /webhooks/strava endpoint registered")

	router.HandleFunc("/webhooks/{provider}", h.HandleProviderWebhook).Methods("POST")
	log.Printf("✅ POST /webhooks/{provider} endpoint registered")
}
