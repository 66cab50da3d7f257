package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"fitbackend/appctx"
	"fitbackend/core"
	"fitbackend/middleware"
	"fitbackend/models"
	"fitbackend/models/api"
)

type IntegrationsHTTPHandler struct {
	handler *IntegrationsAPIHandler
}

func NewIntegrationsHTTPHandler(handler *IntegrationsAPIHandler) *IntegrationsHTTPHandler {
	return &IntegrationsHTTPHandler{
		handler: handler,
	}
}

type AuthorizationURLResponse struct {
	AuthorizationURL string `json:"authorization_url"`
}

func (h *IntegrationsHTTPHandler) HandleListIntegrations(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 List integrations request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	integrations, err := h.handler.ListIntegrations(r.Context(), user)
	if err != nil {
		http.Error(w, "failed to get integrations", http.StatusInternalServerError)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, api.DomainIntegrationsToAPIIntegrations(integrations))
}

func (h *IntegrationsHTTPHandler) HandleAuthorizeIntegration(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔗 Authorize integration request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	provider, err := models.ParseProvider(mux.Vars(r)["provider"])
	if err != nil {
		http.Error(w, "unknown provider", http.StatusBadRequest)
		return
	}

	authURL, err := h.handler.GetAuthorizationURL(user, provider)
	if err != nil {
		h.writeDomainError(w, err, "failed to build authorization url")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, AuthorizationURLResponse{AuthorizationURL: authURL})
}

func (h *IntegrationsHTTPHandler) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	log.Printf("➕ OAuth callback request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	provider, err := models.ParseProvider(mux.Vars(r)["provider"])
	if err != nil {
		http.Error(w, "unknown provider", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	integration, err := h.handler.CompleteOAuthCallback(r.Context(), user, provider, code, state)
	if err != nil {
		h.writeDomainError(w, err, "failed to connect integration")
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, api.DomainIntegrationToAPIIntegration(integration))
}

func (h *IntegrationsHTTPHandler) HandleDeleteIntegration(w http.ResponseWriter, r *http.Request) {
	log.Printf("🗑️ Delete integration request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	integrationID := mux.Vars(r)["id"]
	if err := h.handler.RevokeIntegration(r.Context(), user, integrationID); err != nil {
		h.writeDomainError(w, err, "failed to revoke integration")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *IntegrationsHTTPHandler) HandleTriggerSync(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔄 Trigger sync request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	integrationID := mux.Vars(r)["id"]
	syncLog, err := h.handler.TriggerSync(r.Context(), user, integrationID)
	if err != nil {
		h.writeDomainError(w, err, "failed to trigger sync")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, api.DomainSyncLogToAPISyncLog(syncLog))
}

func (h *IntegrationsHTTPHandler) HandleGetSyncHistory(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 Sync history request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	limit := 0
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil {
			http.Error(w, "limit must be a number", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	integrationID := mux.Vars(r)["id"]
	syncLogs, err := h.handler.GetSyncHistory(r.Context(), user, integrationID, limit)
	if err != nil {
		h.writeDomainError(w, err, "failed to get sync history")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, api.DomainSyncLogsToAPISyncLogs(syncLogs))
}

func (h *IntegrationsHTTPHandler) SetupEndpoints(router *mux.Router, authMiddleware *middleware.ClerkAuthMiddleware) {
	log.Printf("🚀 Registering integrations API endpoints")

	router.HandleFunc("/api/integrations", authMiddleware.WithAuth(h.HandleListIntegrations)).Methods("GET")
	log.Printf("✅ GET /api/integrations endpoint registered")

	router.HandleFunc("/api/integrations/{provider}/authorize", authMiddleware.WithAuth(h.HandleAuthorizeIntegration)).
		Methods("POST")
	log.Printf("✅ POST /api/integrations/{provider}/authorize endpoint registered")

	router.HandleFunc("/api/integrations/{provider}/callback", authMiddleware.WithAuth(h.HandleOAuthCallback)).
		Methods("GET")
	log.Printf("✅ GET /api/integrations/{provider}/callback endpoint registered")

	router.HandleFunc("/api/integrations/{id}", authMiddleware.WithAuth(h.HandleDeleteIntegration)).
		Methods("DELETE")
	log.Printf("✅ DELETE /api/integrations/{id} endpoint registered")

	router.HandleFunc("/api/integrations/{id}/sync", authMiddleware.WithAuth(h.HandleTriggerSync)).
		Methods("POST")
	log.Printf("✅ POST /api/integrations/{id}/sync endpoint registered")

	router.HandleFunc("/api/integrations/{id}/sync-history", authMiddleware.WithAuth(h.HandleGetSyncHistory)).
		Methods("GET")
	log.Printf("✅ GET /api/integrations/{id}/sync-history endpoint registered")

	log.Printf("✅ All integrations API endpoints registered successfully")
}

// writeDomainError maps domain sentinel errors to HTTP status codes
func (h *IntegrationsHTTPHandler) writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrNotFoundOrInactive):
		http.Error(w, "integration not found", http.StatusNotFound)
	case errors.Is(err, core.ErrSyncAlreadyRunning):
		http.Error(w, "sync already running", http.StatusConflict)
	case errors.Is(err, core.ErrUnsupportedProvider):
		http.Error(w, "unsupported provider", http.StatusBadRequest)
	default:
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}

func (h *IntegrationsHTTPHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ Failed to encode JSON response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
