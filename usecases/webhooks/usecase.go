package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/samber/mo"

	"fitbackend/clients"
	"fitbackend/config"
	"fitbackend/core"
	"fitbackend/models"
	"fitbackend/usecases"
)

type WebhooksUseCase struct {
	integrationsService integrationsResolver
	syncUseCase         usecases.SyncUseCaseInterface
	providerClients     map[models.ProviderType]clients.ProviderSyncClient
	providerConfigs     map[models.ProviderType]config.ProviderConfig
	publicBaseURL       string
}

// integrationsResolver is the slice of the integrations service the webhook
// gateway needs
type integrationsResolver interface {
	GetIntegrationByProviderExternalUserID(
		ctx context.Context,
		provider models.ProviderType,
		externalUserID string,
	) (mo.Option[*models.Integration], error)
}

func NewWebhooksUseCase(
	integrationsService integrationsResolver,
	syncUseCase usecases.SyncUseCaseInterface,
	providerClients map[models.ProviderType]clients.ProviderSyncClient,
	providerConfigs map[models.ProviderType]config.ProviderConfig,
	publicBaseURL string,
) *WebhooksUseCase {
	return &WebhooksUseCase{
		integrationsService: integrationsService,
		syncUseCase:         syncUseCase,
		providerClients:     providerClients,
		providerConfigs:     providerConfigs,
		publicBaseURL:       strings.TrimRight(publicBaseURL, "/"),
	}
}

// VerifySignature checks the hex HMAC-SHA256 signature a provider sent with
// the payload. The comparison is case-insensitive on the hex digits. When no
// webhook secret is configured for the provider, verification is skipped and
// everything passes - acceptable in development, loudly logged.
func (u *WebhooksUseCase) VerifySignature(
	provider models.ProviderType,
	rawPayload []byte,
	signatureHeader string,
) bool {
	cfg, ok := u.providerConfigs[provider]
	if !ok || cfg.WebhookSecret == "" {
		log.Printf("⚠️ No webhook secret configured for %s, accepting payload without verification", provider)
		return true
	}

	signature := strings.TrimPrefix(signatureHeader, "sha256=")
	received, err := hex.DecodeString(strings.ToLower(signature))
	if err != nil {
		log.Printf("❌ Webhook signature for %s is not valid hex", provider)
		return false
	}

	mac := hmac.New(sha256.New, []byte(cfg.WebhookSecret))
	mac.Write(rawPayload)
	expected := mac.Sum(nil)

	if !hmac.Equal(received, expected) {
		log.Printf("❌ Webhook signature mismatch for %s", provider)
		return false
	}

	return true
}

// ProcessWebhook parses a provider push payload and, for activity create and
// update events, triggers a sync on the integration the event belongs to.
// It reports whether the event was acted on and never lets an error escape
// past the gateway boundary.
func (u *WebhooksUseCase) ProcessWebhook(ctx context.Context, provider models.ProviderType, rawPayload []byte) bool {
	log.Printf("📋 Starting to process %s webhook payload", provider)

	providerClient, ok := u.providerClients[provider]
	if !ok {
		log.Printf("❌ No webhook parser for provider: %s", provider)
		return false
	}

	maybeEvent, err := providerClient.ParseWebhookEvent(rawPayload)
	if err != nil {
		log.Printf("❌ Failed to parse %s webhook payload: %v", provider, err)
		return false
	}
	event, ok := maybeEvent.Get()
	if !ok {
		log.Printf("📋 Ignoring %s webhook: payload carries no actionable event", provider)
		return false
	}

	if event.EventType == models.WebhookEventDelete {
		log.Printf("📋 Ignoring %s delete event for object %s", provider, event.ExternalObjectID)
		return true
	}

	maybeIntegration, err := u.integrationsService.GetIntegrationByProviderExternalUserID(
		ctx, provider, event.ExternalUserID,
	)
	if err != nil {
		log.Printf("❌ Failed to resolve integration for %s webhook: %v", provider, err)
		return false
	}
	integration, ok := maybeIntegration.Get()
	if !ok {
		log.Printf("⚠️ No active integration for %s external user %s, dropping webhook", provider, event.ExternalUserID)
		return false
	}

	if _, err := u.syncUseCase.TriggerSync(ctx, integration.ID); err != nil {
		if errors.Is(err, core.ErrSyncAlreadyRunning) {
			log.Printf("📋 Sync already running for integration %s, webhook satisfied", integration.ID)
			return true
		}
		log.Printf("❌ Webhook-triggered sync failed for integration %s: %v", integration.ID, err)
		return false
	}

	log.Printf("📋 Completed successfully - %s webhook triggered sync for integration %s", provider, integration.ID)
	return true
}

// GetWebhookURL returns the public callback URL to register with the provider
func (u *WebhooksUseCase) GetWebhookURL(provider models.ProviderType) string {
	return fmt.Sprintf("%s/webhooks/%s", u.publicBaseURL, provider)
}
