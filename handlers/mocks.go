package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fitbackend/models"
)

// MockWebhooksUseCase is a mock implementation of the WebhooksUseCaseInterface
type MockWebhooksUseCase struct {
	mock.Mock
}

func (m *MockWebhooksUseCase) VerifySignature(
	provider models.ProviderType,
	rawPayload []byte,
	signatureHeader string,
) bool {
	args := m.Called(provider, rawPayload, signatureHeader)
	return args.Bool(0)
}

func (m *MockWebhooksUseCase) ProcessWebhook(
	ctx context.Context,
	provider models.ProviderType,
	rawPayload []byte,
) bool {
	args := m.Called(ctx, provider, rawPayload)
	return args.Bool(0)
}

func (m *MockWebhooksUseCase) GetWebhookURL(provider models.ProviderType) string {
	args := m.Called(provider)
	return args.String(0)
}
