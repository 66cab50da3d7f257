package models

import "fmt"

// ProviderType identifies a supported third-party fitness provider.
// The set of variants is closed - every dispatch site (authorization URL
// build, token exchange, sync routine, webhook parser) switches over it and
// treats anything else as not supported.
type ProviderType string

const (
	ProviderStrava ProviderType = "strava"
	ProviderFitbit ProviderType = "fitbit"
	ProviderGarmin ProviderType = "garmin"
)

// AllProviders lists every supported provider variant.
var AllProviders = []ProviderType{ProviderStrava, ProviderFitbit, ProviderGarmin}

// ParseProvider validates a raw provider string from a URL path or request body
func ParseProvider(raw string) (ProviderType, error) {
	switch ProviderType(raw) {
	case ProviderStrava, ProviderFitbit, ProviderGarmin:
		return ProviderType(raw), nil
	default:
		return "", fmt.Errorf("unknown provider: %q", raw)
	}
}

func (p ProviderType) String() string {
	return string(p)
}
