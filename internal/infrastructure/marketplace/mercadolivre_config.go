package marketplace

import "errors"

// MercadoLivreConfig holds configuration for the Mercado Livre API
type MercadoLivreConfig struct {
	// APIBaseURL is the base URL for the Mercado Livre API
	APIBaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// PageSize is the number of orders requested per page
	PageSize int
	// RequestsPerSecond throttles outbound calls to stay inside the
	// platform's published quota
	RequestsPerSecond float64
}

// MercadoLivreProductionAPIURL is the production API endpoint
const MercadoLivreProductionAPIURL = "https://api.mercadolibre.com"

// ErrMercadoLivreConfigMissingURL indicates the API base URL is empty
var ErrMercadoLivreConfigMissingURL = errors.New("mercadolivre: api base url is required")

// NewMercadoLivreConfig creates a configuration with production defaults
func NewMercadoLivreConfig() *MercadoLivreConfig {
	return &MercadoLivreConfig{
		APIBaseURL:        MercadoLivreProductionAPIURL,
		TimeoutSeconds:    30,
		PageSize:          50,
		RequestsPerSecond: 5,
	}
}

// Validate validates the configuration, filling defaults for zero values
func (c *MercadoLivreConfig) Validate() error {
	if c.APIBaseURL == "" {
		return ErrMercadoLivreConfigMissingURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.PageSize <= 0 || c.PageSize > 50 {
		c.PageSize = 50
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 5
	}
	return nil
}
