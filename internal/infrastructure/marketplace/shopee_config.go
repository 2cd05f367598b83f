package marketplace

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
)

// ShopeeConfig holds configuration for the Shopee Open Platform API.
// PartnerID and PartnerKey identify our application; the per-seller shop ID
// and access token come from the access grant at call time.
type ShopeeConfig struct {
	// PartnerID is the application partner ID
	PartnerID int64
	// PartnerKey is the application signing secret
	PartnerKey string
	// APIBaseURL is the base URL for the Shopee API
	APIBaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// PageSize is the number of orders requested per page
	PageSize int
	// RequestsPerSecond throttles outbound calls
	RequestsPerSecond float64
}

// ShopeeProductionAPIURL is the production API endpoint
const ShopeeProductionAPIURL = "https://partner.shopeemobile.com"

// Errors for Shopee configuration
var (
	ErrShopeeConfigMissingPartnerID  = errors.New("shopee: partner id is required")
	ErrShopeeConfigMissingPartnerKey = errors.New("shopee: partner key is required")
)

// NewShopeeConfig creates a configuration with production defaults
func NewShopeeConfig(partnerID int64, partnerKey string) *ShopeeConfig {
	return &ShopeeConfig{
		PartnerID:         partnerID,
		PartnerKey:        partnerKey,
		APIBaseURL:        ShopeeProductionAPIURL,
		TimeoutSeconds:    30,
		PageSize:          50,
		RequestsPerSecond: 5,
	}
}

// Validate validates the configuration, filling defaults for zero values
func (c *ShopeeConfig) Validate() error {
	if c.PartnerID == 0 {
		return ErrShopeeConfigMissingPartnerID
	}
	if c.PartnerKey == "" {
		return ErrShopeeConfigMissingPartnerKey
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = ShopeeProductionAPIURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.PageSize <= 0 || c.PageSize > 100 {
		c.PageSize = 50
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 5
	}
	return nil
}

// Sign computes the shop-level request signature:
// HMAC-SHA256(partner_key, partner_id + path + timestamp + access_token + shop_id)
func (c *ShopeeConfig) Sign(path string, timestamp int64, accessToken, shopID string) string {
	base := strconv.FormatInt(c.PartnerID, 10) + path + strconv.FormatInt(timestamp, 10) + accessToken + shopID
	mac := hmac.New(sha256.New, []byte(c.PartnerKey))
	mac.Write([]byte(base))
	return hex.EncodeToString(mac.Sum(nil))
}
