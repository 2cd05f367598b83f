package marketplace

import (
	"encoding/json"
	"time"
)

// ---------------------------------------------------------------------------
// Mercado Livre API response types
// ---------------------------------------------------------------------------

// MeliOrderSearchResponse is the response of GET /orders/search
type MeliOrderSearchResponse struct {
	Results []MeliOrder    `json:"results"`
	Paging  MeliPaging     `json:"paging"`
	Errors  []MeliAPIError `json:"errors,omitempty"`
}

// MeliPaging holds offset pagination metadata
type MeliPaging struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// MeliOrder is one order as returned by the orders search API
type MeliOrder struct {
	ID          json.Number     `json:"id"`
	Status      string          `json:"status"`
	DateCreated time.Time       `json:"date_created"`
	LastUpdated time.Time       `json:"last_updated"`
	TotalAmount json.Number     `json:"total_amount"`
	CurrencyID  string          `json:"currency_id"`
	Buyer       MeliBuyer       `json:"buyer"`
	OrderItems  []MeliOrderItem `json:"order_items"`
}

// MeliBuyer is the buyer block of an order
type MeliBuyer struct {
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

// MeliOrderItem is one line item of an order
type MeliOrderItem struct {
	Item      MeliItemRef `json:"item"`
	Quantity  json.Number `json:"quantity"`
	UnitPrice json.Number `json:"unit_price"`
}

// MeliItemRef identifies the listing a line item was sold under
type MeliItemRef struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	SellerSKU string `json:"seller_sku"`
}

// MeliItem is the response of GET /items/{id}
type MeliItem struct {
	ID                string      `json:"id"`
	Title             string      `json:"title"`
	Price             json.Number `json:"price"`
	AvailableQuantity json.Number `json:"available_quantity"`
	Status            string      `json:"status"`
}

// MeliPublishRequest is the body of POST /items
type MeliPublishRequest struct {
	Title             string `json:"title"`
	Price             string `json:"price"`
	AvailableQuantity int64  `json:"available_quantity"`
	SellerCustomField string `json:"seller_custom_field,omitempty"`
	CurrencyID        string `json:"currency_id,omitempty"`
	BuyingMode        string `json:"buying_mode,omitempty"`
	ListingTypeID     string `json:"listing_type_id,omitempty"`
}

// MeliAPIError is the error envelope returned on non-2xx responses
type MeliAPIError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
}
