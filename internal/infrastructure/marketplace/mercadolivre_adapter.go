package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/stockbridge/backend/internal/domain/channel"
)

// MercadoLivreAdapter implements MarketplaceProvider for Mercado Livre.
// Authentication is a per-call Bearer token from the access grant; the
// external account ID is the numeric seller ID on the platform.
type MercadoLivreAdapter struct {
	config     *MercadoLivreConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewMercadoLivreAdapter creates a new Mercado Livre adapter
func NewMercadoLivreAdapter(config *MercadoLivreConfig) (*MercadoLivreAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &MercadoLivreAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
	}, nil
}

// PlatformCode returns the platform code this adapter handles
func (a *MercadoLivreAdapter) PlatformCode() channel.PlatformCode {
	return channel.PlatformCodeMercadoLivre
}

// FetchOrdersSince pulls all orders created at or after since, walking the
// offset pagination of GET /orders/search until the reported total is
// exhausted.
func (a *MercadoLivreAdapter) FetchOrdersSince(ctx context.Context, grant channel.AccessGrant, since time.Time) ([]channel.RawOrder, error) {
	orders := make([]channel.RawOrder, 0)
	offset := 0

	for {
		query := url.Values{}
		query.Set("seller", grant.ExternalAccountID)
		query.Set("order.date_created.from", since.UTC().Format(time.RFC3339))
		query.Set("sort", "date_asc")
		query.Set("offset", strconv.Itoa(offset))
		query.Set("limit", strconv.Itoa(a.config.PageSize))

		body, err := a.doRequest(ctx, grant, http.MethodGet, "/orders/search?"+query.Encode(), nil, classifyHTTPStatus)
		if err != nil {
			return nil, err
		}

		var resp MeliOrderSearchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: %v", channel.ErrPlatformInvalidResponse, err)
		}

		for i := range resp.Results {
			orders = append(orders, a.convertOrder(&resp.Results[i]))
		}

		offset += len(resp.Results)
		if len(resp.Results) == 0 || offset >= resp.Paging.Total {
			break
		}
	}

	return orders, nil
}

// FetchListingState returns the current remote state of a listing via
// GET /items/{id}. A 404 is the platform confirming the listing is gone.
func (a *MercadoLivreAdapter) FetchListingState(ctx context.Context, grant channel.AccessGrant, platformProductID string) (*channel.RemoteListingState, error) {
	body, err := a.doRequest(ctx, grant, http.MethodGet, "/items/"+url.PathEscape(platformProductID), nil, classifyListingHTTPStatus)
	if err != nil {
		return nil, err
	}

	var item MeliItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("%w: %v", channel.ErrPlatformInvalidResponse, err)
	}
	if item.ID == "" {
		return nil, fmt.Errorf("%w: item payload has no id", channel.ErrPlatformInvalidResponse)
	}

	// A closed listing no longer exists from the seller's perspective
	if item.Status == "closed" {
		return nil, fmt.Errorf("%w: item %s is closed", channel.ErrListingNotFound, platformProductID)
	}

	return &channel.RemoteListingState{
		PlatformProductID: item.ID,
		Stock:             parseNumber(item.AvailableQuantity),
		Price:             parseNumber(item.Price),
		Active:            item.Status == "active",
		CheckedAt:         time.Now(),
	}, nil
}

// Publish creates a listing via POST /items and returns the assigned item ID
func (a *MercadoLivreAdapter) Publish(ctx context.Context, grant channel.AccessGrant, draft channel.ListingDraft) (string, error) {
	reqBody := MeliPublishRequest{
		Title:             draft.Title,
		Price:             draft.Price.StringFixed(2),
		AvailableQuantity: draft.Quantity.IntPart(),
		SellerCustomField: draft.SKU,
		BuyingMode:        "buy_it_now",
		ListingTypeID:     "gold_special",
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("mercadolivre: failed to encode publish request: %w", err)
	}

	body, err := a.doRequest(ctx, grant, http.MethodPost, "/items", payload, classifyHTTPStatus)
	if err != nil {
		return "", err
	}

	var item MeliItem
	if err := json.Unmarshal(body, &item); err != nil {
		return "", fmt.Errorf("%w: %v", channel.ErrPlatformInvalidResponse, err)
	}
	if item.ID == "" {
		return "", fmt.Errorf("%w: publish response has no item id", channel.ErrPlatformInvalidResponse)
	}
	return item.ID, nil
}

// MapStatus translates a Mercado Livre order status into the canonical status
func (a *MercadoLivreAdapter) MapStatus(raw string) channel.OrderStatus {
	switch raw {
	case "confirmed", "payment_required", "payment_in_process":
		return channel.OrderStatusPending
	case "paid", "partially_paid":
		return channel.OrderStatusPaid
	case "shipped":
		return channel.OrderStatusShipped
	case "delivered":
		return channel.OrderStatusDelivered
	case "cancelled", "invalid":
		return channel.OrderStatusCancelled
	case "refunded", "partially_refunded":
		return channel.OrderStatusRefunded
	default:
		return channel.OrderStatusProcessing
	}
}

// doRequest performs one authenticated call against the Mercado Livre API
func (a *MercadoLivreAdapter) doRequest(ctx context.Context, grant channel.AccessGrant, method, path string, payload []byte, classify statusClassifier) ([]byte, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.config.APIBaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("mercadolivre: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+grant.AccessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", channel.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("mercadolivre: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr MeliAPIError
		detail := ""
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			detail = apiErr.Message
		}
		return nil, classify(resp.StatusCode, detail)
	}

	return body, nil
}

// convertOrder converts one API order into the raw provider payload
func (a *MercadoLivreAdapter) convertOrder(order *MeliOrder) channel.RawOrder {
	raw := channel.RawOrder{
		PlatformCode:    channel.PlatformCodeMercadoLivre,
		ExternalOrderID: order.ID.String(),
		Status:          order.Status,
		BuyerName:       order.Buyer.Nickname,
		BuyerEmail:      order.Buyer.Email,
		TotalAmount:     order.TotalAmount.String(),
		Currency:        order.CurrencyID,
		Items:           make([]channel.RawOrderItem, 0, len(order.OrderItems)),
		PlacedAt:        order.DateCreated,
	}

	for _, item := range order.OrderItems {
		raw.Items = append(raw.Items, channel.RawOrderItem{
			PlatformProductID: item.Item.ID,
			SKU:               item.Item.SellerSKU,
			Name:              item.Item.Title,
			Quantity:          item.Quantity.String(),
			UnitPrice:         item.UnitPrice.String(),
		})
	}

	if rawBytes, err := json.Marshal(order); err == nil {
		raw.Raw = string(rawBytes)
	}
	return raw
}

// parseNumber parses a JSON number, degrading to zero on malformed input
func parseNumber(n json.Number) decimal.Decimal {
	if n == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Ensure MercadoLivreAdapter implements MarketplaceProvider
var _ channel.MarketplaceProvider = (*MercadoLivreAdapter)(nil)
