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
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/stockbridge/backend/internal/domain/channel"
)

// shopeeDetailBatchSize is the maximum order_sn_list size accepted by the
// order detail endpoint
const shopeeDetailBatchSize = 50

// ShopeeAdapter implements MarketplaceProvider for Shopee. Every shop-level
// call is signed with HMAC-SHA256 over partner ID, path, timestamp, access
// token and shop ID; the external account ID in the grant is the shop ID.
type ShopeeAdapter struct {
	config     *ShopeeConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewShopeeAdapter creates a new Shopee adapter
func NewShopeeAdapter(config *ShopeeConfig) (*ShopeeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ShopeeAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
	}, nil
}

// PlatformCode returns the platform code this adapter handles
func (a *ShopeeAdapter) PlatformCode() channel.PlatformCode {
	return channel.PlatformCodeShopee
}

// FetchOrdersSince pulls all orders updated at or after since. The list
// endpoint is cursor-paged and returns only order numbers; details are
// resolved in batches afterwards.
func (a *ShopeeAdapter) FetchOrdersSince(ctx context.Context, grant channel.AccessGrant, since time.Time) ([]channel.RawOrder, error) {
	orderSNs, err := a.listOrderSNs(ctx, grant, since)
	if err != nil {
		return nil, err
	}

	orders := make([]channel.RawOrder, 0, len(orderSNs))
	for start := 0; start < len(orderSNs); start += shopeeDetailBatchSize {
		end := start + shopeeDetailBatchSize
		if end > len(orderSNs) {
			end = len(orderSNs)
		}
		batch, err := a.fetchOrderDetails(ctx, grant, orderSNs[start:end])
		if err != nil {
			return nil, err
		}
		orders = append(orders, batch...)
	}
	return orders, nil
}

// listOrderSNs walks the cursor pagination of get_order_list
func (a *ShopeeAdapter) listOrderSNs(ctx context.Context, grant channel.AccessGrant, since time.Time) ([]string, error) {
	orderSNs := make([]string, 0)
	cursor := ""

	// The API caps the window at 15 days; clamp and let the watermark walk
	// forward on subsequent sweeps
	now := time.Now()
	from := since
	if now.Sub(from) > 15*24*time.Hour {
		from = now.Add(-15 * 24 * time.Hour)
	}

	for {
		query := url.Values{}
		query.Set("time_range_field", "update_time")
		query.Set("time_from", strconv.FormatInt(from.Unix(), 10))
		query.Set("time_to", strconv.FormatInt(now.Unix(), 10))
		query.Set("page_size", strconv.Itoa(a.config.PageSize))
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		body, err := a.doRequest(ctx, grant, http.MethodGet, "/api/v2/order/get_order_list", query, nil, classifyHTTPStatus)
		if err != nil {
			return nil, err
		}

		var resp ShopeeOrderListResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: %v", channel.ErrPlatformInvalidResponse, err)
		}
		if err := a.checkEnvelope(&resp.ShopeeEnvelope); err != nil {
			return nil, err
		}
		if resp.Response == nil {
			return nil, channel.ErrPlatformInvalidResponse
		}

		for _, ref := range resp.Response.OrderList {
			orderSNs = append(orderSNs, ref.OrderSN)
		}

		if !resp.Response.More || resp.Response.NextCursor == "" {
			break
		}
		cursor = resp.Response.NextCursor
	}

	return orderSNs, nil
}

// fetchOrderDetails resolves one batch of order numbers into full payloads
func (a *ShopeeAdapter) fetchOrderDetails(ctx context.Context, grant channel.AccessGrant, orderSNs []string) ([]channel.RawOrder, error) {
	query := url.Values{}
	query.Set("order_sn_list", strings.Join(orderSNs, ","))
	query.Set("response_optional_fields", "buyer_username,item_list,total_amount,currency")

	body, err := a.doRequest(ctx, grant, http.MethodGet, "/api/v2/order/get_order_detail", query, nil, classifyHTTPStatus)
	if err != nil {
		return nil, err
	}

	var resp ShopeeOrderDetailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", channel.ErrPlatformInvalidResponse, err)
	}
	if err := a.checkEnvelope(&resp.ShopeeEnvelope); err != nil {
		return nil, err
	}
	if resp.Response == nil {
		return nil, channel.ErrPlatformInvalidResponse
	}

	orders := make([]channel.RawOrder, 0, len(resp.Response.OrderList))
	for i := range resp.Response.OrderList {
		orders = append(orders, a.convertOrder(&resp.Response.OrderList[i]))
	}
	return orders, nil
}

// FetchListingState returns the current remote state of a listing via
// get_item_base_info. An empty item list for a known ID means the listing is
// gone; a deleted item status means the same.
func (a *ShopeeAdapter) FetchListingState(ctx context.Context, grant channel.AccessGrant, platformProductID string) (*channel.RemoteListingState, error) {
	query := url.Values{}
	query.Set("item_id_list", platformProductID)
	query.Set("need_complaint_policy", "false")

	body, err := a.doRequest(ctx, grant, http.MethodGet, "/api/v2/product/get_item_base_info", query, nil, classifyListingHTTPStatus)
	if err != nil {
		return nil, err
	}

	var resp ShopeeItemInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", channel.ErrPlatformInvalidResponse, err)
	}
	if resp.Error == "error_item_not_found" {
		return nil, fmt.Errorf("%w: item %s", channel.ErrListingNotFound, platformProductID)
	}
	if err := a.checkEnvelope(&resp.ShopeeEnvelope); err != nil {
		return nil, err
	}
	if resp.Response == nil || len(resp.Response.ItemList) == 0 {
		return nil, fmt.Errorf("%w: item %s", channel.ErrListingNotFound, platformProductID)
	}

	item := resp.Response.ItemList[0]
	if item.ItemStatus == "DELETED" || item.ItemStatus == "BANNED" {
		return nil, fmt.Errorf("%w: item %s is %s", channel.ErrListingNotFound, platformProductID, item.ItemStatus)
	}

	state := &channel.RemoteListingState{
		PlatformProductID: item.ItemID.String(),
		Active:            item.ItemStatus == "NORMAL",
		CheckedAt:         time.Now(),
	}
	if item.StockInfo != nil {
		state.Stock = parseNumber(item.StockInfo.SummaryInfo.TotalAvailableStock)
	}
	if len(item.PriceInfo) > 0 {
		state.Price = parseNumber(item.PriceInfo[0].CurrentPrice)
	}
	return state, nil
}

// Publish creates a listing via add_item and returns the assigned item ID
func (a *ShopeeAdapter) Publish(ctx context.Context, grant channel.AccessGrant, draft channel.ListingDraft) (string, error) {
	price, _ := draft.Price.Float64()
	payload, err := json.Marshal(map[string]any{
		"item_name":      draft.Title,
		"item_sku":       draft.SKU,
		"original_price": price,
		"normal_stock":   draft.Quantity.IntPart(),
	})
	if err != nil {
		return "", fmt.Errorf("shopee: failed to encode publish request: %w", err)
	}

	body, err := a.doRequest(ctx, grant, http.MethodPost, "/api/v2/product/add_item", url.Values{}, payload, classifyHTTPStatus)
	if err != nil {
		return "", err
	}

	var resp ShopeeAddItemResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", channel.ErrPlatformInvalidResponse, err)
	}
	if err := a.checkEnvelope(&resp.ShopeeEnvelope); err != nil {
		return "", err
	}
	if resp.Response == nil || resp.Response.ItemID.String() == "" {
		return "", fmt.Errorf("%w: publish response has no item id", channel.ErrPlatformInvalidResponse)
	}
	return resp.Response.ItemID.String(), nil
}

// MapStatus translates a Shopee order status into the canonical status
func (a *ShopeeAdapter) MapStatus(raw string) channel.OrderStatus {
	switch raw {
	case "UNPAID":
		return channel.OrderStatusPending
	case "READY_TO_SHIP":
		return channel.OrderStatusPaid
	case "PROCESSED", "IN_CANCEL":
		return channel.OrderStatusProcessing
	case "SHIPPED", "TO_CONFIRM_RECEIVE":
		return channel.OrderStatusShipped
	case "COMPLETED":
		return channel.OrderStatusDelivered
	case "CANCELLED":
		return channel.OrderStatusCancelled
	case "TO_RETURN":
		return channel.OrderStatusRefunded
	default:
		return channel.OrderStatusProcessing
	}
}

// checkEnvelope maps API-level error codes into the domain taxonomy
func (a *ShopeeAdapter) checkEnvelope(env *ShopeeEnvelope) error {
	if env.IsSuccess() {
		return nil
	}
	switch env.Error {
	case "error_auth", "invalid_access_token", "error_permission":
		return fmt.Errorf("%w: %s - %s", channel.ErrAuthExpired, env.Error, env.Message)
	case "error_server":
		return fmt.Errorf("%w: %s - %s", channel.ErrPlatformUnavailable, env.Error, env.Message)
	default:
		return fmt.Errorf("%w: %s - %s", channel.ErrPlatformRequestFailed, env.Error, env.Message)
	}
}

// doRequest performs one signed call against the Shopee API
func (a *ShopeeAdapter) doRequest(ctx context.Context, grant channel.AccessGrant, method, path string, query url.Values, payload []byte, classify statusClassifier) ([]byte, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	timestamp := time.Now().Unix()
	query.Set("partner_id", strconv.FormatInt(a.config.PartnerID, 10))
	query.Set("timestamp", strconv.FormatInt(timestamp, 10))
	query.Set("access_token", grant.AccessToken)
	query.Set("shop_id", grant.ExternalAccountID)
	query.Set("sign", a.config.Sign(path, timestamp, grant.AccessToken, grant.ExternalAccountID))

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.config.APIBaseURL+path+"?"+query.Encode(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("shopee: failed to create request: %w", err)
	}
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
		return nil, fmt.Errorf("shopee: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, classify(resp.StatusCode, "")
	}
	return body, nil
}

// convertOrder converts one API order into the raw provider payload
func (a *ShopeeAdapter) convertOrder(order *ShopeeOrder) channel.RawOrder {
	raw := channel.RawOrder{
		PlatformCode:    channel.PlatformCodeShopee,
		ExternalOrderID: order.OrderSN,
		Status:          order.OrderStatus,
		BuyerName:       order.BuyerUsername,
		TotalAmount:     order.TotalAmount.String(),
		Currency:        order.Currency,
		Items:           make([]channel.RawOrderItem, 0, len(order.ItemList)),
	}
	if order.CreateTime > 0 {
		raw.PlacedAt = time.Unix(order.CreateTime, 0).UTC()
	}

	for _, item := range order.ItemList {
		raw.Items = append(raw.Items, channel.RawOrderItem{
			PlatformProductID: item.ItemID.String(),
			SKU:               item.ItemSKU,
			Name:              item.ItemName,
			Quantity:          item.ModelQuantityPurchased.String(),
			UnitPrice:         item.ModelDiscountedPrice.String(),
		})
	}

	if rawBytes, err := json.Marshal(order); err == nil {
		raw.Raw = string(rawBytes)
	}
	return raw
}

// Ensure ShopeeAdapter implements MarketplaceProvider
var _ channel.MarketplaceProvider = (*ShopeeAdapter)(nil)
