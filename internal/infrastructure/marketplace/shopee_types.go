package marketplace

import "encoding/json"

// ---------------------------------------------------------------------------
// Shopee API response types
// ---------------------------------------------------------------------------

// ShopeeEnvelope is the common envelope of every Shopee v2 response
type ShopeeEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// IsSuccess returns true when the response carries no API-level error
func (e *ShopeeEnvelope) IsSuccess() bool {
	return e.Error == ""
}

// ShopeeOrderListResponse is the response of /api/v2/order/get_order_list
type ShopeeOrderListResponse struct {
	ShopeeEnvelope
	Response *ShopeeOrderList `json:"response"`
}

// ShopeeOrderList holds the cursor-paged list of order identifiers
type ShopeeOrderList struct {
	OrderList  []ShopeeOrderRef `json:"order_list"`
	More       bool             `json:"more"`
	NextCursor string           `json:"next_cursor"`
}

// ShopeeOrderRef identifies one order in a list page
type ShopeeOrderRef struct {
	OrderSN string `json:"order_sn"`
}

// ShopeeOrderDetailResponse is the response of /api/v2/order/get_order_detail
type ShopeeOrderDetailResponse struct {
	ShopeeEnvelope
	Response *ShopeeOrderDetailList `json:"response"`
}

// ShopeeOrderDetailList holds the detailed order payloads
type ShopeeOrderDetailList struct {
	OrderList []ShopeeOrder `json:"order_list"`
}

// ShopeeOrder is one order as returned by the order detail API
type ShopeeOrder struct {
	OrderSN       string            `json:"order_sn"`
	OrderStatus   string            `json:"order_status"`
	CreateTime    int64             `json:"create_time"`
	UpdateTime    int64             `json:"update_time"`
	TotalAmount   json.Number       `json:"total_amount"`
	Currency      string            `json:"currency"`
	BuyerUsername string            `json:"buyer_username"`
	ItemList      []ShopeeOrderItem `json:"item_list"`
}

// ShopeeOrderItem is one line item of an order
type ShopeeOrderItem struct {
	ItemID                 json.Number `json:"item_id"`
	ItemName               string      `json:"item_name"`
	ItemSKU                string      `json:"item_sku"`
	ModelQuantityPurchased json.Number `json:"model_quantity_purchased"`
	ModelDiscountedPrice   json.Number `json:"model_discounted_price"`
}

// ShopeeItemInfoResponse is the response of /api/v2/product/get_item_base_info
type ShopeeItemInfoResponse struct {
	ShopeeEnvelope
	Response *ShopeeItemInfoList `json:"response"`
}

// ShopeeItemInfoList holds the item payloads
type ShopeeItemInfoList struct {
	ItemList []ShopeeItem `json:"item_list"`
}

// ShopeeItem is one listing as returned by the item base info API
type ShopeeItem struct {
	ItemID     json.Number      `json:"item_id"`
	ItemName   string           `json:"item_name"`
	ItemStatus string           `json:"item_status"`
	StockInfo  *ShopeeStockInfo `json:"stock_info_v2"`
	PriceInfo  []ShopeePrice    `json:"price_info"`
}

// ShopeeStockInfo holds aggregated stock figures
type ShopeeStockInfo struct {
	SummaryInfo ShopeeStockSummary `json:"summary_info"`
}

// ShopeeStockSummary is the sellable stock total
type ShopeeStockSummary struct {
	TotalAvailableStock json.Number `json:"total_available_stock"`
}

// ShopeePrice is one price entry of a listing
type ShopeePrice struct {
	CurrentPrice json.Number `json:"current_price"`
}

// ShopeeAddItemResponse is the response of /api/v2/product/add_item
type ShopeeAddItemResponse struct {
	ShopeeEnvelope
	Response *ShopeeAddItemResult `json:"response"`
}

// ShopeeAddItemResult carries the assigned item ID of a new listing
type ShopeeAddItemResult struct {
	ItemID json.Number `json:"item_id"`
}
