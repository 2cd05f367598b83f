package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockbridge/backend/internal/domain/channel"
)

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestShopeeConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *ShopeeConfig
		wantErr error
	}{
		{
			name:    "valid config",
			config:  &ShopeeConfig{PartnerID: 2005001, PartnerKey: "test_partner_key"},
			wantErr: nil,
		},
		{
			name:    "missing partner id",
			config:  &ShopeeConfig{PartnerKey: "test_partner_key"},
			wantErr: ErrShopeeConfigMissingPartnerID,
		},
		{
			name:    "missing partner key",
			config:  &ShopeeConfig{PartnerID: 2005001},
			wantErr: ErrShopeeConfigMissingPartnerKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, ShopeeProductionAPIURL, tt.config.APIBaseURL)
				assert.True(t, tt.config.TimeoutSeconds > 0)
			}
		})
	}
}

func TestShopeeConfig_Sign(t *testing.T) {
	config := &ShopeeConfig{PartnerID: 2005001, PartnerKey: "test_partner_key"}

	path := "/api/v2/order/get_order_list"
	timestamp := int64(1704067200)

	// Sign should be deterministic
	sign1 := config.Sign(path, timestamp, "token", "98765")
	sign2 := config.Sign(path, timestamp, "token", "98765")
	assert.Equal(t, sign1, sign2)
	assert.Len(t, sign1, 64) // HMAC-SHA256 produces 64 hex characters

	// Any component change produces a different signature
	assert.NotEqual(t, sign1, config.Sign(path, timestamp+1, "token", "98765"))
	assert.NotEqual(t, sign1, config.Sign(path, timestamp, "other", "98765"))
	assert.NotEqual(t, sign1, config.Sign(path, timestamp, "token", "11111"))
}

// ---------------------------------------------------------------------------
// Adapter Tests
// ---------------------------------------------------------------------------

func TestNewShopeeAdapter(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		adapter, err := NewShopeeAdapter(NewShopeeConfig(2005001, "test_partner_key"))
		require.NoError(t, err)
		assert.NotNil(t, adapter)
		assert.Equal(t, channel.PlatformCodeShopee, adapter.PlatformCode())
	})

	t.Run("invalid config", func(t *testing.T) {
		adapter, err := NewShopeeAdapter(&ShopeeConfig{})
		assert.Error(t, err)
		assert.Nil(t, adapter)
	})
}

func TestShopeeAdapter_FetchOrdersSince(t *testing.T) {
	grant := testShopeeGrant()
	since := time.Now().Add(-24 * time.Hour)

	t.Run("cursor paging and detail batches", func(t *testing.T) {
		var listCalls, detailCalls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.Query()

			// Every call carries the shop-level signature parameters
			assert.Equal(t, "2005001", query.Get("partner_id"))
			assert.Equal(t, grant.AccessToken, query.Get("access_token"))
			assert.Equal(t, grant.ExternalAccountID, query.Get("shop_id"))
			assert.Len(t, query.Get("sign"), 64)
			assert.NotEmpty(t, query.Get("timestamp"))

			switch r.URL.Path {
			case "/api/v2/order/get_order_list":
				listCalls++
				resp := ShopeeOrderListResponse{}
				if query.Get("cursor") == "" {
					resp.Response = &ShopeeOrderList{
						OrderList:  []ShopeeOrderRef{{OrderSN: "2405SN001"}, {OrderSN: "2405SN002"}},
						More:       true,
						NextCursor: "page2",
					}
				} else {
					assert.Equal(t, "page2", query.Get("cursor"))
					resp.Response = &ShopeeOrderList{
						OrderList: []ShopeeOrderRef{{OrderSN: "2405SN003"}},
					}
				}
				json.NewEncoder(w).Encode(resp)
			case "/api/v2/order/get_order_detail":
				detailCalls++
				assert.Equal(t, "2405SN001,2405SN002,2405SN003", query.Get("order_sn_list"))
				json.NewEncoder(w).Encode(ShopeeOrderDetailResponse{
					Response: &ShopeeOrderDetailList{
						OrderList: []ShopeeOrder{
							shopeeTestOrder("2405SN001", "READY_TO_SHIP"),
							shopeeTestOrder("2405SN002", "COMPLETED"),
							shopeeTestOrder("2405SN003", "UNPAID"),
						},
					},
				})
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))
		defer server.Close()

		adapter := newTestShopeeAdapter(t, server.URL)
		orders, err := adapter.FetchOrdersSince(context.Background(), grant, since)
		require.NoError(t, err)
		require.Len(t, orders, 3)
		assert.Equal(t, 2, listCalls)
		assert.Equal(t, 1, detailCalls)

		first := orders[0]
		assert.Equal(t, channel.PlatformCodeShopee, first.PlatformCode)
		assert.Equal(t, "2405SN001", first.ExternalOrderID)
		assert.Equal(t, "READY_TO_SHIP", first.Status)
		assert.Equal(t, "buyer_sg", first.BuyerName)
		assert.Equal(t, "125.50", first.TotalAmount)
		assert.Equal(t, "BRL", first.Currency)
		assert.False(t, first.PlacedAt.IsZero())
		require.Len(t, first.Items, 1)
		assert.Equal(t, "800123", first.Items[0].PlatformProductID)
		assert.Equal(t, "SKU-42", first.Items[0].SKU)
	})

	t.Run("envelope auth error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(ShopeeOrderListResponse{
				ShopeeEnvelope: ShopeeEnvelope{Error: "invalid_access_token", Message: "Invalid access_token."},
			})
		}))
		defer server.Close()

		adapter := newTestShopeeAdapter(t, server.URL)
		orders, err := adapter.FetchOrdersSince(context.Background(), grant, since)
		assert.Nil(t, orders)
		assert.True(t, channel.IsAuthExpired(err))
	})

	t.Run("404 on order search is a failed request, not a gone listing", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		adapter := newTestShopeeAdapter(t, server.URL)
		_, err := adapter.FetchOrdersSince(context.Background(), grant, since)
		assert.ErrorIs(t, err, channel.ErrPlatformRequestFailed)
		assert.False(t, channel.IsNotFound(err))
	})

	t.Run("envelope server error is transient", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(ShopeeOrderListResponse{
				ShopeeEnvelope: ShopeeEnvelope{Error: "error_server", Message: "System error."},
			})
		}))
		defer server.Close()

		adapter := newTestShopeeAdapter(t, server.URL)
		_, err := adapter.FetchOrdersSince(context.Background(), grant, since)
		assert.True(t, channel.IsTransient(err))
	})

	t.Run("clamps window to 15 days", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v2/order/get_order_list" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			from := r.URL.Query().Get("time_from")
			require.NotEmpty(t, from)
			fromUnix, err := strconv.ParseInt(from, 10, 64)
			require.NoError(t, err)
			assert.True(t, time.Since(time.Unix(fromUnix, 0)) <= 15*24*time.Hour+time.Minute)
			json.NewEncoder(w).Encode(ShopeeOrderListResponse{Response: &ShopeeOrderList{}})
		}))
		defer server.Close()

		adapter := newTestShopeeAdapter(t, server.URL)
		orders, err := adapter.FetchOrdersSince(context.Background(), grant, time.Now().AddDate(0, -3, 0))
		require.NoError(t, err)
		assert.Empty(t, orders)
	})
}

func TestShopeeAdapter_FetchListingState(t *testing.T) {
	grant := testShopeeGrant()

	t.Run("normal listing", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v2/product/get_item_base_info", r.URL.Path)
			assert.Equal(t, "800123", r.URL.Query().Get("item_id_list"))
			json.NewEncoder(w).Encode(ShopeeItemInfoResponse{
				Response: &ShopeeItemInfoList{
					ItemList: []ShopeeItem{
						{
							ItemID:     json.Number("800123"),
							ItemName:   "Garrafa térmica",
							ItemStatus: "NORMAL",
							StockInfo: &ShopeeStockInfo{
								SummaryInfo: ShopeeStockSummary{TotalAvailableStock: json.Number("7")},
							},
							PriceInfo: []ShopeePrice{{CurrentPrice: json.Number("125.50")}},
						},
					},
				},
			})
		}))
		defer server.Close()

		adapter := newTestShopeeAdapter(t, server.URL)
		state, err := adapter.FetchListingState(context.Background(), grant, "800123")
		require.NoError(t, err)
		assert.Equal(t, "800123", state.PlatformProductID)
		assert.True(t, state.Stock.Equal(decimal.NewFromInt(7)))
		assert.True(t, state.Price.Equal(decimal.RequireFromString("125.50")))
		assert.True(t, state.Active)
	})

	t.Run("unlisted item still exists", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(ShopeeItemInfoResponse{
				Response: &ShopeeItemInfoList{
					ItemList: []ShopeeItem{{ItemID: json.Number("800123"), ItemStatus: "UNLIST"}},
				},
			})
		}))
		defer server.Close()

		adapter := newTestShopeeAdapter(t, server.URL)
		state, err := adapter.FetchListingState(context.Background(), grant, "800123")
		require.NoError(t, err)
		assert.False(t, state.Active)
	})

	t.Run("deleted listing reported as gone", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(ShopeeItemInfoResponse{
				Response: &ShopeeItemInfoList{
					ItemList: []ShopeeItem{{ItemID: json.Number("800123"), ItemStatus: "DELETED"}},
				},
			})
		}))
		defer server.Close()

		adapter := newTestShopeeAdapter(t, server.URL)
		_, err := adapter.FetchListingState(context.Background(), grant, "800123")
		assert.True(t, channel.IsNotFound(err))
	})

	t.Run("not found error code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(ShopeeItemInfoResponse{
				ShopeeEnvelope: ShopeeEnvelope{Error: "error_item_not_found", Message: "Item not found."},
			})
		}))
		defer server.Close()

		adapter := newTestShopeeAdapter(t, server.URL)
		_, err := adapter.FetchListingState(context.Background(), grant, "999999")
		assert.True(t, channel.IsNotFound(err))
	})

	t.Run("empty item list reported as gone", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(ShopeeItemInfoResponse{Response: &ShopeeItemInfoList{}})
		}))
		defer server.Close()

		adapter := newTestShopeeAdapter(t, server.URL)
		_, err := adapter.FetchListingState(context.Background(), grant, "800123")
		assert.True(t, channel.IsNotFound(err))
	})
}

func TestShopeeAdapter_Publish(t *testing.T) {
	grant := testShopeeGrant()

	t.Run("returns assigned item ID", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v2/product/add_item", r.URL.Path)

			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "Garrafa térmica", req["item_name"])
			assert.Equal(t, "SKU-42", req["item_sku"])

			json.NewEncoder(w).Encode(ShopeeAddItemResponse{
				Response: &ShopeeAddItemResult{ItemID: json.Number("800999")},
			})
		}))
		defer server.Close()

		adapter := newTestShopeeAdapter(t, server.URL)
		itemID, err := adapter.Publish(context.Background(), grant, channel.ListingDraft{
			ProductID: uuid.New(),
			SKU:       "SKU-42",
			Title:     "Garrafa térmica",
			Price:     decimal.RequireFromString("125.50"),
			Quantity:  decimal.NewFromInt(7),
		})
		require.NoError(t, err)
		assert.Equal(t, "800999", itemID)
	})
}

func TestShopeeAdapter_MapStatus(t *testing.T) {
	adapter, err := NewShopeeAdapter(NewShopeeConfig(2005001, "test_partner_key"))
	require.NoError(t, err)

	tests := []struct {
		raw  string
		want channel.OrderStatus
	}{
		{"UNPAID", channel.OrderStatusPending},
		{"READY_TO_SHIP", channel.OrderStatusPaid},
		{"PROCESSED", channel.OrderStatusProcessing},
		{"SHIPPED", channel.OrderStatusShipped},
		{"TO_CONFIRM_RECEIVE", channel.OrderStatusShipped},
		{"COMPLETED", channel.OrderStatusDelivered},
		{"CANCELLED", channel.OrderStatusCancelled},
		{"TO_RETURN", channel.OrderStatusRefunded},
		{"SOMETHING_ELSE", channel.OrderStatusProcessing},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, adapter.MapStatus(tt.raw))
		})
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestShopeeAdapter(t *testing.T, serverURL string) *ShopeeAdapter {
	adapter, err := NewShopeeAdapter(&ShopeeConfig{
		PartnerID:         2005001,
		PartnerKey:        "test_partner_key",
		APIBaseURL:        serverURL,
		TimeoutSeconds:    5,
		PageSize:          50,
		RequestsPerSecond: 1000,
	})
	require.NoError(t, err)
	return adapter
}

func testShopeeGrant() channel.AccessGrant {
	return channel.AccessGrant{
		CredentialID:      uuid.New(),
		SellerID:          uuid.New(),
		PlatformCode:      channel.PlatformCodeShopee,
		ExternalAccountID: "98765",
		AccessToken:       "shopee-test-token",
	}
}

func shopeeTestOrder(orderSN, status string) ShopeeOrder {
	return ShopeeOrder{
		OrderSN:       orderSN,
		OrderStatus:   status,
		CreateTime:    time.Now().Add(-2 * time.Hour).Unix(),
		TotalAmount:   json.Number("125.50"),
		Currency:      "BRL",
		BuyerUsername: "buyer_sg",
		ItemList: []ShopeeOrderItem{
			{
				ItemID:                 json.Number("800123"),
				ItemName:               "Garrafa térmica",
				ItemSKU:                "SKU-42",
				ModelQuantityPurchased: json.Number("1"),
				ModelDiscountedPrice:   json.Number("125.50"),
			},
		},
	}
}
