package channel

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Canonical Domain Mapper
// ---------------------------------------------------------------------------
//
// Pure transformation from raw provider payloads to canonical entities.
// No network, no storage. One malformed record returns a MappingDefect for
// that record only and never aborts the batch; missing optional fields
// degrade to zero values instead of failing.

// StatusMapper translates a platform-native status string into the canonical
// status. Implementations must be pure and total.
type StatusMapper func(raw string) OrderStatus

// MapRawOrder converts one raw provider order into a canonical order.
// Identity fields (external order id, placed-at timestamp) are required;
// everything else degrades gracefully.
func MapRawOrder(sellerID, credentialID uuid.UUID, raw RawOrder, mapStatus StatusMapper) (*CanonicalOrder, error) {
	if raw.ExternalOrderID == "" {
		return nil, fmt.Errorf("%w: missing external order id", ErrMappingDefect)
	}
	if raw.PlacedAt.IsZero() {
		return nil, fmt.Errorf("%w: order %s has no timestamp", ErrMappingDefect, raw.ExternalOrderID)
	}
	if !raw.PlatformCode.IsValid() {
		return nil, fmt.Errorf("%w: order %s has invalid platform code %q", ErrMappingDefect, raw.ExternalOrderID, raw.PlatformCode)
	}

	order := &CanonicalOrder{
		ID:              uuid.New(),
		SellerID:        sellerID,
		CredentialID:    credentialID,
		PlatformCode:    raw.PlatformCode,
		ExternalOrderID: raw.ExternalOrderID,
		Status:          mapStatus(raw.Status),
		RawStatus:       raw.Status,
		BuyerName:       raw.BuyerName,
		BuyerEmail:      raw.BuyerEmail,
		Total:           parseAmount(raw.TotalAmount),
		Currency:        raw.Currency,
		Items:           make([]OrderItem, 0, len(raw.Items)),
		PlacedAt:        raw.PlacedAt,
		RawPayload:      raw.Raw,
	}

	for _, item := range raw.Items {
		order.Items = append(order.Items, OrderItem{
			ExternalItemID:    item.ExternalItemID,
			PlatformProductID: item.PlatformProductID,
			SKU:               item.SKU,
			Name:              item.Name,
			Quantity:          parseAmount(item.Quantity),
			UnitPrice:         parseAmount(item.UnitPrice),
		})
	}

	return order, nil
}

// MapOrderBatch converts a page of raw orders, isolating per-record failures.
// The returned defects slice carries one error per unmappable record.
func MapOrderBatch(sellerID, credentialID uuid.UUID, raws []RawOrder, mapStatus StatusMapper) (orders []*CanonicalOrder, defects []error) {
	orders = make([]*CanonicalOrder, 0, len(raws))
	for _, raw := range raws {
		order, err := MapRawOrder(sellerID, credentialID, raw, mapStatus)
		if err != nil {
			defects = append(defects, err)
			continue
		}
		orders = append(orders, order)
	}
	return orders, defects
}

// parseAmount parses a decimal string, degrading to zero on malformed input
func parseAmount(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
