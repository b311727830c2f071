// backend-go/internal/domain/models.go
package domain

import "time"

// Store represents a store location
type Store struct {
	ID        int64   `json:"id" db:"id"`
	Name      string  `json:"name" db:"name"`
	Location  string  `json:"location" db:"location"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// SKU represents a tracked item and its metadata
type SKU struct {
	ID           int64   `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	Category     string  `json:"category" db:"category"`
	Unit         string  `json:"unit" db:"unit"`
	Cost         float64 `json:"cost" db:"cost"`
	Price        float64 `json:"price" db:"price"`
	IsPerishable bool    `json:"is_perishable" db:"is_perishable"`
}

// InventorySnapshot is the on-hand quantity observed for a store/SKU on a
// date. Exactly one snapshot exists per (store, sku, date).
type InventorySnapshot struct {
	ID      int64     `json:"id" db:"id"`
	StoreID int64     `json:"store_id" db:"store_id"`
	SKUID   int64     `json:"sku_id" db:"sku_id"`
	Date    time.Time `json:"ts_date" db:"ts_date"`
	OnHand  int       `json:"on_hand" db:"on_hand"`
}

// SalesDaily is the quantity sold for a store/SKU on a date.
type SalesDaily struct {
	ID      int64     `json:"id" db:"id"`
	StoreID int64     `json:"store_id" db:"store_id"`
	SKUID   int64     `json:"sku_id" db:"sku_id"`
	Date    time.Time `json:"ts_date" db:"ts_date"`
	QtySold float64   `json:"qty_sold" db:"qty_sold"`
}

// IsWeekend reports whether the sale fell on a Saturday or Sunday.
func (s SalesDaily) IsWeekend() bool {
	wd := s.Date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// SalesHourly is an hourly-granularity sales observation.
type SalesHourly struct {
	ID        int64     `json:"id" db:"id"`
	StoreID   int64     `json:"store_id" db:"store_id"`
	SKUID     int64     `json:"sku_id" db:"sku_id"`
	Timestamp time.Time `json:"ts_datetime" db:"ts_datetime"`
	HourOfDay int       `json:"hour_of_day" db:"hour_of_day"` // 0-23
	DayOfWeek int       `json:"day_of_week" db:"day_of_week"` // 0=Monday .. 6=Sunday
	QtySold   float64   `json:"qty_sold" db:"qty_sold"`
}

// Receipt is the quantity received for a store/SKU on a date.
type Receipt struct {
	ID          int64     `json:"id" db:"id"`
	StoreID     int64     `json:"store_id" db:"store_id"`
	SKUID       int64     `json:"sku_id" db:"sku_id"`
	Date        time.Time `json:"ts_date" db:"ts_date"`
	QtyReceived float64   `json:"qty_received" db:"qty_received"`
}

// Transfer is an inter-store stock movement.
type Transfer struct {
	ID          int64          `json:"id" db:"id"`
	FromStoreID int64          `json:"from_store_id" db:"from_store_id"`
	ToStoreID   int64          `json:"to_store_id" db:"to_store_id"`
	SKUID       int64          `json:"sku_id" db:"sku_id"`
	Qty         float64        `json:"qty" db:"qty"`
	Status      TransferStatus `json:"status" db:"status"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	ReceivedAt  *time.Time     `json:"received_at,omitempty" db:"received_at"`
}

// CycleCount is a physical recount of on-hand inventory.
type CycleCount struct {
	ID         int64     `json:"id" db:"id"`
	StoreID    int64     `json:"store_id" db:"store_id"`
	SKUID      int64     `json:"sku_id" db:"sku_id"`
	Date       time.Time `json:"ts_date" db:"ts_date"`
	CountedQty int       `json:"counted_qty" db:"counted_qty"`
}

// AnomalyEvent records an unexplained inventory change for a store/SKU/date.
// At most one event exists per (store, sku, date).
type AnomalyEvent struct {
	ID          int64     `json:"id" db:"id"`
	StoreID     int64     `json:"store_id" db:"store_id"`
	SKUID       int64     `json:"sku_id" db:"sku_id"`
	Date        time.Time `json:"ts_date" db:"ts_date"`
	Residual    float64   `json:"residual" db:"residual"`
	Severity    string    `json:"severity" db:"severity"`
	Explanation string    `json:"explanation" db:"explanation_hint"`
}

// TransferRecommendation is one suggested stock movement from an optimizer
// pass. Pending rows are superseded by the next pass.
type TransferRecommendation struct {
	ID           int64                `json:"id" db:"id"`
	FromStoreID  int64                `json:"from_store_id" db:"from_store_id"`
	ToStoreID    int64                `json:"to_store_id" db:"to_store_id"`
	SKUID        int64                `json:"sku_id" db:"sku_id"`
	Qty          int                  `json:"qty" db:"qty"`
	UrgencyScore float64              `json:"urgency_score" db:"urgency_score"`
	Rationale    string               `json:"rationale" db:"rationale"`
	Status       RecommendationStatus `json:"status" db:"status"`
	CreatedAt    time.Time            `json:"created_at" db:"created_at"`

	// Display fields resolved by the collaborator, not persisted columns.
	FromStoreName string   `json:"from_store_name,omitempty" db:"-"`
	ToStoreName   string   `json:"to_store_name,omitempty" db:"-"`
	SKUName       string   `json:"sku_name,omitempty" db:"-"`
	DistanceKM    *float64 `json:"distance_km,omitempty" db:"-"`
	TransferCost  *float64 `json:"transfer_cost,omitempty" db:"-"`
}

// PrepRecommendation tells a kitchen when and how much of an item to prep.
type PrepRecommendation struct {
	ID        int64      `json:"id" db:"id"`
	StoreID   int64      `json:"store_id" db:"store_id"`
	SKUID     int64      `json:"sku_id" db:"sku_id"`
	SKUName   string     `json:"sku_name,omitempty" db:"-"`
	Category  string     `json:"category,omitempty" db:"-"`
	PrepTime  time.Time  `json:"prep_time" db:"prep_time"`
	QtyToPrep int        `json:"qty_to_prep" db:"qty_to_prep"`
	Reason    string     `json:"reason" db:"reason"`
	Priority  string     `json:"priority" db:"priority"`
	Status    PrepStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// StoreDistance is a directional distance/cost entry between two stores.
// A missing pair is treated as a large default distance by the optimizer.
type StoreDistance struct {
	FromStoreID  int64   `json:"from_store_id" db:"from_store_id"`
	ToStoreID    int64   `json:"to_store_id" db:"to_store_id"`
	DistanceKM   float64 `json:"distance_km" db:"distance_km"`
	TransferCost float64 `json:"transfer_cost" db:"transfer_cost"`
}

// StorePair identifies a store/SKU combination with recent activity.
type StorePair struct {
	StoreID int64 `json:"store_id" db:"store_id"`
	SKUID   int64 `json:"sku_id" db:"sku_id"`
}
