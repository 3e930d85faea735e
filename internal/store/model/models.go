package model

import (
	"time"

	"gorm.io/datatypes"
)

// ConfigEntry is one durable key/value pair.
type ConfigEntry struct {
	Key   string `gorm:"primaryKey;size:64" json:"key"`
	Value string `gorm:"size:256" json:"value"`
}

func (ConfigEntry) TableName() string { return "config" }

// TradeRecord is the immutable outcome of one closed position.
type TradeRecord struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Symbol       string         `gorm:"size:32;index" json:"symbol"`
	EntryPrice   float64        `json:"entry_price"`
	ExitPrice    float64        `json:"exit_price"`
	Quantity     float64        `json:"quantity"`
	Leverage     int            `json:"leverage"`
	Outcome      string         `gorm:"size:16;index" json:"outcome"`
	RealizedPnl  float64        `json:"realized_pnl"`
	OrderPayload datatypes.JSON `json:"order_payload,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (TradeRecord) TableName() string { return "trades" }
