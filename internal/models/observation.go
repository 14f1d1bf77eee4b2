package models

import (
	"github.com/shopspring/decimal"
	"time"
)

// TimestampLayout is how observations are written to and read from the history log.
const TimestampLayout = "2006-01-02 15:04:05"

// Observation 一次价格观测
type Observation struct {
	Timestamp time.Time       `json:"timestamp" db:"recorded_at"`
	Price     decimal.Decimal `json:"price" db:"price"`
}

// PriceEvent is published to subscribers after an observation is recorded.
type PriceEvent struct {
	RunID     string          `json:"run_id"`
	Timestamp time.Time       `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
	Alert     bool            `json:"alert"`
}
