package model

import "gorm.io/datatypes"

// ExecutionStatus mirrors ledger.Status; kept as a plain int column.
type ExecutionStatus int

const (
	ExecutionStatusPending   ExecutionStatus = 0
	ExecutionStatusSubmitted ExecutionStatus = 1
	ExecutionStatusFilled    ExecutionStatus = 2
	ExecutionStatusRejected  ExecutionStatus = 3
	ExecutionStatusFailed    ExecutionStatus = 4
)

type SignalModel struct {
	ID             int64    `gorm:"column:id;primaryKey"`
	SignalID       string   `gorm:"column:signal_id;uniqueIndex"`
	Symbol         string   `gorm:"column:symbol"`
	Direction      string   `gorm:"column:direction"`
	RangeLow       float64  `gorm:"column:range_low"`
	RangeHigh      float64  `gorm:"column:range_high"`
	StopLoss       *float64 `gorm:"column:stop_loss"`
	TakeProfit     *float64 `gorm:"column:take_profit"`
	Volume         float64  `gorm:"column:volume"`
	RawText        string   `gorm:"column:raw_text;type:TEXT"`
	ReceivedAtUnix int64    `gorm:"column:received_at"`
	CreatedAtUnix  int64    `gorm:"column:created_at"`
}

func (SignalModel) TableName() string { return "signals" }

type ExecutionModel struct {
	ID              int64           `gorm:"column:id;primaryKey"`
	SignalID        string          `gorm:"column:signal_id;index:idx_exec_signal"`
	Attempt         int             `gorm:"column:attempt"`
	Status          ExecutionStatus `gorm:"column:status"`
	PlatformOrderID string          `gorm:"column:platform_order_id"`
	PlatformDealID  string          `gorm:"column:platform_deal_id"`
	ErrorDetail     string          `gorm:"column:error_detail;type:TEXT"`
	RawResponse     datatypes.JSON  `gorm:"column:raw_response;type:TEXT"`
	SubmittedAtUnix int64           `gorm:"column:submitted_at"`
}

func (ExecutionModel) TableName() string { return "executions" }
