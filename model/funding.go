package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus 充提/划转状态
type TransferStatus string

const (
	TransferStatusPending TransferStatus = "pending"
	TransferStatusOK      TransferStatus = "ok"
	TransferStatusFailed  TransferStatus = "failed"
)

// Deposit 充值记录
type Deposit struct {
	ID        string          `json:"id"`
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"`
	Network   string          `json:"network,omitempty"`
	Address   string          `json:"address,omitempty"`
	TxID      string          `json:"tx_id,omitempty"`
	Status    TransferStatus  `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
}

// Withdrawal 提现记录
type Withdrawal struct {
	ID        string          `json:"id"`
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"`
	Fee       decimal.Decimal `json:"fee"`
	Network   string          `json:"network,omitempty"`
	Address   string          `json:"address"`
	Tag       string          `json:"tag,omitempty"`
	TxID      string          `json:"tx_id,omitempty"`
	Status    TransferStatus  `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
}

// WithdrawRequest 提现请求
type WithdrawRequest struct {
	Currency string
	Amount   decimal.Decimal
	Address  string
	Tag      string
	Network  string
}

// WalletType 钱包类型（用于划转）
type WalletType string

const (
	WalletSpot    WalletType = "spot"
	WalletFutures WalletType = "futures"
	WalletMargin  WalletType = "margin"
)

// Transfer 钱包间划转
type Transfer struct {
	ID        string          `json:"id"`
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"`
	From      WalletType      `json:"from"`
	To        WalletType      `json:"to"`
	Status    TransferStatus  `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
}

// IncomeType 收益类型
type IncomeType string

const (
	IncomeRealizedPnl IncomeType = "realized_pnl"
	IncomeFunding     IncomeType = "funding_fee"
	IncomeCommission  IncomeType = "commission"
	IncomeTransfer    IncomeType = "transfer"
	IncomeOther       IncomeType = "other"
)

// Income 合约账户收益流水
type Income struct {
	Symbol    string          `json:"symbol,omitempty"`
	Type      IncomeType      `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Asset     string          `json:"asset"`
	TradeID   string          `json:"trade_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// ForcedOrder 强平/ADL 订单
type ForcedOrder struct {
	Order
	// Reason 强平原因（liquidation / adl）
	Reason string `json:"reason"`
}

// HistoryQuery 历史类查询的公共过滤条件
type HistoryQuery struct {
	// Symbol 平台内部交易对，空表示全部
	Symbol string
	// Currency 币种，用于充提记录
	Currency string
	Since    time.Time
	Limit    int
}
