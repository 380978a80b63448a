package model

import "github.com/google/uuid"

// Trade records one settled buy/sell pair. Price is always the sell order's price.
type Trade struct {
	ID          string  `json:"trade_id"`
	SecurityID  int     `json:"security_id"`
	Price       float64 `json:"price"`
	Quantity    int64   `json:"quantity"`
	BuyOrderID  string  `json:"buy_order_id"`
	SellOrderID string  `json:"sell_order_id"`
}

// NewTrade settles buy against sell at the sell price for the smaller quantity.
func NewTrade(buy, sell *Order) Trade {
	return Trade{
		ID:          uuid.NewString(),
		SecurityID:  sell.SecurityID,
		Price:       sell.Price,
		Quantity:    min(buy.Quantity, sell.Quantity),
		BuyOrderID:  buy.ID,
		SellOrderID: sell.ID,
	}
}
