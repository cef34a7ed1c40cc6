package httpserver

import (
	"fmt"
	"strings"

	"valhalla/domain/orderbook"
)

type SubmitOrderRequest struct {
	Side  string `json:"side"`  // "buy" or "sell"
	Kind  string `json:"kind"`  // "limit" or "market"
	Price int64  `json:"price"` // ticks; ignored for market orders
	Qty   int64  `json:"qty"`
}

type SubmitOrderResponse struct {
	OrderID uint64            `json:"order_id"`
	State   string            `json:"state"`
	Trades  []orderbook.Trade `json:"trades"`
}

type CancelOrderRequest struct {
	OrderID uint64 `json:"order_id"`
}

type CancelOrderResponse struct {
	OrderID   uint64 `json:"order_id"`
	Remaining int64  `json:"remaining"`
}

type TopOfBook struct {
	BestBid *int64 `json:"best_bid"`
	BestAsk *int64 `json:"best_ask"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func parseSide(s string) (orderbook.Side, error) {
	switch strings.ToLower(s) {
	case "buy", "bid", "b":
		return orderbook.Bid, nil
	case "sell", "ask", "s":
		return orderbook.Ask, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

func parseKind(s string) (orderbook.Kind, error) {
	switch strings.ToLower(s) {
	case "limit", "":
		return orderbook.Limit, nil
	case "market":
		return orderbook.Market, nil
	default:
		return 0, fmt.Errorf("unknown kind %q", s)
	}
}
