// Package orderbook implements the in-memory limit order book matching
// engine. It maintains two red-black trees of price levels for the bid
// and ask sides, matches incoming orders under strict price-time
// priority, and records every execution in an append-only trade log.
//
// The book is single-writer and deterministic: given the same sequence
// of submits and cancels it produces the same trades, the same sequence
// numbers, and the same resting state. Serialization of callers is the
// responsibility of the service layer.
package orderbook
