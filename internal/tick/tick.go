package tick

import (
	"strings"

	"github.com/pkg/errors"
)

// VolumeMultiplier is the fixed-point scale for volume and amount fields.
// Integer fields carry the value times 1E8 and are the source of truth;
// float fields are approximations derived from them.
const VolumeMultiplier = 100000000

// Currency is the quote currency of a market event.
type Currency uint8

// Supported currencies.
const (
	USD Currency = iota
	EUR
	GBP
	JPY
	BTC
)

var currencyNames = [...]string{"usd", "eur", "gbp", "jpy", "btc"}

// String returns the protocol name of the currency.
func (c Currency) String() string {
	return currencyNames[c]
}

// CurrencyFromString converts a protocol currency string to a Currency.
// Matching is case-insensitive, an unknown name is an error.
func CurrencyFromString(s string) (Currency, error) {
	i, ok := lookup(currencyNames[:], s)
	if !ok {
		return 0, errors.Errorf("unknown currency %q", s)
	}
	return Currency(i), nil
}

// TradeType is the aggressor side of a trade.
type TradeType uint8

// Trade sides.
const (
	Ask TradeType = iota
	Bid
)

var tradeTypeNames = [...]string{"ask", "bid"}

// String returns the protocol name of the trade side.
func (t TradeType) String() string {
	return tradeTypeNames[t]
}

// TradeTypeFromString converts a protocol side string to a TradeType.
func TradeTypeFromString(s string) (TradeType, error) {
	i, ok := lookup(tradeTypeNames[:], s)
	if !ok {
		return 0, errors.Errorf("unknown trade type %q", s)
	}
	return TradeType(i), nil
}

// QuoteType is the side of an order book depth update.
type QuoteType uint8

// Depth update sides.
const (
	AskUpdate QuoteType = iota
	BidUpdate
)

var quoteTypeNames = [...]string{"ask_update", "bid_update"}

// String returns the name of the depth update side.
func (q QuoteType) String() string {
	return quoteTypeNames[q]
}

// QuoteTypeFromString converts a side name to a QuoteType.
func QuoteTypeFromString(s string) (QuoteType, error) {
	i, ok := lookup(quoteTypeNames[:], s)
	if !ok {
		return 0, errors.Errorf("unknown quote type %q", s)
	}
	return QuoteType(i), nil
}

// lookup finds a lower-cased name in a name table. No partial matches.
func lookup(names []string, s string) (int, bool) {
	s = strings.ToLower(s)
	for i, name := range names {
		if name == s {
			return i, true
		}
	}
	return 0, false
}

// Quote is one order book depth update.
type Quote struct {
	Received       uint64
	ExTime         uint64
	Type           QuoteType
	DeltaVolume    float64
	DeltaVolumeInt int64
	TotalVolume    float64
	TotalVolumeInt int64
	Cyc            Currency
	Price          float64
	PriceInt       int32
}

// Trade is one executed trade.
type Trade struct {
	Received  uint64
	ExTime    uint64
	Type      TradeType
	Amount    float64
	AmountInt int64
	Cyc       Currency
	Price     float64
	PriceInt  int32
}

// Kind discriminates the payload of a Tick.
type Kind uint8

// Tick payload kinds.
const (
	KindEmpty Kind = iota
	KindQuote
	KindTrade
)

// Tick is one normalized market event, either a Quote or a Trade.
// The zero value is the empty tick. The payload is only reachable
// through the accessor matching the kind; a mismatched access panics.
type Tick struct {
	kind  Kind
	quote Quote
	trade Trade
}

// FromQuote wraps a Quote in a Tick.
func FromQuote(q Quote) Tick {
	return Tick{kind: KindQuote, quote: q}
}

// FromTrade wraps a Trade in a Tick.
func FromTrade(t Trade) Tick {
	return Tick{kind: KindTrade, trade: t}
}

// Kind returns the payload kind.
func (t Tick) Kind() Kind {
	return t.kind
}

// Quote returns the quote payload. Panics if the tick is not a quote.
func (t Tick) Quote() Quote {
	if t.kind != KindQuote {
		panic("tick: quote access on non-quote tick")
	}
	return t.quote
}

// Trade returns the trade payload. Panics if the tick is not a trade.
func (t Tick) Trade() Trade {
	if t.kind != KindTrade {
		panic("tick: trade access on non-trade tick")
	}
	return t.trade
}

// Parsed pairs a decoded tick with the raw message it was derived from,
// so the plant can offer the same message to tick and raw handlers.
type Parsed struct {
	Tick Tick
	Raw  []byte
}
