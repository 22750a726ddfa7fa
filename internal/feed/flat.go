package feed

import (
	"github.com/btcarb/tickerplant/internal/tick"
)

// FlatParser decodes pre-encoded flat log records back into ticks. It is
// used with the flat file replay source, which already stores the typed
// representation, so no text parsing happens here.
type FlatParser struct{}

// NewFlatParser creates a new flat record parser.
func NewFlatParser() *FlatParser {
	return &FlatParser{}
}

// Parse decodes one fixed-size record. A record that does not decode is
// treated as end of data by the caller, so nil is returned without logging.
func (p *FlatParser) Parse(raw []byte, received uint64) *tick.Parsed {
	tk, ok := tick.DecodeRecord(raw)
	if !ok {
		return nil
	}
	return &tick.Parsed{Tick: tk}
}
