package tick

import (
	"encoding/binary"
	"math"
)

// Flat log record layout, little-endian:
//
//	[0]     kind tag (KindEmpty / KindQuote / KindTrade)
//	[1:]    payload, quote or trade fields in struct order
//
// Every record is RecordSize bytes; the trade payload is shorter than the
// quote payload and is zero padded. This layout is the wire contract of the
// flat tick log and must not change between writer and reader.
const RecordSize = 63

// EncodeRecord serializes a tick into a fixed-size flat log record.
func EncodeRecord(dst []byte, t Tick) []byte {
	if cap(dst) < RecordSize {
		dst = make([]byte, RecordSize)
	} else {
		dst = dst[:RecordSize]
		for i := range dst {
			dst[i] = 0
		}
	}

	dst[0] = byte(t.kind)
	switch t.kind {
	case KindQuote:
		q := t.quote
		binary.LittleEndian.PutUint64(dst[1:9], q.Received)
		binary.LittleEndian.PutUint64(dst[9:17], q.ExTime)
		dst[17] = byte(q.Type)
		binary.LittleEndian.PutUint64(dst[18:26], math.Float64bits(q.DeltaVolume))
		binary.LittleEndian.PutUint64(dst[26:34], uint64(q.DeltaVolumeInt))
		binary.LittleEndian.PutUint64(dst[34:42], math.Float64bits(q.TotalVolume))
		binary.LittleEndian.PutUint64(dst[42:50], uint64(q.TotalVolumeInt))
		dst[50] = byte(q.Cyc)
		binary.LittleEndian.PutUint64(dst[51:59], math.Float64bits(q.Price))
		binary.LittleEndian.PutUint32(dst[59:63], uint32(q.PriceInt))
	case KindTrade:
		tr := t.trade
		binary.LittleEndian.PutUint64(dst[1:9], tr.Received)
		binary.LittleEndian.PutUint64(dst[9:17], tr.ExTime)
		dst[17] = byte(tr.Type)
		binary.LittleEndian.PutUint64(dst[18:26], math.Float64bits(tr.Amount))
		binary.LittleEndian.PutUint64(dst[26:34], uint64(tr.AmountInt))
		dst[34] = byte(tr.Cyc)
		binary.LittleEndian.PutUint64(dst[35:43], math.Float64bits(tr.Price))
		binary.LittleEndian.PutUint32(dst[43:47], uint32(tr.PriceInt))
	}
	return dst
}

// DecodeRecord parses a flat log record. It reports false for a short
// buffer or an unknown tag, which a reader treats as end of stream since
// the format carries no validity marker.
func DecodeRecord(src []byte) (Tick, bool) {
	if len(src) < RecordSize {
		return Tick{}, false
	}

	switch Kind(src[0]) {
	case KindEmpty:
		return Tick{}, true
	case KindQuote:
		q := Quote{
			Received:       binary.LittleEndian.Uint64(src[1:9]),
			ExTime:         binary.LittleEndian.Uint64(src[9:17]),
			Type:           QuoteType(src[17]),
			DeltaVolume:    math.Float64frombits(binary.LittleEndian.Uint64(src[18:26])),
			DeltaVolumeInt: int64(binary.LittleEndian.Uint64(src[26:34])),
			TotalVolume:    math.Float64frombits(binary.LittleEndian.Uint64(src[34:42])),
			TotalVolumeInt: int64(binary.LittleEndian.Uint64(src[42:50])),
			Cyc:            Currency(src[50]),
			Price:          math.Float64frombits(binary.LittleEndian.Uint64(src[51:59])),
			PriceInt:       int32(binary.LittleEndian.Uint32(src[59:63])),
		}
		return FromQuote(q), true
	case KindTrade:
		tr := Trade{
			Received:  binary.LittleEndian.Uint64(src[1:9]),
			ExTime:    binary.LittleEndian.Uint64(src[9:17]),
			Type:      TradeType(src[17]),
			Amount:    math.Float64frombits(binary.LittleEndian.Uint64(src[18:26])),
			AmountInt: int64(binary.LittleEndian.Uint64(src[26:34])),
			Cyc:       Currency(src[34]),
			Price:     math.Float64frombits(binary.LittleEndian.Uint64(src[35:43])),
			PriceInt:  int32(binary.LittleEndian.Uint32(src[43:47])),
		}
		return FromTrade(tr), true
	}
	return Tick{}, false
}
