package feed

import (
	"encoding/json"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/btcarb/tickerplant/internal/tick"
)

// Mtgox feed channel identifiers. Opaque constants assigned by the exchange.
const (
	ChannelTrades = "dbf1dee9-4f2e-4a08-8cb7-748919a71b21"
	ChannelTicker = "d5f06780-30a8-4a48-a2f8-7ed181b4a13f"
	ChannelDepth  = "24e67e0d-1cad-4cc0-9e7a-f8523ef460fe"
)

// Numbers are decoded as json.Number so that exchange timestamps and
// scaled integer strings survive without float rounding.
var jsonNum = jsoniter.Config{UseNumber: true}.Froze()

// MtgoxParser decodes raw mtgox feed messages into ticks.
//
// A message that cannot be decoded for any reason (malformed JSON, missing
// field, unknown channel, unknown enum name) is logged with its raw document
// and skipped; the feed is a stream and one bad message must never stop
// ingestion of the next.
type MtgoxParser struct{}

// NewMtgoxParser creates a new mtgox feed parser.
func NewMtgoxParser() *MtgoxParser {
	return &MtgoxParser{}
}

// Parse decodes one raw feed message. received is the ingestion timestamp in
// nanoseconds; zero means the parser assigns the current time. A nil result
// means no tick was produced from this message.
func (p *MtgoxParser) Parse(raw []byte, received uint64) *tick.Parsed {
	var root map[string]interface{}
	if err := jsonNum.Unmarshal(raw, &root); err != nil {
		log.Warn().Err(err).Str("raw", string(raw)).Msg("could not parse tick")
		return nil
	}
	if received == 0 {
		received = uint64(time.Now().UnixNano())
	}
	if v, err := asUint(root["_received"]); err != nil || v == 0 {
		root["_received"] = json.Number(strconv.FormatUint(received, 10))
	}

	channel, _ := root["channel"].(string)

	var (
		tk tick.Tick
		ok bool
	)
	switch channel {
	case ChannelTrades:
		tk, ok = parseTrade(root, raw, received)
	case ChannelDepth:
		tk, ok = parseDepth(root, raw, received)
	case ChannelTicker:
		// Reserved channel, carries no actionable fields.
		return nil
	default:
		log.Warn().Str("channel", channel).Str("raw", string(raw)).Msg("unknown channel")
		return nil
	}
	if !ok {
		return nil
	}

	out, err := jsonNum.Marshal(root)
	if err != nil {
		log.Warn().Err(err).Str("raw", string(raw)).Msg("could not reserialize tick")
		return nil
	}
	return &tick.Parsed{Tick: tk, Raw: out}
}

func parseTrade(root map[string]interface{}, raw []byte, received uint64) (tick.Tick, bool) {
	tr, err := decodeTrade(root, received)
	if err != nil {
		log.Warn().Err(err).Str("raw", string(raw)).Msg("could not parse trade")
		return tick.Tick{}, false
	}
	return tick.FromTrade(tr), true
}

func decodeTrade(root map[string]interface{}, received uint64) (tick.Trade, error) {
	exTime, err := asUint(root["stamp"])
	if err != nil {
		return tick.Trade{}, errors.Wrap(err, "stamp")
	}
	obj, err := asObject(root["trade"])
	if err != nil {
		return tick.Trade{}, errors.Wrap(err, "trade")
	}
	side, err := asString(obj["trade_type"])
	if err != nil {
		return tick.Trade{}, errors.Wrap(err, "trade_type")
	}
	tradeType, err := tick.TradeTypeFromString(side)
	if err != nil {
		return tick.Trade{}, err
	}
	amount, err := asFloat(obj["amount"])
	if err != nil {
		return tick.Trade{}, errors.Wrap(err, "amount")
	}
	amountInt, err := asIntString(obj["amount_int"])
	if err != nil {
		return tick.Trade{}, errors.Wrap(err, "amount_int")
	}
	cycStr, err := asString(obj["price_currency"])
	if err != nil {
		return tick.Trade{}, errors.Wrap(err, "price_currency")
	}
	cyc, err := tick.CurrencyFromString(cycStr)
	if err != nil {
		return tick.Trade{}, err
	}
	price, err := asFloat(obj["price"])
	if err != nil {
		return tick.Trade{}, errors.Wrap(err, "price")
	}
	priceInt, err := asInt32String(obj["price_int"])
	if err != nil {
		return tick.Trade{}, errors.Wrap(err, "price_int")
	}
	return tick.Trade{
		Received:  received,
		ExTime:    exTime,
		Type:      tradeType,
		Amount:    amount,
		AmountInt: amountInt,
		Cyc:       cyc,
		Price:     price,
		PriceInt:  priceInt,
	}, nil
}

func parseDepth(root map[string]interface{}, raw []byte, received uint64) (tick.Tick, bool) {
	q, err := decodeDepth(root, received)
	if err != nil {
		log.Warn().Err(err).Str("raw", string(raw)).Msg("could not parse depth")
		return tick.Tick{}, false
	}
	return tick.FromQuote(q), true
}

func decodeDepth(root map[string]interface{}, received uint64) (tick.Quote, error) {
	exTime, err := asUint(root["stamp"])
	if err != nil {
		return tick.Quote{}, errors.Wrap(err, "stamp")
	}
	obj, err := asObject(root["depth"])
	if err != nil {
		return tick.Quote{}, errors.Wrap(err, "depth")
	}
	typeCode, err := asInt(obj["type"])
	if err != nil {
		return tick.Quote{}, errors.Wrap(err, "type")
	}
	var quoteType tick.QuoteType
	switch typeCode {
	case 1:
		quoteType = tick.AskUpdate
	case 2:
		quoteType = tick.BidUpdate
	default:
		return tick.Quote{}, errors.Errorf("unknown depth type %d", typeCode)
	}
	deltaVolume, err := asFloatString(obj["volume"])
	if err != nil {
		return tick.Quote{}, errors.Wrap(err, "volume")
	}
	deltaVolumeInt, err := asIntString(obj["volume_int"])
	if err != nil {
		return tick.Quote{}, errors.Wrap(err, "volume_int")
	}
	totalVolumeInt, err := asIntString(obj["total_volume_int"])
	if err != nil {
		return tick.Quote{}, errors.Wrap(err, "total_volume_int")
	}
	// The float total volume is always derived from the scaled integer,
	// never parsed on its own.
	totalVolume := float64(totalVolumeInt) / tick.VolumeMultiplier
	cycStr, err := asString(obj["currency"])
	if err != nil {
		return tick.Quote{}, errors.Wrap(err, "currency")
	}
	cyc, err := tick.CurrencyFromString(cycStr)
	if err != nil {
		return tick.Quote{}, err
	}
	price, err := asFloatString(obj["price"])
	if err != nil {
		return tick.Quote{}, errors.Wrap(err, "price")
	}
	priceInt, err := asInt32String(obj["price_int"])
	if err != nil {
		return tick.Quote{}, errors.Wrap(err, "price_int")
	}
	return tick.Quote{
		Received:       received,
		ExTime:         exTime,
		Type:           quoteType,
		DeltaVolume:    deltaVolume,
		DeltaVolumeInt: deltaVolumeInt,
		TotalVolume:    totalVolume,
		TotalVolumeInt: totalVolumeInt,
		Cyc:            cyc,
		Price:          price,
		PriceInt:       priceInt,
	}, nil
}

func asObject(v interface{}) (map[string]interface{}, error) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("not an object: %v", v)
	}
	return obj, nil
}

func asString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.Errorf("not a string: %v", v)
	}
	return s, nil
}

func asUint(v interface{}) (uint64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, errors.Errorf("not a number: %v", v)
	}
	return strconv.ParseUint(n.String(), 10, 64)
}

func asInt(v interface{}) (int64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, errors.Errorf("not a number: %v", v)
	}
	return n.Int64()
}

func asFloat(v interface{}) (float64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, errors.Errorf("not a number: %v", v)
	}
	return n.Float64()
}

// asIntString parses an exact scaled integer sent as a numeric string.
func asIntString(v interface{}) (int64, error) {
	s, err := asString(v)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}

// asInt32String parses a scaled integer sent as a numeric string that must
// fit 32 bits; an out-of-range value is an error, never a truncation.
func asInt32String(v interface{}) (int32, error) {
	s, err := asString(v)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

// asFloatString parses a float sent as a numeric string.
func asFloatString(v interface{}) (float64, error) {
	s, err := asString(v)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}
