package sink

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v7"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/btcarb/tickerplant/internal/config"
	"github.com/btcarb/tickerplant/internal/tick"
)

// ElasticSearch buffers ticks and bulk indexes them into elastic search
// when the configured commit buffer fills.
type ElasticSearch struct {
	es     *elasticsearch.Client
	cfg    *config.ES
	quotes []tick.Quote
	trades []tick.Trade
}

// esData holds either quote or trade data which will be sent to elastic search.
type esData struct {
	Channel        string    `json:"channel"`
	Received       uint64    `json:"received"`
	ExTime         uint64    `json:"ex_time"`
	Side           string    `json:"side"`
	DeltaVolume    float64   `json:"delta_volume,omitempty"`
	DeltaVolumeInt int64     `json:"delta_volume_int,omitempty"`
	TotalVolume    float64   `json:"total_volume,omitempty"`
	TotalVolumeInt int64     `json:"total_volume_int,omitempty"`
	Amount         float64   `json:"amount,omitempty"`
	AmountInt      int64     `json:"amount_int,omitempty"`
	Currency       string    `json:"currency"`
	Price          float64   `json:"price"`
	PriceInt       int32     `json:"price_int"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewElasticSearch initializes the elastic search connection with
// configured values.
func NewElasticSearch(cfg *config.ES) (*ElasticSearch, error) {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = cfg.MaxIdleConns
	t.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: t,
	}
	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, errors.Wrap(err, "elastic search connection")
	}
	ctx, cancel := reqCtx(cfg.ReqTimeoutSec)
	defer cancel()
	if _, err = es.Ping(es.Ping.WithContext(ctx)); err != nil {
		return nil, errors.Wrap(err, "elastic search connection")
	}
	return &ElasticSearch{es: es, cfg: cfg}, nil
}

// LogTick buffers one tick and bulk indexes the batch once the buffer is full.
func (e *ElasticSearch) LogTick(t tick.Tick) error {
	switch t.Kind() {
	case tick.KindQuote:
		e.quotes = append(e.quotes, t.Quote())
		if len(e.quotes) >= e.cfg.QuoteCommitBuf {
			return e.commitQuotes()
		}
	case tick.KindTrade:
		e.trades = append(e.trades, t.Trade())
		if len(e.trades) >= e.cfg.TradeCommitBuf {
			return e.commitTrades()
		}
	}
	return nil
}

// Flush indexes any buffered ticks.
func (e *ElasticSearch) Flush() error {
	if len(e.quotes) > 0 {
		if err := e.commitQuotes(); err != nil {
			return err
		}
	}
	if len(e.trades) > 0 {
		return e.commitTrades()
	}
	return nil
}

func (e *ElasticSearch) commitQuotes() error {
	var buf bytes.Buffer
	for _, q := range e.quotes {
		ed := esData{
			Channel:        "depth",
			Received:       q.Received,
			ExTime:         q.ExTime,
			Side:           q.Type.String(),
			DeltaVolume:    q.DeltaVolume,
			DeltaVolumeInt: q.DeltaVolumeInt,
			TotalVolume:    q.TotalVolume,
			TotalVolumeInt: q.TotalVolumeInt,
			Currency:       q.Cyc.String(),
			Price:          q.Price,
			PriceInt:       q.PriceInt,
			CreatedAt:      time.Now().UTC(),
		}
		if err := writeBulkLine(&buf, ed); err != nil {
			return err
		}
	}
	if err := e.bulk(&buf); err != nil {
		return err
	}
	e.quotes = e.quotes[:0]
	return nil
}

func (e *ElasticSearch) commitTrades() error {
	var buf bytes.Buffer
	for _, t := range e.trades {
		ed := esData{
			Channel:   "trade",
			Received:  t.Received,
			ExTime:    t.ExTime,
			Side:      t.Type.String(),
			Amount:    t.Amount,
			AmountInt: t.AmountInt,
			Currency:  t.Cyc.String(),
			Price:     t.Price,
			PriceInt:  t.PriceInt,
			CreatedAt: time.Now().UTC(),
		}
		if err := writeBulkLine(&buf, ed); err != nil {
			return err
		}
	}
	if err := e.bulk(&buf); err != nil {
		return err
	}
	e.trades = e.trades[:0]
	return nil
}

func writeBulkLine(buf *bytes.Buffer, ed esData) error {
	meta := []byte("{\"create\":{}}\n")
	esBytes, err := jsoniter.Marshal(ed)
	if err != nil {
		return errors.Wrap(err, "elastic search marshal")
	}
	esBytes = append(esBytes, '\n')
	buf.Grow(len(meta) + len(esBytes))
	buf.Write(meta)
	buf.Write(esBytes)
	return nil
}

func (e *ElasticSearch) bulk(buf *bytes.Buffer) error {
	ctx, cancel := reqCtx(e.cfg.ReqTimeoutSec)
	defer cancel()
	resp, err := e.es.Bulk(bytes.NewReader(buf.Bytes()), e.es.Bulk.WithIndex(e.cfg.IndexName), e.es.Bulk.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "elastic search bulk")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("elastic search bulk: code : %v, status : %v", resp.StatusCode, resp.Status())
	}
	if _, err = io.Copy(io.Discard, resp.Body); err != nil {
		return errors.Wrap(err, "elastic search bulk")
	}
	return nil
}
