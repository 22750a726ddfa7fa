package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/btcarb/tickerplant/internal/config"
	"github.com/btcarb/tickerplant/internal/tick"
)

// MySQL buffers ticks and batch inserts them into mysql when the
// configured commit buffer fills.
type MySQL struct {
	db     *sql.DB
	cfg    *config.MySQL
	quotes []tick.Quote
	trades []tick.Trade
}

// NewMySQL initializes the mysql connection with configured values.
func NewMySQL(cfg *config.MySQL) (*MySQL, error) {
	dataSourceName := cfg.User + ":" + cfg.Password + cfg.URL + "/" + cfg.Schema
	db, err := sql.Open("mysql", dataSourceName)
	if err != nil {
		return nil, errors.Wrap(err, "mysql connection")
	}
	db.SetConnMaxLifetime(time.Second * time.Duration(cfg.ConnMaxLifetimeSec))
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	ctx, cancel := reqCtx(cfg.ReqTimeoutSec)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "mysql connection")
	}
	return &MySQL{db: db, cfg: cfg}, nil
}

// LogTick buffers one tick and commits the batch once the buffer is full.
func (m *MySQL) LogTick(t tick.Tick) error {
	switch t.Kind() {
	case tick.KindQuote:
		m.quotes = append(m.quotes, t.Quote())
		if len(m.quotes) >= m.cfg.QuoteCommitBuf {
			return m.commitQuotes()
		}
	case tick.KindTrade:
		m.trades = append(m.trades, t.Trade())
		if len(m.trades) >= m.cfg.TradeCommitBuf {
			return m.commitTrades()
		}
	}
	return nil
}

// Flush commits any buffered ticks.
func (m *MySQL) Flush() error {
	if len(m.quotes) > 0 {
		if err := m.commitQuotes(); err != nil {
			return err
		}
	}
	if len(m.trades) > 0 {
		return m.commitTrades()
	}
	return nil
}

// Close flushes buffered ticks and closes the connection.
func (m *MySQL) Close() error {
	if err := m.Flush(); err != nil {
		return err
	}
	return m.db.Close()
}

func (m *MySQL) commitQuotes() error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO quote(received, ex_time, side, delta_volume, delta_volume_int, total_volume, total_volume_int, currency, price, price_int) VALUES ")
	for i, q := range m.quotes {
		if i != 0 {
			sb.WriteString(",")
		}
		sb.WriteString(fmt.Sprintf("(%v, %v, \"%v\", %v, %v, %v, %v, \"%v\", %v, %v)",
			q.Received, q.ExTime, q.Type, q.DeltaVolume, q.DeltaVolumeInt, q.TotalVolume, q.TotalVolumeInt, q.Cyc, q.Price, q.PriceInt))
	}
	ctx, cancel := reqCtx(m.cfg.ReqTimeoutSec)
	defer cancel()
	if _, err := m.db.ExecContext(ctx, sb.String()); err != nil {
		return errors.Wrap(err, "mysql quote commit")
	}
	m.quotes = m.quotes[:0]
	return nil
}

func (m *MySQL) commitTrades() error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO trade(received, ex_time, side, amount, amount_int, currency, price, price_int) VALUES ")
	for i, t := range m.trades {
		if i != 0 {
			sb.WriteString(",")
		}
		sb.WriteString(fmt.Sprintf("(%v, %v, \"%v\", %v, %v, \"%v\", %v, %v)",
			t.Received, t.ExTime, t.Type, t.Amount, t.AmountInt, t.Cyc, t.Price, t.PriceInt))
	}
	ctx, cancel := reqCtx(m.cfg.ReqTimeoutSec)
	defer cancel()
	if _, err := m.db.ExecContext(ctx, sb.String()); err != nil {
		return errors.Wrap(err, "mysql trade commit")
	}
	m.trades = m.trades[:0]
	return nil
}

func reqCtx(timeoutSec int) (context.Context, context.CancelFunc) {
	if timeoutSec > 0 {
		return context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	}
	return context.WithCancel(context.Background())
}
