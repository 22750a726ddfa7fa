package report

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/btcarb/tickerplant/internal/tick"
)

// Progress is a tick handler that reports throughput counters at a fixed
// interval, so a long capture or replay shows signs of life in the log.
type Progress struct {
	interval    time.Duration
	last        time.Time
	trades      int
	bookUpdates int
	other       int
}

// NewProgress creates a progress reporter logging every interval.
func NewProgress(interval time.Duration) *Progress {
	return &Progress{interval: interval, last: time.Now()}
}

// LogTick counts one tick and emits the periodic report when due.
func (p *Progress) LogTick(t tick.Tick) error {
	switch t.Kind() {
	case tick.KindTrade:
		p.trades++
	case tick.KindQuote:
		p.bookUpdates++
	default:
		p.other++
	}

	now := time.Now()
	if elapsed := now.Sub(p.last); elapsed >= p.interval {
		log.Info().
			Str("elapsed", elapsed.Truncate(time.Millisecond).String()).
			Int("trades", p.trades).
			Int("book_updates", p.bookUpdates).
			Int("other", p.other).
			Msg("feed progress")
		p.last = now
		p.trades = 0
		p.bookUpdates = 0
		p.other = 0
	}
	return nil
}
