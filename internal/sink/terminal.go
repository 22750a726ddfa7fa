package sink

import (
	"fmt"
	"io"

	"github.com/btcarb/tickerplant/internal/tick"
)

// Terminal displays ticks on an output writer, usually os.Stdout.
type Terminal struct {
	out io.Writer
}

// NewTerminal creates a terminal display sink.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// LogTick writes one tick as a display line.
func (t *Terminal) LogTick(tk tick.Tick) error {
	var err error
	switch tk.Kind() {
	case tick.KindQuote:
		q := tk.Quote()
		_, err = fmt.Fprintf(t.out, "%-7s%-12s%20d%20f @ %f %s\n", "Quote", q.Type, q.ExTime, q.TotalVolume, q.Price, q.Cyc)
	case tick.KindTrade:
		tr := tk.Trade()
		_, err = fmt.Fprintf(t.out, "%-7s%-12s%20d%20f @ %f %s\n", "Trade", tr.Type, tr.ExTime, tr.Amount, tr.Price, tr.Cyc)
	}
	return err
}
