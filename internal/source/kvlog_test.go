package source

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/btcarb/tickerplant/internal/feed"
	"github.com/btcarb/tickerplant/internal/plant"
	"github.com/btcarb/tickerplant/internal/sink"
	"github.com/btcarb/tickerplant/internal/tick"
)

func TestKVLogRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "mdata.db")

	kv, err := sink.NewKV(dir)
	if err != nil {
		t.Log("ERROR : not able to create kv log :", err)
		t.FailNow()
	}
	msgs := [][]byte{
		[]byte(`{"_received":100,"channel":"x","n":1}`),
		[]byte(`{"_received":200,"channel":"x","n":2}`),
		[]byte(`{"_received":300,"channel":"x","n":3}`),
	}
	for _, m := range msgs {
		if err := kv.LogRaw(m); err != nil {
			t.Log("ERROR : not able to write kv log :", err)
			t.FailNow()
		}
	}
	if err := kv.Close(); err != nil {
		t.Log("ERROR : not able to close kv log :", err)
		t.FailNow()
	}

	src, err := NewKVLog(dir)
	if err != nil {
		t.Log("ERROR : not able to open kv log :", err)
		t.FailNow()
	}
	defer src.Close()

	ctx := context.Background()
	for i, want := range msgs {
		got, err := src.Next(ctx)
		if err != nil {
			t.Fatalf("Next %d error: %v", i, err)
		}
		if string(got) != string(want) {
			t.Fatalf("record %d = %s, want %s", i, got, want)
		}
	}
	if _, err := src.Next(ctx); err != io.EOF {
		t.Fatalf("exhausted log should yield io.EOF, got %v", err)
	}
}

func TestKVLogMissingIsFatal(t *testing.T) {
	if _, err := NewKVLog(filepath.Join(t.TempDir(), "no-such-log")); err == nil {
		t.Fatal("opening a missing kv log must fail, it is a configuration error")
	}
}

// One trade record written to a kv log and replayed through the plant
// must produce exactly one handler invocation with the decoded trade.
func TestKVReplayEndToEnd(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "mdata.db")
	msg := `{"_received":5,"channel":"` + feed.ChannelTrades + `","stamp":1000,` +
		`"trade":{"trade_type":"bid","amount":0.5,"amount_int":"50000000",` +
		`"price_currency":"usd","price":100.0,"price_int":"10000"}}`

	kv, err := sink.NewKV(dir)
	if err != nil {
		t.Log("ERROR : not able to create kv log :", err)
		t.FailNow()
	}
	if err := kv.LogRaw([]byte(msg)); err != nil {
		t.Log("ERROR : not able to write kv log :", err)
		t.FailNow()
	}
	if err := kv.Close(); err != nil {
		t.Log("ERROR : not able to close kv log :", err)
		t.FailNow()
	}

	src, err := NewKVLog(dir)
	if err != nil {
		t.Log("ERROR : not able to open kv log :", err)
		t.FailNow()
	}
	defer src.Close()

	pl := plant.New(src, feed.NewMtgoxParser())
	var got []tick.Trade
	pl.AddTickHandler(func(tk tick.Tick) error {
		got = append(got, tk.Trade())
		return nil
	})
	if err := pl.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("handler invoked %d times, want exactly 1", len(got))
	}
	tr := got[0]
	if tr.ExTime != 1000 || tr.Type != tick.Bid || tr.Amount != 0.5 ||
		tr.AmountInt != 50000000 || tr.Cyc != tick.USD || tr.Price != 100.0 || tr.PriceInt != 10000 {
		t.Fatalf("trade = %+v", tr)
	}
}
