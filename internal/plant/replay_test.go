package plant

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/btcarb/tickerplant/internal/feed"
	"github.com/btcarb/tickerplant/internal/sink"
	"github.com/btcarb/tickerplant/internal/source"
	"github.com/btcarb/tickerplant/internal/tick"
)

func writeFlatLog(t *testing.T, path string, ticks []tick.Tick) {
	t.Helper()
	f, err := sink.NewFile(path)
	if err != nil {
		t.Log("ERROR : not able to create flat log :", err)
		t.FailNow()
	}
	for _, tk := range ticks {
		if err := f.LogTick(tk); err != nil {
			t.Log("ERROR : not able to write flat log :", err)
			t.FailNow()
		}
	}
	if err := f.Close(); err != nil {
		t.Log("ERROR : not able to close flat log :", err)
		t.FailNow()
	}
}

func replayFlatLog(t *testing.T, path string) []tick.Tick {
	t.Helper()
	src, err := source.NewFlatFile(path)
	if err != nil {
		t.Log("ERROR : not able to open flat log :", err)
		t.FailNow()
	}
	defer src.Close()
	pl := New(src, feed.NewFlatParser())
	var got []tick.Tick
	pl.AddTickHandler(func(tk tick.Tick) error {
		got = append(got, tk)
		return nil
	})
	if err := pl.Run(context.Background()); err != nil {
		t.Fatalf("replay Run error: %v", err)
	}
	return got
}

func TestFlatReplayRoundTrip(t *testing.T) {
	ticks := []tick.Tick{
		tick.FromTrade(tick.Trade{Received: 1, ExTime: 1000, Type: tick.Bid, Amount: 0.5, AmountInt: 50000000, Cyc: tick.USD, Price: 100, PriceInt: 10000}),
		tick.FromQuote(tick.Quote{Received: 2, ExTime: 2000, Type: tick.AskUpdate, DeltaVolume: 0.1, DeltaVolumeInt: 10000000, TotalVolume: 2.5, TotalVolumeInt: 250000000, Cyc: tick.EUR, Price: 100.5, PriceInt: 1005000}),
		tick.FromTrade(tick.Trade{Received: 3, ExTime: 3000, Type: tick.Ask, Amount: 1, AmountInt: 100000000, Cyc: tick.BTC, Price: 1, PriceInt: 100}),
	}
	path := filepath.Join(t.TempDir(), "ticks.flat")
	writeFlatLog(t, path, ticks)

	got := replayFlatLog(t, path)
	if len(got) != len(ticks) {
		t.Fatalf("replayed %d ticks, want %d", len(got), len(ticks))
	}
	for i := range ticks {
		if got[i] != ticks[i] {
			t.Fatalf("tick %d mismatch: got %+v want %+v", i, got[i], ticks[i])
		}
	}
}

func TestFlatReplayIsIdempotent(t *testing.T) {
	ticks := []tick.Tick{
		tick.FromQuote(tick.Quote{ExTime: 1, Type: tick.BidUpdate, TotalVolumeInt: 100000000, TotalVolume: 1, Cyc: tick.GBP}),
		tick.FromTrade(tick.Trade{ExTime: 2, Type: tick.Bid, AmountInt: 1, Cyc: tick.JPY}),
	}
	path := filepath.Join(t.TempDir(), "ticks.flat")
	writeFlatLog(t, path, ticks)

	first := replayFlatLog(t, path)
	second := replayFlatLog(t, path)
	if len(first) != len(second) {
		t.Fatalf("runs differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("tick %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestFlatReplayStopsAtPartialRecord(t *testing.T) {
	ticks := []tick.Tick{tick.FromTrade(tick.Trade{ExTime: 1, AmountInt: 1})}
	path := filepath.Join(t.TempDir(), "ticks.flat")
	writeFlatLog(t, path, ticks)

	// Append garbage shorter than a record, as a crashed writer would leave.
	f, err := sink.NewFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.LogRaw([]byte("junk")); err != nil {
		t.Fatal(err)
	}
	f.Close()

	got := replayFlatLog(t, path)
	if len(got) != 1 {
		t.Fatalf("replayed %d ticks, want 1 (trailing partial record is end of stream)", len(got))
	}
}
