package initializer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/btcarb/tickerplant/internal/config"
	"github.com/btcarb/tickerplant/internal/sink"
)

// writeKVLog captures one raw message into a fresh kv log and closes it so
// the tests can replay from it.
func writeKVLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ticks.ldb")
	kv, err := sink.NewKV(path)
	if err != nil {
		t.Log("ERROR : not able to create kv log :", err)
		t.FailNow()
	}
	if err := kv.LogRaw([]byte(`{"_received":1,"channel":"none"}`)); err != nil {
		t.Log("ERROR : not able to write kv log :", err)
		t.FailNow()
	}
	if err := kv.Close(); err != nil {
		t.Log("ERROR : not able to close kv log :", err)
		t.FailNow()
	}
	return path
}

func TestStartShutdownIsClean(t *testing.T) {
	path := writeKVLog(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Start(ctx, config.Default(), config.SourceLDBMtgox+":"+path, nil); err != nil {
		t.Fatalf("a requested shutdown must exit cleanly, got: %v", err)
	}
}

func TestStartReplayRunsToCompletion(t *testing.T) {
	path := writeKVLog(t)
	if err := Start(context.Background(), config.Default(), config.SourceLDBMtgox+":"+path, nil); err != nil {
		t.Fatalf("replay run error: %v", err)
	}
}

func TestStartRejectsUnknownSource(t *testing.T) {
	if err := Start(context.Background(), config.Default(), "carrier_pigeon:/dev/null", nil); err == nil {
		t.Fatal("unknown source type must fail the run up front")
	}
}
