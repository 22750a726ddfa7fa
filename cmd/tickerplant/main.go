package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/btcarb/tickerplant/internal/config"
	"github.com/btcarb/tickerplant/internal/initializer"
)

// sinkList collects repeated -sink flags in order.
type sinkList []string

func (s *sinkList) String() string {
	return fmt.Sprint(*s)
}

func (s *sinkList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	var (
		cfgPath    string
		sourceSpec string
		sinks      sinkList
	)
	flag.StringVar(&cfgPath, "config", "", "path to JSON config file")
	flag.StringVar(&sourceSpec, "source", config.SourceWSMtgox+":"+config.MtgoxWebsocketURL,
		"market data source as TYPE:PATH; types: flat, flat_mtgox, ldb, ldb_mtgox, ws_mtgox")
	flag.Var(&sinks, "sink",
		"tick sink as TYPE:PATH, may be repeated; types: flat, flat_raw, raw_ldb, mysql, elastic_search, terminal")
	flag.Parse()

	// The source can also be given as a positional argument.
	if args := flag.Args(); len(args) > 0 {
		sourceSpec = args[0]
	}

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "exiting the app:", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := initializer.Start(ctx, cfg, sourceSpec, sinks); err != nil {
		fmt.Fprintln(os.Stderr, "exiting the app:", err)
		os.Exit(1)
	}
}
