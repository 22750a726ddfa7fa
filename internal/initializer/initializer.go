package initializer

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"golang.org/x/sync/errgroup"

	"github.com/btcarb/tickerplant/internal/config"
	"github.com/btcarb/tickerplant/internal/feed"
	"github.com/btcarb/tickerplant/internal/plant"
	"github.com/btcarb/tickerplant/internal/report"
	"github.com/btcarb/tickerplant/internal/sink"
	"github.com/btcarb/tickerplant/internal/source"
)

// progressInterval is how often the progress handler reports counters.
const progressInterval = 5 * time.Second

// logErrStack logs error with stack trace.
func logErrStack(err error) {
	log.Error().Stack().Err(errors.WithStack(err)).Msg("")
}

// Start initializes logging, builds the plant from the source and sink
// specs and drives it to completion. Any sink or source that cannot be
// opened is a configuration error and fails the whole run up front.
func Start(mainCtx context.Context, cfg *config.Config, sourceSpec string, sinkSpecs []string) error {
	if err := setupLogger(&cfg.Log); err != nil {
		return err
	}
	log.Info().Msg("logger setup is done")

	spec, err := config.ParseSpec(sourceSpec)
	if err != nil {
		logErrStack(err)
		return err
	}

	src, parser, err := newSource(mainCtx, cfg, spec)
	if err != nil {
		logErrStack(err)
		return err
	}

	pl := plant.New(src, parser)
	closers, err := registerSinks(pl, cfg, sinkSpecs)
	if err != nil {
		logErrStack(err)
		return err
	}
	pl.AddTickHandler(report.NewProgress(progressInterval).LogTick)

	log.Info().Str("source", spec.Type).Str("path", spec.Path).Msg("starting ticker plant")

	// One goroutine runs the plant, the other closes the source when the
	// app context is canceled, which unblocks a pending read.
	runCtx, cancel := context.WithCancel(mainCtx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer cancel()
		return pl.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		if cerr := src.Close(); cerr != nil {
			log.Debug().Err(cerr).Msg("source close")
		}
		return nil
	})
	runErr := g.Wait()
	if errors.Is(runErr, context.Canceled) {
		// An operator-initiated shutdown is a clean exit, not a failure.
		log.Info().Msg("shutdown requested, stopping ticker plant")
		runErr = nil
	}
	if runErr != nil {
		logErrStack(runErr)
	}

	// Flush and close sinks even after a failed run so that everything
	// dispatched before the failure is durable.
	for _, c := range closers {
		if cerr := c(); cerr != nil {
			logErrStack(cerr)
			if runErr == nil {
				runErr = cerr
			}
		}
	}
	return runErr
}

// setupLogger configures the global zerolog logger. A path ending with
// .log is appended to, any other path gets a timestamped log file, and an
// empty path logs to stderr.
func setupLogger(cfg *config.Log) error {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	switch cfg.Level {
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if cfg.FilePath == "" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return nil
	}
	var (
		logFile *os.File
		err     error
	)
	if strings.HasSuffix(cfg.FilePath, ".log") {
		logFile, err = os.OpenFile(cfg.FilePath, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0666)
		if err != nil {
			return errors.Wrapf(err, "not able to open or create log file %v", cfg.FilePath)
		}
	} else {
		path := cfg.FilePath + "_" + strconv.Itoa(int(time.Now().Unix())) + ".log"
		logFile, err = os.Create(path)
		if err != nil {
			return errors.Wrapf(err, "not able to create log file %v", path)
		}
	}
	log.Logger = zerolog.New(logFile).With().Timestamp().Logger()
	return nil
}

// newSource builds the source and parser pairing for a source spec.
func newSource(ctx context.Context, cfg *config.Config, spec config.Spec) (plant.Source, plant.Parser, error) {
	switch spec.Type {
	case config.SourceWSMtgox:
		src, err := source.NewWebSocket(ctx, &cfg.Connection.WS, spec.Path)
		if err != nil {
			return nil, nil, err
		}
		return src, feed.NewMtgoxParser(), nil
	case config.SourceLDB, config.SourceLDBMtgox:
		src, err := source.NewKVLog(spec.Path)
		if err != nil {
			return nil, nil, err
		}
		return src, feed.NewMtgoxParser(), nil
	case config.SourceFlat:
		src, err := source.NewFlatFile(spec.Path)
		if err != nil {
			return nil, nil, err
		}
		return src, feed.NewFlatParser(), nil
	case config.SourceFlatMtgox:
		src, err := source.NewLines(spec.Path)
		if err != nil {
			return nil, nil, err
		}
		return src, feed.NewMtgoxParser(), nil
	}
	return nil, nil, errors.Errorf("unknown source type %q", spec.Type)
}

// registerSinks opens every requested sink and registers its handler with
// the plant, returning the close functions to run after the plant stops.
func registerSinks(pl *plant.Plant, cfg *config.Config, sinkSpecs []string) ([]func() error, error) {
	var closers []func() error
	for _, s := range sinkSpecs {
		spec, err := config.ParseSpec(s)
		if err != nil {
			return nil, err
		}
		switch spec.Type {
		case config.SinkFlat:
			f, err := sink.NewFile(spec.Path)
			if err != nil {
				return nil, err
			}
			pl.AddTickHandler(f.LogTick)
			closers = append(closers, f.Close)
		case config.SinkFlatRaw:
			f, err := sink.NewFile(spec.Path)
			if err != nil {
				return nil, err
			}
			pl.AddRawHandler(f.LogRaw)
			closers = append(closers, f.Close)
		case config.SinkRawLDB:
			kv, err := sink.NewKV(spec.Path)
			if err != nil {
				return nil, err
			}
			pl.AddRawHandler(kv.LogRaw)
			closers = append(closers, kv.Close)
		case config.SinkMySQL:
			m, err := sink.NewMySQL(&cfg.Connection.MySQL)
			if err != nil {
				return nil, err
			}
			pl.AddTickHandler(m.LogTick)
			closers = append(closers, m.Close)
			log.Info().Msg("mysql connected")
		case config.SinkES:
			es, err := sink.NewElasticSearch(&cfg.Connection.ES)
			if err != nil {
				return nil, err
			}
			pl.AddTickHandler(es.LogTick)
			closers = append(closers, es.Flush)
			log.Info().Msg("elastic search connected")
		case config.SinkTerminal:
			pl.AddTickHandler(sink.NewTerminal(os.Stdout).LogTick)
		default:
			return nil, errors.Errorf("unknown sink type %q", spec.Type)
		}
		log.Info().Str("sink", spec.Type).Str("path", spec.Path).Msg("sink registered")
	}
	return closers, nil
}
