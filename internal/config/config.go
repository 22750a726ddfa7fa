package config

import (
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// MtgoxWebsocketURL is the default live feed endpoint.
const MtgoxWebsocketURL = "ws://websocket.mtgox.com/mtgox"

// Source types accepted in a source spec.
const (
	SourceFlat      = "flat"
	SourceFlatMtgox = "flat_mtgox"
	SourceLDB       = "ldb"
	SourceLDBMtgox  = "ldb_mtgox"
	SourceWSMtgox   = "ws_mtgox"
)

// Sink types accepted in a sink spec.
const (
	SinkFlat     = "flat"
	SinkFlatRaw  = "flat_raw"
	SinkRawLDB   = "raw_ldb"
	SinkMySQL    = "mysql"
	SinkES       = "elastic_search"
	SinkTerminal = "terminal"
)

// Config contains config values for the app.
// Struct values are loaded from a user defined JSON config file.
type Config struct {
	Connection Connection `json:"connection"`
	Log        Log        `json:"log"`
}

// Connection contains config values for feed and storage connections.
type Connection struct {
	WS    WS    `json:"websocket"`
	MySQL MySQL `json:"mysql"`
	ES    ES    `json:"elastic_search"`
}

// WS contains config values for the websocket connection.
type WS struct {
	ConnTimeoutSec int `json:"conn_timeout_sec"`
	ReadTimeoutSec int `json:"read_timeout_sec"`
}

// MySQL contains config values for mysql.
type MySQL struct {
	User               string `json:"user"`
	Password           string `json:"password"`
	URL                string `json:"URL"`
	Schema             string `json:"schema"`
	ReqTimeoutSec      int    `json:"request_timeout_sec"`
	ConnMaxLifetimeSec int    `json:"conn_max_lifetime_sec"`
	MaxOpenConns       int    `json:"max_open_conns"`
	MaxIdleConns       int    `json:"max_idle_conns"`
	QuoteCommitBuf     int    `json:"quote_commit_buffer"`
	TradeCommitBuf     int    `json:"trade_commit_buffer"`
}

// ES contains config values for elastic search.
type ES struct {
	Addresses           []string `json:"addresses"`
	Username            string   `json:"username"`
	Password            string   `json:"password"`
	IndexName           string   `json:"index_name"`
	ReqTimeoutSec       int      `json:"request_timeout_sec"`
	MaxIdleConns        int      `json:"max_idle_conns"`
	MaxIdleConnsPerHost int      `json:"max_idle_conns_per_host"`
	QuoteCommitBuf      int      `json:"quote_commit_buffer"`
	TradeCommitBuf      int      `json:"trade_commit_buffer"`
}

// Log contains config values for logging.
type Log struct {
	Level    string `json:"level"`
	FilePath string `json:"file_path"`
}

// Default returns the config used when no config file is given.
func Default() *Config {
	return &Config{
		Connection: Connection{
			WS: WS{ConnTimeoutSec: 10},
			MySQL: MySQL{
				QuoteCommitBuf: 1,
				TradeCommitBuf: 1,
			},
			ES: ES{
				QuoteCommitBuf: 1,
				TradeCommitBuf: 1,
			},
		},
		Log: Log{Level: "info"},
	}
}

// Load reads config values from a JSON config file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "not able to open config file %v", path)
	}
	defer f.Close()
	cfg := Default()
	if err := jsoniter.NewDecoder(f).Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "not able to parse JSON from config file %v", path)
	}
	return cfg, nil
}

// Spec is a parsed "type:path" source or sink specifier.
type Spec struct {
	Type string
	Path string
}

// ParseSpec splits a "type:path" specifier. The path may itself contain
// colons (websocket URLs do), so only the first one delimits the type.
func ParseSpec(s string) (Spec, error) {
	i := strings.Index(s, ":")
	if i <= 0 {
		return Spec{}, errors.Errorf("invalid spec %q, want type:path", s)
	}
	return Spec{Type: s[:i], Path: s[i+1:]}, nil
}
