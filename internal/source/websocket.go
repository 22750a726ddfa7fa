package source

import (
	"context"
	"io"
	"net"

	"github.com/gobwas/ws/wsutil"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/btcarb/tickerplant/internal/config"
	"github.com/btcarb/tickerplant/internal/connector"
)

// WebSocket is the live feed source. It yields inbound text frames one at
// a time; there is no reconnect, a closed connection ends the run.
type WebSocket struct {
	ws connector.Websocket
}

// NewWebSocket connects to the feed endpoint.
func NewWebSocket(ctx context.Context, cfg *config.WS, url string) (*WebSocket, error) {
	ws, err := connector.NewWebsocket(ctx, cfg, url)
	if err != nil {
		return nil, errors.Wrapf(err, "not able to connect websocket %v", url)
	}
	log.Info().Str("url", url).Msg("websocket connected")
	return &WebSocket{ws: ws}, nil
}

// Next blocks on the next inbound frame. A close by the server maps to
// io.EOF so the plant run ends; a close triggered by context cancellation
// surfaces the context error instead.
func (s *WebSocket) Next(ctx context.Context) ([]byte, error) {
	for {
		frame, err := s.ws.Read()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var closed wsutil.ClosedError
			if err == io.EOF || errors.Is(err, net.ErrClosed) || errors.As(err, &closed) {
				log.Info().Msg("connection closed by feed server")
				return nil, io.EOF
			}
			return nil, errors.Wrap(err, "websocket read")
		}
		if len(frame) == 0 {
			continue
		}
		return frame, nil
	}
}

// Close closes the underlying connection, unblocking a pending Next.
func (s *WebSocket) Close() error {
	return s.ws.Conn.Close()
}
