// internal/adapters/in/http/handlers/stats_stream_handler.go
package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	httpmw "github.com/Argy1/pdpi-member-sub002/internal/adapters/in/http/middleware"
	"github.com/Argy1/pdpi-member-sub002/internal/application/guard"
	appstats "github.com/Argy1/pdpi-member-sub002/internal/application/stats"
	usecase "github.com/Argy1/pdpi-member-sub002/internal/application/usecase"
	statsdom "github.com/Argy1/pdpi-member-sub002/internal/domain/stats"
	"github.com/Argy1/pdpi-member-sub002/internal/infra/metrics"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
	streamReadLimit  = 4096
)

// Client → server message types.
const (
	msgParams  = "params"
	msgRefresh = "refresh"
)

type streamClientMessage struct {
	Type   string                `json:"type"`
	Params statsdom.FilterParams `json:"params"`
}

type streamServerMessage struct {
	Type  string         `json:"type"`
	State appstats.State `json:"state"`
}

// StatsStreamHandler serves GET /stats/stream: a WebSocket dashboard session
// backed by one Aggregator. The client sends {"type":"params","params":{...}}
// or {"type":"refresh"}; the server pushes {"type":"state","state":{...}} for
// every state transition, the latest one always last.
type StatsStreamHandler struct {
	uc       *usecase.StatsUsecase
	guard    *guard.Guard
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewStatsStreamHandler(uc *usecase.StatsUsecase, g *guard.Guard, allowedOrigins string, log *zap.Logger) *StatsStreamHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &StatsStreamHandler{
		uc:    uc,
		guard: g,
		log:   log.Named("stats_stream"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func (h *StatsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if !httpmw.Authorize(w, r, h.guard) {
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	agg, err := h.uc.NewAggregator(ctx, statsParams(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	defer agg.Close()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("upgrade failed", zap.Error(err))
		return
	}
	metrics.StreamSessions.Inc()
	defer metrics.StreamSessions.Dec()

	states, unsubscribe := agg.Subscribe()
	defer unsubscribe()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer cancel()
		h.readLoop(ctx, conn, agg)
	}()

	h.writeLoop(ctx, conn, states)
	cancel()
	_ = conn.Close()
	<-readDone
}

func (h *StatsStreamHandler) readLoop(ctx context.Context, conn *websocket.Conn, agg *appstats.Aggregator) {
	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		var msg streamClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("read failed", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))

		switch msg.Type {
		case msgParams:
			p, err := h.uc.Scope(ctx, msg.Params)
			if err != nil {
				h.log.Debug("params rejected", zap.Error(err))
				continue
			}
			agg.SetParams(p)
		case msgRefresh:
			agg.Refresh()
		default:
			h.log.Debug("unknown message type", zap.String("type", msg.Type))
		}
	}
}

func (h *StatsStreamHandler) writeLoop(ctx context.Context, conn *websocket.Conn, states <-chan appstats.State) {
	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(streamWriteWait))
			return
		case s, ok := <-states:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(streamServerMessage{Type: "state", State: s}); err != nil {
				h.log.Debug("write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}

// originChecker accepts same-host requests and the configured origins.
func originChecker(origins string) func(*http.Request) bool {
	allowed := map[string]bool{}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed[o] = true
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowed["*"] || allowed[origin] {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}
