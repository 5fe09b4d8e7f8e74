package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/sakif/component-playground/internal/playground"
	"github.com/sakif/component-playground/internal/service"
)

const (
	liveWriteTimeout = 10 * time.Second
	livePingInterval = 30 * time.Second
)

// LiveHandler serves live preview sessions over WebSocket.
//
// PROTOCOL (JSON text frames):
//
//	client → {"type":"edit","source":"...","componentType":"button"}
//	client → {"type":"reset","componentType":"card"}
//	server → {"type":"render","state":"failed","result":{...},"html":"..."}
//	server → {"type":"report","error":{"kind":"reference",...}}
//
// Every render is answered with one render event. A failed render is
// followed, never preceded, by exactly one report event.
type LiveHandler struct {
	opts   playground.Options
	logger *slog.Logger
}

// NewLiveHandler creates a LiveHandler whose sessions share opts.
func NewLiveHandler(opts playground.Options, logger *slog.Logger) *LiveHandler {
	opts.Logger = logger
	return &LiveHandler{opts: opts, logger: logger}
}

// HandleLive upgrades the request and runs a session until the client leaves.
//
// HTTP: GET /ws/preview?componentType=button
//
// When componentType is given the session starts on that sample, so the
// client receives a first render without sending anything.
func (h *LiveHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	// The server's read/write timeouts are meant for ordinary requests and
	// would otherwise cut every session off after a few seconds.
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	// Same-origin only: coder/websocket rejects cross-origin upgrades unless
	// OriginPatterns says otherwise.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		// Accept has already written the HTTP error response.
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxBodyBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session, err := playground.NewSession(ctx, h.opts, playground.SenderFunc(func(ctx context.Context, ev playground.Event) error {
		wctx, wcancel := context.WithTimeout(ctx, liveWriteTimeout)
		defer wcancel()
		return wsjson.Write(wctx, conn, ev)
	}))
	if err != nil {
		h.logger.Error("creating preview session", slog.String("error", err.Error()))
		conn.Close(websocket.StatusInternalError, "session unavailable")
		return
	}
	defer session.Close()

	if componentType := r.URL.Query().Get("componentType"); componentType != "" {
		session.Reset(componentType)
	}

	go h.keepAlive(ctx, conn, cancel)

	status, reason := h.readLoop(ctx, conn, session)
	conn.Close(status, reason)
}

// readLoop feeds client messages to the session until the connection ends
// or the client sends something the protocol does not allow.
func (h *LiveHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *playground.Session) (websocket.StatusCode, string) {
	for {
		var msg playground.Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return websocket.StatusNormalClosure, ""
			}
			if errors.Is(err, context.Canceled) {
				return websocket.StatusGoingAway, "server closing"
			}
			h.logger.Warn("websocket read failed",
				slog.String("session", session.ID()),
				slog.String("error", err.Error()),
			)
			return websocket.StatusUnsupportedData, "invalid message"
		}

		if len(msg.Source) > service.MaxSourceLength {
			return websocket.StatusMessageTooBig, "source too long"
		}
		if err := session.Handle(msg); err != nil {
			h.logger.Warn("rejected live message",
				slog.String("session", session.ID()),
				slog.String("error", err.Error()),
			)
			return websocket.StatusPolicyViolation, "unknown message type"
		}
	}
}

// keepAlive pings the client so idle editors survive proxies that drop
// silent connections. A failed ping ends the session.
func (h *LiveHandler) keepAlive(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	ticker := time.NewTicker(livePingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, pcancel := context.WithTimeout(ctx, liveWriteTimeout)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				cancel()
				return
			}
		}
	}
}
