package server

import (
	"net/http"

	"github.com/coupfree/coup-server-go/internal/config"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// StartWebSocketServer serves the client-facing websocket endpoint. It
// blocks until the listener fails.
func StartWebSocketServer(cfg config.WebSocketConfig, hub *Hub, logger *zap.Logger) error {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufSize,
		WriteBufferSize: cfg.WriteBufSize,
	}
	if !cfg.CheckOrigin {
		upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Path, func(w http.ResponseWriter, r *http.Request) {
		serveWS(&upgrader, hub, logger, w, r)
	})

	logger.Info("starting websocket server",
		zap.String("address", cfg.Address),
		zap.String("path", cfg.Path),
	)
	return http.ListenAndServe(cfg.Address, mux)
}

func serveWS(upgrader *websocket.Upgrader, hub *Hub, logger *zap.Logger, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		hub:  hub,
	}
	hub.register(client)

	go client.writePump()
	go client.readPump()
}
