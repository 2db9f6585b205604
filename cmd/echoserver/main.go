// echoserver is a WebSocket echo server for local testing. Every text
// or binary frame is echoed back verbatim.
//
// Usage: go run ./cmd/echoserver --addr :8090
package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	http.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("upgrade failed", "error", err, "remote", r.RemoteAddr)
			return
		}
		defer conn.Close()

		logger.Info("client connected", "remote", r.RemoteAddr)
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				logger.Info("client disconnected", "remote", r.RemoteAddr, "error", err)
				return
			}
			if err := conn.WriteMessage(msgType, data); err != nil {
				logger.Warn("echo write failed", "remote", r.RemoteAddr, "error", err)
				return
			}
		}
	})

	logger.Info("echo server listening", "addr", *addr, "path", "/echo")
	if err := http.ListenAndServe(*addr, nil); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
