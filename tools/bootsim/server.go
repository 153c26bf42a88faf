package main

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxConsoleRequest caps the amount of text accepted by a single console
// request.
const maxConsoleRequest = 64 << 10

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// countRequests tracks the number of requests served by each route.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unknown"
		if cur := mux.CurrentRoute(r); cur != nil {
			if name := cur.GetName(); name != "" {
				route = name
			}
		}
		httpRequests.WithLabelValues(route).Inc()

		next.ServeHTTP(w, r)
	})
}

// router returns the HTTP API of the simulator:
//
//	GET  /screen.png  PNG snapshot of the framebuffer
//	POST /console     write the request body to the console
//	GET  /console/ws  websocket; text messages are written to the console
//	GET  /metrics     prometheus metrics
func (s *simulator) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(countRequests)
	r.Path("/screen.png").Methods(http.MethodGet).HandlerFunc(s.serveScreen).Name("screen")
	r.Path("/console").Methods(http.MethodPost).HandlerFunc(s.serveConsoleWrite).Name("console")
	r.Path("/console/ws").HandlerFunc(s.serveConsoleSocket).Name("console_ws")
	r.Path("/metrics").Handler(promhttp.Handler()).Name("metrics")
	return r
}

func (s *simulator) serveScreen(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.EncodePNG(w); err != nil {
		s.logger.Warnw("unable to encode screen snapshot", "err", err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	}
}

func (s *simulator) serveConsoleWrite(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	text, err := io.ReadAll(io.LimitReader(r.Body, maxConsoleRequest))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err = s.Write(text); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *simulator) serveConsoleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debugw("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	wsClients.Inc()
	defer wsClients.Dec()

	conn.SetReadLimit(maxConsoleRequest)
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			s.logger.Debugw("websocket client disconnected", "err", err)
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		if _, err = s.Write(data); err != nil {
			s.logger.Warnw("unable to write to console", "err", err)
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error()))
			return
		}
	}
}
