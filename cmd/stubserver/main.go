// Command stubserver is a local stand-in for the studio backend. It serves
// the realtime channel and just enough of the REST API for livewatch to run
// against, and emits sample events so the pipeline can be watched end to end.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/ivylane/studio-live/internal/event"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// client is one connected subscriber. gorilla/websocket allows a single
// concurrent writer per connection, so pong replies and broadcasts share
// the write mutex.
type client struct {
	conn       *websocket.Conn
	subscriber string

	writeMu sync.Mutex
}

func (c *client) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// hub tracks connected subscribers and broadcasts frames to them.
type hub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

func (h *hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.conn.Close()
}

// broadcast sends one frame to every connected subscriber. The client set
// is snapshotted so slow writes do not hold the hub lock.
func (h *hub) broadcast(data []byte) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.write(data); err != nil {
			h.logger.Warn("write failed", "subscriber", c.subscriber, "err", err)
		}
	}
}

// serve handles one subscriber connection: answer pings, hold the socket.
func (h *hub) serve(w http.ResponseWriter, r *http.Request) {
	subscriber := chi.URLParam(r, "subscriber")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "err", err)
		return
	}
	c := &client{conn: conn, subscriber: subscriber}
	h.add(c)
	h.logger.Info("subscriber connected", "subscriber", subscriber)

	defer func() {
		h.remove(c)
		h.logger.Info("subscriber disconnected", "subscriber", subscriber)
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType == websocket.TextMessage && string(data) == event.PingFrame {
			if err := c.write([]byte(event.PongFrame)); err != nil {
				return
			}
		}
	}
}

// sampleFrame builds one wire frame in the channel envelope.
func sampleFrame(kind event.Kind, actor string, payload any) []byte {
	raw, _ := json.Marshal(payload)
	frame, _ := json.Marshal(map[string]any{
		"type":      string(kind),
		"data":      json.RawMessage(raw),
		"user_name": actor,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	return frame
}

// emitSamples broadcasts a rotating set of sample events.
func emitSamples(h *hub, interval time.Duration) {
	samples := []func(i int) []byte{
		func(i int) []byte {
			return sampleFrame(event.KindStudentCreated, "Bob", event.StudentPayload{
				Student: event.Student{ID: int64(i), Name: fmt.Sprintf("Student %d", i)},
			})
		},
		func(i int) []byte {
			return sampleFrame(event.KindLessonUpdated, "Mia", event.LessonPayload{
				Lesson: event.Lesson{ID: int64(i), Title: fmt.Sprintf("Lesson %d", i)},
			})
		},
		func(i int) []byte {
			return sampleFrame(event.KindTeacherCreated, "Bob", event.TeacherPayload{
				Teacher: event.Teacher{ID: int64(i), Name: fmt.Sprintf("Teacher %d", i)},
			})
		},
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	i := 0
	for range ticker.C {
		h.broadcast(samples[i%len(samples)](i))
		i++
	}
}

func main() {
	port := flag.Int("port", 8080, "listen port")
	emitEvery := flag.Duration("emit", 10*time.Second, "sample event interval (0 disables)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	h := newHub(logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/live/{subscriber}", h.serve)

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/api/summary", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"students":12,"teachers":3,"lessons":48}`))
	})

	// POST /emit injects an arbitrary frame, e.g.
	//   curl -d '{"type":"student_created","data":{"student":{"name":"Ana"}},"user_name":"Bob"}' :8080/emit
	r.Post("/emit", func(w http.ResponseWriter, r *http.Request) {
		var frame json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&frame); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.broadcast(frame)
		w.WriteHeader(http.StatusAccepted)
	})

	if *emitEvery > 0 {
		go emitSamples(h, *emitEvery)
	}

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("stub server listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
