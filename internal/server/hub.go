package server

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/farmlife/internal/core/observability/log"
	"github.com/zeusync/farmlife/internal/replication"
	"github.com/zeusync/farmlife/pkg/encoding"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

const (
	FrameSnapshot = "snapshot"
	FrameDelta    = "delta"
	FrameError    = "error"
)

// Frame is what observers receive. A snapshot is always the first frame;
// deltas with a version not above the snapshot's are already contained in it.
type Frame struct {
	Type  string             `json:"type"`
	Delta *replication.Delta `json:"delta,omitempty"`
	Error string             `json:"error,omitempty"`
}

// Snapshotter provides the full state a new observer starts from.
type Snapshotter interface {
	Full() replication.Delta
}

type Config struct {
	Addr         string
	Path         string
	WriteTimeout time.Duration
	// SendBuffer is the number of frames queued per observer before it is
	// considered too slow and dropped.
	SendBuffer   int
	MaxObservers int
	Token        string
}

func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		Path:         "/observe",
		WriteTimeout: 5 * time.Second,
		SendBuffer:   16,
		MaxObservers: 64,
	}
}

type observer struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (o *observer) close() {
	o.once.Do(func() { close(o.done) })
}

// Hub fans replication frames out to websocket observers.
type Hub struct {
	cfg  Config
	snap Snapshotter
	auth TokenAuth
	log  log.Log

	mu        sync.Mutex
	observers map[string]*observer
	closed    bool

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

func NewHub(cfg Config, snap Snapshotter, logger log.Log) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = DefaultConfig().SendBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	return &Hub{
		cfg:       cfg,
		snap:      snap,
		auth:      NewTokenAuth(cfg.Token),
		log:       log.OrNop(logger).With(log.String("component", "hub")),
		observers: make(map[string]*observer),
	}
}

// ServeHTTP upgrades the request and streams frames until the observer leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Authorize(r); err != nil {
		h.log.Warn("observer rejected", log.String("remote", r.RemoteAddr), log.Error(err))
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if h.full() {
		http.Error(w, ErrMaxObserversReached.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", log.String("remote", r.RemoteAddr), log.Error(err))
		return
	}

	o := &observer{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.cfg.SendBuffer),
		done: make(chan struct{}),
	}
	if err = h.register(o); err != nil {
		h.log.Debug("observer refused", log.Error(err))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
		_ = conn.Close()
		return
	}

	go h.writeLoop(o)
	h.readLoop(o)
}

func (h *Hub) full() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg.MaxObservers > 0 && len(h.observers) >= h.cfg.MaxObservers
}

// register snapshots, queues the snapshot and adds o under one lock. A delta
// collected before the snapshot but broadcast after it carries a version the
// observer already has.
func (h *Hub) register(o *observer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case h.closed:
		return ErrHubClosed
	case h.cfg.MaxObservers > 0 && len(h.observers) >= h.cfg.MaxObservers:
		return ErrMaxObserversReached
	}

	full := h.snap.Full()
	data, err := encoding.Marshal(Frame{Type: FrameSnapshot, Delta: &full})
	if err != nil {
		return err
	}
	o.send <- data
	h.observers[o.id] = o

	h.log.Info("observer joined",
		log.String("observer", o.id),
		log.String("remote", o.conn.RemoteAddr().String()),
		log.Uint64("version", full.Version),
		log.Int("observers", len(h.observers)),
	)
	return nil
}

func (h *Hub) unregister(o *observer) {
	h.mu.Lock()
	_, ok := h.observers[o.id]
	delete(h.observers, o.id)
	h.mu.Unlock()

	o.close()
	if ok {
		h.log.Info("observer left", log.String("observer", o.id))
	}
}

// readLoop answers every inbound message with an error frame. It returns when
// the connection fails or closes.
func (h *Hub) readLoop(o *observer) {
	defer h.unregister(o)

	reject, _ := encoding.Marshal(Frame{Type: FrameError, Error: ErrNotAuthoritative.Error()})
	for {
		if _, _, err := o.conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("observer read ended", log.String("observer", o.id), log.Error(err))
			}
			return
		}
		h.log.Debug("observer command ignored", log.String("observer", o.id))
		select {
		case o.send <- reject:
		default:
		}
	}
}

func (h *Hub) writeLoop(o *observer) {
	defer func() { _ = o.conn.Close() }()
	for {
		select {
		case <-o.done:
			_ = o.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(h.cfg.WriteTimeout))
			return
		case data := <-o.send:
			_ = o.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := o.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.log.Debug("observer write failed", log.String("observer", o.id), log.Error(err))
				h.unregister(o)
				return
			}
		}
	}
}

// Broadcast queues d for every observer. Observers whose queue is full are
// dropped rather than slowing the simulation down.
func (h *Hub) Broadcast(d replication.Delta) error {
	data, err := encoding.Marshal(Frame{Type: FrameDelta, Delta: &d})
	if err != nil {
		return err
	}

	var slow []*observer
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	for _, o := range h.observers {
		select {
		case o.send <- data:
			h.delivered.Add(1)
		default:
			slow = append(slow, o)
		}
	}
	h.mu.Unlock()

	for _, o := range slow {
		h.dropped.Add(1)
		h.log.Warn("slow observer dropped", log.String("observer", o.id), log.Uint64("version", d.Version))
		h.unregister(o)
	}
	return nil
}

// Close disconnects every observer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	all := make([]*observer, 0, len(h.observers))
	for _, o := range h.observers {
		all = append(all, o)
	}
	h.observers = make(map[string]*observer)
	h.mu.Unlock()

	for _, o := range all {
		o.close()
	}
}

type Stats struct {
	Observers int
	Delivered uint64
	Dropped   uint64
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	n := len(h.observers)
	h.mu.Unlock()
	return Stats{Observers: n, Delivered: h.delivered.Load(), Dropped: h.dropped.Load()}
}
