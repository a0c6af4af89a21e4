// Package sse implements a Server-Sent Events broker that relays note
// service events to the shell.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// NotesUpdated tells shells to refresh their note list. It follows the first
// list change at once; further changes inside the throttle window collapse
// into one trailing NotesUpdated when the window ends.
const NotesUpdated = "notes.updated"

// listEvents change the note list.
var listEvents = map[string]bool{
	"note.saved":    true,
	"note.created":  true,
	"note.deleted":  true,
	"data.imported": true,
}

const (
	queueSize        = 256
	clientBuffer     = 64
	replaySize       = 128
	defaultKeepAlive = 15 * time.Second
	retryMillis      = 3000
)

// Event is a message published by the note service.
type Event struct {
	Type string
	Data any
}

type frame struct {
	id  uint64
	raw []byte
}

// hub is the state owned by the loop goroutine.
type hub struct {
	clients map[chan []byte]struct{}
	seq     uint64
	recent  []frame // last replaySize frames, oldest first
}

// Option configures a Broker.
type Option func(*Broker)

// WithKeepAlive sets how often streams receive a comment line. Non-positive
// values keep the default.
func WithKeepAlive(d time.Duration) Option {
	return func(b *Broker) {
		if d > 0 {
			b.keepAlive = d
		}
	}
}

// Broker fans service events out to SSE clients.
//
// One loop goroutine owns the hub. Callers hand it closures over ops and
// events over a buffered queue, so the hub needs no lock.
type Broker struct {
	listMin   time.Duration
	keepAlive time.Duration

	ops    chan func(*hub)
	events chan Event

	dropped   atomic.Int64
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewBroker starts a broker that sends notes.updated at most once per
// listThrottle.
func NewBroker(listThrottle time.Duration, opts ...Option) *Broker {
	if listThrottle <= 0 {
		listThrottle = 2 * time.Second
	}
	b := &Broker{
		listMin:   listThrottle,
		keepAlive: defaultKeepAlive,
		ops:       make(chan func(*hub)),
		events:    make(chan Event, queueSize),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.done)

	h := &hub{clients: make(map[chan []byte]struct{})}
	var (
		lastList time.Time
		trailing *time.Timer
		trailC   <-chan time.Time
	)

	for {
		select {
		case <-b.quit:
			if trailing != nil {
				trailing.Stop()
			}
			for ch := range h.clients {
				close(ch)
			}
			return

		case op := <-b.ops:
			op(h)

		case ev := <-b.events:
			b.deliver(h, ev)
			if !listEvents[ev.Type] || trailing != nil {
				continue
			}
			if wait := b.listMin - time.Since(lastList); wait > 0 {
				trailing = time.NewTimer(wait)
				trailC = trailing.C
				continue
			}
			lastList = time.Now()
			b.deliver(h, Event{Type: NotesUpdated, Data: struct{}{}})

		case <-trailC:
			trailing, trailC = nil, nil
			lastList = time.Now()
			b.deliver(h, Event{Type: NotesUpdated, Data: struct{}{}})
		}
	}
}

// deliver numbers ev, keeps it for replay and offers it to every client.
// A client whose buffer is full misses the frame.
func (b *Broker) deliver(h *hub, ev Event) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		b.dropped.Add(1)
		return
	}
	h.seq++
	f := frame{id: h.seq, raw: []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", h.seq, ev.Type, payload))}
	h.recent = append(h.recent, f)
	if len(h.recent) > replaySize {
		h.recent = h.recent[len(h.recent)-replaySize:]
	}
	for ch := range h.clients {
		select {
		case ch <- f.raw:
		default:
			b.dropped.Add(1)
		}
	}
}

// do runs op on the loop goroutine and waits for it. It reports false once
// the broker is closed.
func (b *Broker) do(op func(*hub)) bool {
	finished := make(chan struct{})
	select {
	case b.ops <- func(h *hub) { op(h); close(finished) }:
	case <-b.done:
		return false
	}
	<-finished
	return true
}

// Close stops the loop and closes every client channel.
func (b *Broker) Close() {
	b.closeOnce.Do(func() { close(b.quit) })
	<-b.done
}

// Subscribe registers a client for events published from now on.
func (b *Broker) Subscribe() chan []byte {
	return b.subscribe(0, false)
}

// SubscribeAfter registers a client and first queues the retained frames
// numbered above lastID.
func (b *Broker) SubscribeAfter(lastID uint64) chan []byte {
	return b.subscribe(lastID, true)
}

func (b *Broker) subscribe(lastID uint64, replay bool) chan []byte {
	ch := make(chan []byte, clientBuffer)
	ok := b.do(func(h *hub) {
		if replay {
			for _, f := range h.recent {
				if f.id <= lastID {
					continue
				}
				select {
				case ch <- f.raw:
				default:
					b.dropped.Add(1)
				}
			}
		}
		h.clients[ch] = struct{}{}
	})
	if !ok {
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.do(func(h *hub) {
		if _, ok := h.clients[ch]; ok {
			delete(h.clients, ch)
			close(ch)
		}
	})
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	var n int
	if !b.do(func(h *hub) { n = len(h.clients) }) {
		return 0
	}
	return n
}

// Publish queues an event for every client. It never blocks: when the
// queue is full the event is dropped and counted.
func (b *Broker) Publish(eventType string, data any) {
	select {
	case <-b.quit:
		return
	default:
	}
	select {
	case b.events <- Event{Type: eventType, Data: data}:
	default:
		b.dropped.Add(1)
	}
}

// Dropped returns the number of frames lost to a full queue or a slow client.
func (b *Broker) Dropped() int64 {
	return b.dropped.Load()
}

// ServeHTTP streams events (GET /api/events). A reconnecting client that
// sends Last-Event-ID receives the retained frames it missed.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	var ch chan []byte
	if id, err := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64); err == nil {
		ch = b.SubscribeAfter(id)
	} else {
		ch = b.Subscribe()
	}
	defer b.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "retry: %d\n\n", retryMillis)
	flusher.Flush()

	ping := time.NewTicker(b.keepAlive)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
