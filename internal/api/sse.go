package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// StreamEvent is one Server-Sent Event.
type StreamEvent struct {
	Type string
	Data any
}

type subscription struct {
	topic string
	ch    chan []byte
}

type publication struct {
	topic string
	event StreamEvent
}

// Broker fans events out to SSE clients subscribed to a topic (a session
// ID). A single goroutine owns the client set; public methods talk to it
// over channels.
type Broker struct {
	subscribeCh   chan subscription
	unsubscribeCh chan subscription
	publishCh     chan publication
	closeTopicCh  chan string
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker.
func NewBroker() *Broker {
	b := &Broker{
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan subscription),
		publishCh:     make(chan publication, 256),
		closeTopicCh:  make(chan string, 16),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

func encodeEvent(ev StreamEvent) ([]byte, error) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "event: %s\ndata: %s\n\n", ev.Type, payload), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	topics := make(map[string]map[chan []byte]struct{})

	for {
		select {
		case <-b.stopCh:
			for _, clients := range topics {
				for ch := range clients {
					close(ch)
				}
			}
			return

		case sub := <-b.subscribeCh:
			if topics[sub.topic] == nil {
				topics[sub.topic] = make(map[chan []byte]struct{})
			}
			topics[sub.topic][sub.ch] = struct{}{}

		case sub := <-b.unsubscribeCh:
			if clients, ok := topics[sub.topic]; ok {
				if _, ok := clients[sub.ch]; ok {
					delete(clients, sub.ch)
					close(sub.ch)
				}
				if len(clients) == 0 {
					delete(topics, sub.topic)
				}
			}

		case p := <-b.publishCh:
			raw, err := encodeEvent(p.event)
			if err != nil {
				slog.Warn("sse encode failed", slog.String("type", p.event.Type), slog.String("error", err.Error()))
				continue
			}
			for ch := range topics[p.topic] {
				select {
				case ch <- raw:
				default:
					// Slow client; drop rather than stall the loop.
				}
			}

		case topic := <-b.closeTopicCh:
			for ch := range topics[topic] {
				close(ch)
			}
			delete(topics, topic)

		case resp := <-b.countReqCh:
			n := 0
			for _, clients := range topics {
				n += len(clients)
			}
			resp <- n
		}
	}
}

// Close stops the loop and disconnects every client.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client on topic.
func (b *Broker) Subscribe(topic string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subscribeCh <- subscription{topic: topic, ch: ch}:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(topic string, ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- subscription{topic: topic, ch: ch}:
	case <-b.stopped:
	}
}

// Publish sends an event to every client on topic.
func (b *Broker) Publish(topic string, ev StreamEvent) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- publication{topic: topic, event: ev}:
	case <-b.stopped:
	}
}

// CloseTopic disconnects every client on topic.
func (b *Broker) CloseTopic(topic string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.closeTopicCh <- topic:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients across all topics.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Stream serves topic as text/event-stream until the client goes away or
// the topic is closed. first, when non-nil, is written before any
// published event.
func (b *Broker) Stream(w http.ResponseWriter, r *http.Request, topic string, first *StreamEvent) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := b.Subscribe(topic)
	defer b.Unsubscribe(topic, ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if first != nil {
		if raw, err := encodeEvent(*first); err == nil {
			_, _ = w.Write(raw)
		}
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
