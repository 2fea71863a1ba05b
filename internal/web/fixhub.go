package web

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"nmeafix/internal/fix"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // status page may be served from another host
	},
}

// FixBroadcaster fans fix reports out to websocket listeners. It keeps the
// most recent report so new subscribers get an immediate sample.
type FixBroadcaster struct {
	mu       sync.RWMutex
	subs     map[int]chan fix.Report
	nextID   int
	last     fix.Report
	haveLast bool
}

func NewFixBroadcaster() *FixBroadcaster {
	return &FixBroadcaster{subs: make(map[int]chan fix.Report)}
}

func (b *FixBroadcaster) Subscribe(buffer int) (int, <-chan fix.Report) {
	if buffer <= 0 {
		buffer = 4
	}
	ch := make(chan fix.Report, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	if b.haveLast {
		ch <- b.last
	}
	return id, ch
}

func (b *FixBroadcaster) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// PublishFix sends f to every subscriber. Slow subscribers miss reports.
func (b *FixBroadcaster) PublishFix(f fix.Fix) error {
	rep := f.Report()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = rep
	b.haveLast = true
	for _, ch := range b.subs {
		select {
		case ch <- rep:
		default:
		}
	}
	return nil
}

func (b *FixBroadcaster) Last() (fix.Report, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, b.haveLast
}

// ServeWS streams fix reports as JSON text messages until the client leaves.
func (b *FixBroadcaster) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web fix stream upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	id, ch := b.Subscribe(8)
	defer b.Unsubscribe(id)

	// The client never sends anything useful; reading detects close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("web fix stream read: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case rep, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(rep); err != nil {
				return
			}
		}
	}
}
