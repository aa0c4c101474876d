package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/alfredjeanlab/ims/internal/idgen"
)

// HeaderPublishedAt carries the publisher's clock (RFC 3339, UTC) so a watcher
// shows when a change happened rather than when it arrived. The event ID
// travels in nats.MsgIdHdr, which JetStream also uses for deduplication.
const HeaderPublishedAt = "Ims-Published-At"

// NATSPublisher publishes events as JSON on NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
	now  func() time.Time
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("ims-client"))
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{conn: nc, now: time.Now}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	id, err := idgen.EventID()
	if err != nil {
		return err
	}
	msg := nats.NewMsg(topic)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, id)
	msg.Header.Set(HeaderPublishedAt, p.now().UTC().Format(time.RFC3339Nano))
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	return nil
}

// Close flushes before closing: a CLI process usually exits right after its
// last publish.
func (p *NATSPublisher) Close() error {
	err := p.conn.FlushTimeout(2 * time.Second)
	p.conn.Close()
	if err != nil {
		return fmt.Errorf("flushing NATS: %w", err)
	}
	return nil
}

// NATSSubscriber delivers events from NATS subjects, reconnecting forever.
type NATSSubscriber struct {
	conn *nats.Conn
}

// NewNATSSubscriber connects to url. opts are appended to the defaults, e.g.
// disconnect and reconnect handlers for logging.
func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	defaults := []nats.Option{
		nats.Name("ims-watch"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSSubscriber{conn: nc}, nil
}

// toMessage converts a NATS message. Events from publishers that set no
// headers arrive with an empty ID and a zero PublishedAt.
func toMessage(m *nats.Msg) Message {
	out := Message{Topic: m.Subject, Data: m.Data}
	if m.Header == nil {
		return out
	}
	out.ID = m.Header.Get(nats.MsgIdHdr)
	if ts := m.Header.Get(HeaderPublishedAt); ts != "" {
		if at, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			out.PublishedAt = at
		}
	}
	return out
}

// Subscribe delivers events matching topic ("ims.>" for everything) until the
// returned cancel function is called, which also closes the channel.
func (s *NATSSubscriber) Subscribe(topic string) (<-chan Message, func(), error) {
	ch := make(chan Message, 64)

	var (
		mu     sync.Mutex
		closed bool
		once   sync.Once
	)

	sub, err := s.conn.Subscribe(topic, func(m *nats.Msg) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- toMessage(m):
		default:
			// A slow watcher loses events rather than stalling the connection.
		}
	})
	if err != nil {
		close(ch)
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	// Until the server has the subscription, events published on other
	// connections are not routed to it.
	if err := s.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		close(ch)
		return nil, nil, fmt.Errorf("flushing subscription: %w", err)
	}

	cancel := func() {
		once.Do(func() {
			_ = sub.Unsubscribe()
			mu.Lock()
			closed = true
			mu.Unlock()
			for {
				select {
				case <-ch:
				default:
					close(ch)
					return
				}
			}
		})
	}

	return ch, cancel, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
