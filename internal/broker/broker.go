package broker

import (
	"encoding/json"
	"fmt"
	"strings"

	"doko3000/internal/protocol"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const (
	subjectPrefix = "doko"
	subjectAll    = subjectPrefix + ".all"
)

// envelope is an event on the wire between instances.
type envelope struct {
	Name    string          `json:"name"`
	Room    string          `json:"room,omitempty"`
	Session string          `json:"session,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Broker fans outbound events out to every server instance through NATS.
type Broker struct {
	Url  string
	Conn *nats.Conn
	sub  *nats.Subscription
}

// Connect opens the NATS connection. token may be empty.
func Connect(url, token, name string) (*Broker, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	opts := []nats.Option{
		nats.Name(name),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &Broker{Url: url, Conn: conn}, nil
}

// Subject maps an event to its NATS subject.
func Subject(ev protocol.Event) string {
	switch {
	case ev.Room != "":
		return subjectPrefix + ".room." + token(ev.Room)
	case ev.Session != "":
		return subjectPrefix + ".session." + token(ev.Session)
	}
	return subjectAll
}

// token keeps ids from adding subject levels or wildcards.
func token(id string) string {
	return strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(id)
}

// Publish implements service.Publisher.
func (b *Broker) Publish(ev protocol.Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", ev.Name, err)
	}
	data, err := json.Marshal(envelope{Name: ev.Name, Room: ev.Room, Session: ev.Session, Payload: payload})
	if err != nil {
		return err
	}
	return b.Conn.Publish(Subject(ev), data)
}

// Subscribe hands every event published by any instance to deliver.
func (b *Broker) Subscribe(deliver func(protocol.Event)) error {
	sub, err := b.Conn.Subscribe(subjectPrefix+".>", func(msg *nats.Msg) {
		ev, err := decode(msg.Data)
		if err != nil {
			log.Errorf("Error nats message on %s: %s", msg.Subject, err)
			return
		}
		deliver(ev)
	})
	if err != nil {
		return err
	}
	b.sub = sub
	log.Infof("Subscribed to %s.>", subjectPrefix)
	return nil
}

func decode(data []byte) (protocol.Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return protocol.Event{}, err
	}
	return protocol.Event{Name: env.Name, Room: env.Room, Session: env.Session, Payload: env.Payload}, nil
}

func (b *Broker) Close() {
	if b.sub != nil {
		if err := b.sub.Unsubscribe(); err != nil {
			log.Warnf("Unsubscribing failed: %v", err)
		}
	}
	b.Conn.Close()
}
