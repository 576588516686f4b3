package mqtt

import "sync"

// Message is one publish recorded by FakeClient.
type Message struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// FakeClient is an in-memory Client for tests. Deliver invokes the handler
// subscribed to a topic synchronously.
type FakeClient struct {
	mu        sync.Mutex
	published []Message
	handlers  map[string]Handler
	closed    bool

	// PublishError, if set, is returned by Publish.
	PublishError error
}

func NewFakeClient() *FakeClient {
	return &FakeClient{handlers: map[string]Handler{}}
}

func (f *FakeClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.published = append(f.published, Message{
		Topic:    topic,
		QoS:      qos,
		Retained: retained,
		Payload:  append([]byte(nil), payload...),
	})
	return nil
}

func (f *FakeClient) Subscribe(topic string, _ byte, h Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = h
	return nil
}

func (f *FakeClient) Unsubscribe(topics ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range topics {
		delete(f.handlers, t)
	}
	return nil
}

func (f *FakeClient) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// Deliver simulates an incoming message. It reports whether a handler existed.
func (f *FakeClient) Deliver(topic string, payload []byte) bool {
	f.mu.Lock()
	h, ok := f.handlers[topic]
	f.mu.Unlock()
	if ok {
		h(topic, payload)
	}
	return ok
}

// Published returns a copy of all recorded publishes.
func (f *FakeClient) Published() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.published...)
}

// Subscribed reports whether topic has a handler.
func (f *FakeClient) Subscribed(topic string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.handlers[topic]
	return ok
}

func (f *FakeClient) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
