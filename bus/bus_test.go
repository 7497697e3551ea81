// bus/bus_test.go
package bus

import (
	"testing"
	"time"
)

func recv(t *testing.T, sub *Subscription) *Message {
	t.Helper()
	select {
	case got := <-sub.Channel():
		return got
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
		return nil
	}
}

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4, "+", "#")
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("config", "bridge"))

	conn.Publish(conn.NewMessage(T("config", "bridge"), "hello", false))

	got := recv(t, sub)
	if got.Payload.(string) != "hello" {
		t.Errorf("expected payload 'hello', got %v", got.Payload)
	}
}

func TestRetainedMessage(t *testing.T) {
	b := NewBus(2, "+", "#")
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(T("config", "bridge"), "persist", true))

	sub := conn.Subscribe(T("config", "bridge"))
	got := recv(t, sub)
	if got.Payload.(string) != "persist" {
		t.Errorf("expected retained payload 'persist', got %v", got.Payload)
	}
}

func TestRetainedCleared(t *testing.T) {
	b := NewBus(2, "+", "#")
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(T("state", "bridge"), "up", true))
	conn.Publish(conn.NewMessage(T("state", "bridge"), nil, true))

	sub := conn.Subscribe(T("state", "bridge"))
	select {
	case got := <-sub.Channel():
		t.Fatalf("expected no retained message, got %v", got.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWildcard_SingleLevel(t *testing.T) {
	b := NewBus(4, "+", "#")
	c := b.NewConnection("test")

	sub := c.Subscribe(T("link", "+"))
	c.Publish(c.NewMessage(T("link", "ev"), 1, false))
	c.Publish(c.NewMessage(T("other", "ev"), 2, false))

	got := recv(t, sub)
	if got.Payload.(int) != 1 {
		t.Errorf("expected payload 1, got %v", got.Payload)
	}
	select {
	case got := <-sub.Channel():
		t.Fatalf("unexpected second message: %v", got.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWildcard_MultiLevel(t *testing.T) {
	b := NewBus(4, "+", "#")
	c := b.NewConnection("test")

	sub := c.Subscribe(T("state", "#"))
	c.Publish(c.NewMessage(T("state", "bridge"), "a", false))
	c.Publish(c.NewMessage(T("state", "server", "detail"), "b", false))

	if got := recv(t, sub); got.Payload.(string) != "a" {
		t.Errorf("expected 'a', got %v", got.Payload)
	}
	if got := recv(t, sub); got.Payload.(string) != "b" {
		t.Errorf("expected 'b', got %v", got.Payload)
	}
}

func TestDropOldestWhenFull(t *testing.T) {
	b := NewBus(2, "+", "#")
	c := b.NewConnection("test")

	sub := c.Subscribe(T("link", "ev"))
	for i := 0; i < 5; i++ {
		c.Publish(c.NewMessage(T("link", "ev"), i, false))
	}

	// Queue holds the most recent two.
	if got := recv(t, sub); got.Payload.(int) != 3 {
		t.Errorf("expected 3, got %v", got.Payload)
	}
	if got := recv(t, sub); got.Payload.(int) != 4 {
		t.Errorf("expected 4, got %v", got.Payload)
	}
}

func TestReply(t *testing.T) {
	b := NewBus(4, "+", "#")
	c := b.NewConnection("test")

	replySub := c.Subscribe(T("_reply", "1"))
	req := &Message{Topic: T("console", "control"), Payload: "ls", ReplyTo: T("_reply", "1")}
	c.Reply(req, "ok", false)

	if got := recv(t, replySub); got.Payload.(string) != "ok" {
		t.Errorf("expected 'ok', got %v", got.Payload)
	}
}

func TestUnsubscribePrunesTrie(t *testing.T) {
	b := NewBus(4, "+", "#")
	c := b.NewConnection("test")

	sub := c.Subscribe(T("a", "b", "c"))
	c.Unsubscribe(sub)

	if len(b.root.children) != 0 {
		t.Errorf("expected empty trie after unsubscribe, got %d children", len(b.root.children))
	}
}
