package server

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func newCapturedPeer() (*wsPeer, *bytes.Buffer) {
	var buf bytes.Buffer
	return newWSPeer(json.NewEncoder(&buf)), &buf
}

func TestBindingIDFromSelector(t *testing.T) {
	cases := []struct {
		selector string
		want     string
	}{
		{"input[data-binding='box-1']", "box-1"},
		{"input[data-binding='']", ""},
		{"div[data-binding='box-1']", ""},
		{"box-1", ""},
	}
	for _, tc := range cases {
		if got := bindingIDFromSelector(tc.selector); got != tc.want {
			t.Errorf("bindingIDFromSelector(%q) = %q, want %q", tc.selector, got, tc.want)
		}
	}
}

func TestBindRequiresAnnouncedControl(t *testing.T) {
	hub := newTableHub()
	peer, _ := newCapturedPeer()
	hub.join(peer)

	selector := "input[data-binding='box-1']"
	if hub.Bind(selector, "change", func(context.Context) {}) {
		t.Fatal("bind should fail before the control is announced")
	}

	hub.announce(peer, []string{"box-1"})
	if !hub.Bind(selector, "change", func(context.Context) {}) {
		t.Fatal("bind should succeed once the control is announced")
	}
}

func TestAnnounceIgnoresUnseatedPeer(t *testing.T) {
	hub := newTableHub()
	peer, _ := newCapturedPeer()

	hub.announce(peer, []string{"box-1"})
	if hub.Bind("input[data-binding='box-1']", "change", func(context.Context) {}) {
		t.Fatal("announcement from an unseated peer should not count")
	}
}

func TestDispatchRoutesToBoundHandler(t *testing.T) {
	hub := newTableHub()
	peer, _ := newCapturedPeer()
	hub.join(peer)
	hub.announce(peer, []string{"box-1"})

	fired := 0
	if !hub.Bind("input[data-binding='box-1']", "change", func(context.Context) { fired++ }) {
		t.Fatal("bind failed")
	}

	if !hub.dispatch(context.Background(), "box-1", "change") {
		t.Fatal("dispatch should find the bound handler")
	}
	if hub.dispatch(context.Background(), "box-1", "click") {
		t.Fatal("dispatch should reject a mismatched event")
	}
	if hub.dispatch(context.Background(), "box-2", "change") {
		t.Fatal("dispatch should reject an unbound control")
	}
	if fired != 1 {
		t.Fatalf("handler fired %d times, want 1", fired)
	}
}

func TestLeavePrunesAnnouncements(t *testing.T) {
	hub := newTableHub()
	peer, _ := newCapturedPeer()
	hub.join(peer)
	hub.announce(peer, []string{"box-1"})
	hub.leave(peer)

	if hub.Bind("input[data-binding='box-1']", "change", func(context.Context) {}) {
		t.Fatal("bind should fail after the announcing peer leaves")
	}
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	hub := newTableHub()
	first, firstOut := newCapturedPeer()
	second, secondOut := newCapturedPeer()
	hub.join(first)
	hub.join(second)

	hub.ShowRoll(context.Background(), []int{1, -1, 0, 1})

	for name, out := range map[string]*bytes.Buffer{"first": firstOut, "second": secondOut} {
		var frame wsFrame
		if err := json.Unmarshal(out.Bytes(), &frame); err != nil {
			t.Fatalf("%s peer frame: %v", name, err)
		}
		if frame.Type != "dice.roll" {
			t.Fatalf("%s peer frame type = %s, want dice.roll", name, frame.Type)
		}
		var payload diceRollPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			t.Fatalf("%s peer payload: %v", name, err)
		}
		if len(payload.Values) != 4 {
			t.Fatalf("%s peer values = %v, want 4 dice", name, payload.Values)
		}
	}
}
