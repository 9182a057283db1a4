package server

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

type wsPeer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newWSPeer(encoder *json.Encoder) *wsPeer {
	return &wsPeer{encoder: encoder}
}

func (p *wsPeer) writeFrame(frame wsFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

const (
	boxSelectorPrefix = "input[data-binding='"
	boxSelectorSuffix = "']"
)

// bindingIDFromSelector extracts the control identifier from a UI selector.
func bindingIDFromSelector(selector string) string {
	if !strings.HasPrefix(selector, boxSelectorPrefix) || !strings.HasSuffix(selector, boxSelectorSuffix) {
		return ""
	}
	return selector[len(boxSelectorPrefix) : len(selector)-len(boxSelectorSuffix)]
}

type boundControl struct {
	event   string
	handler func(context.Context)
}

// tableHub fans frames out to every seated peer and tracks which rendered
// controls exist at those seats.
//
// It implements the host binder and animator contracts: a Bind succeeds only
// when at least one connected peer has announced the control as mounted,
// which mirrors best-effort DOM binding. Control events arrive back over the
// socket and are dispatched to the bound handler.
type tableHub struct {
	mu          sync.Mutex
	subscribers map[*wsPeer]struct{}
	announced   map[string]map[*wsPeer]struct{}
	handlers    map[string]boundControl
}

func newTableHub() *tableHub {
	return &tableHub{
		subscribers: make(map[*wsPeer]struct{}),
		announced:   make(map[string]map[*wsPeer]struct{}),
		handlers:    make(map[string]boundControl),
	}
}

func (h *tableHub) join(peer *wsPeer) {
	h.mu.Lock()
	h.subscribers[peer] = struct{}{}
	h.mu.Unlock()
}

func (h *tableHub) leave(peer *wsPeer) {
	h.mu.Lock()
	delete(h.subscribers, peer)
	for bindingID, peers := range h.announced {
		delete(peers, peer)
		if len(peers) == 0 {
			delete(h.announced, bindingID)
		}
	}
	h.mu.Unlock()
}

// announce records that peer has the given controls mounted.
func (h *tableHub) announce(peer *wsPeer, bindingIDs []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, seated := h.subscribers[peer]; !seated {
		return
	}
	for _, bindingID := range bindingIDs {
		bindingID = strings.TrimSpace(bindingID)
		if bindingID == "" {
			continue
		}
		peers, ok := h.announced[bindingID]
		if !ok {
			peers = make(map[*wsPeer]struct{})
			h.announced[bindingID] = peers
		}
		peers[peer] = struct{}{}
	}
}

// Bind attaches a handler to a rendered control. It reports false when no
// seated peer has announced the control yet; callers retry later.
func (h *tableHub) Bind(selector, event string, handler func(context.Context)) bool {
	bindingID := bindingIDFromSelector(selector)
	if bindingID == "" || handler == nil {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.announced[bindingID]) == 0 {
		return false
	}
	h.handlers[bindingID] = boundControl{event: event, handler: handler}
	return true
}

// dispatch routes one control event from a peer to its bound handler.
func (h *tableHub) dispatch(ctx context.Context, bindingID, event string) bool {
	h.mu.Lock()
	control, ok := h.handlers[bindingID]
	h.mu.Unlock()
	if !ok || control.event != event {
		return false
	}
	control.handler(ctx)
	return true
}

// ShowRoll broadcasts the dice animation cue for a resolved check.
func (h *tableHub) ShowRoll(_ context.Context, dice []int) {
	h.broadcast(wsFrame{
		Type:    "dice.roll",
		Payload: mustJSON(diceRollPayload{Values: dice}),
	})
}

func (h *tableHub) broadcast(frame wsFrame) {
	h.mu.Lock()
	subscribers := make([]*wsPeer, 0, len(h.subscribers))
	for subscriber := range h.subscribers {
		subscribers = append(subscribers, subscriber)
	}
	h.mu.Unlock()

	for _, subscriber := range subscribers {
		_ = subscriber.writeFrame(frame)
	}
}
