package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeSelected EventType = "node_selected"
	EventReasonStaged EventType = "reason_staged"
	EventRetrain      EventType = "retrain"
	EventCancel       EventType = "cancel"
	EventRejected     EventType = "rejected"
)

// Event is emitted by the controller after every transition or rejection.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Phase     Phase     `json:"phase"` // Phase after the event

	NodeID     string               `json:"node_id,omitempty"`
	Depth      int                  `json:"depth"`
	Leaf       bool                 `json:"leaf"`
	Reason     ReasonID             `json:"reason,omitempty"`
	Adjustment *ParameterAdjustment `json:"adjustment,omitempty"`

	// Operation and Err are set on EventRejected.
	Operation string `json:"operation,omitempty"`
	Err       error  `json:"-"`
}

// LifecycleHooks defines callbacks for workflow observability.
type LifecycleHooks struct {
	OnNodeSelected func(context.Context, *Event)
	OnReasonStaged func(context.Context, *Event)
	OnRetrain      func(context.Context, *Event)
	OnCancel       func(context.Context, *Event)
	OnRejected     func(context.Context, *Event)
}

// CombineHooks fans every callback out to all given hook sets, in order.
func CombineHooks(sets ...LifecycleHooks) LifecycleHooks {
	pick := func(get func(LifecycleHooks) func(context.Context, *Event)) func(context.Context, *Event) {
		var fns []func(context.Context, *Event)
		for _, s := range sets {
			if fn := get(s); fn != nil {
				fns = append(fns, fn)
			}
		}
		if len(fns) == 0 {
			return nil
		}
		return func(ctx context.Context, e *Event) {
			for _, fn := range fns {
				fn(ctx, e)
			}
		}
	}
	return LifecycleHooks{
		OnNodeSelected: pick(func(h LifecycleHooks) func(context.Context, *Event) { return h.OnNodeSelected }),
		OnReasonStaged: pick(func(h LifecycleHooks) func(context.Context, *Event) { return h.OnReasonStaged }),
		OnRetrain:      pick(func(h LifecycleHooks) func(context.Context, *Event) { return h.OnRetrain }),
		OnCancel:       pick(func(h LifecycleHooks) func(context.Context, *Event) { return h.OnCancel }),
		OnRejected:     pick(func(h LifecycleHooks) func(context.Context, *Event) { return h.OnRejected }),
	}
}
