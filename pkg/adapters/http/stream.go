package http

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/treetrim/pkg/domain"
)

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a listener for a session. The returned func unsubscribes.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of the session.
// Slow subscribers drop messages rather than block the caller.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// Publish serializes a state diff and broadcasts it to its session.
// It matches the session.OnChange callback signature.
func (sm *StreamManager) Publish(diff *domain.StateDiff) {
	data, err := json.Marshal(diff)
	if err != nil {
		sm.logger.Error("SSE: failed to encode diff", "err", err)
		return
	}
	sm.Broadcast(diff.SessionID, string(data))
}

// Subscribers returns the number of listeners for a session.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// matchesWatch reports whether the diff touches any of the watched fields.
// An empty watch list matches everything.
func matchesWatch(msg string, watch []string) bool {
	if len(watch) == 0 {
		return true
	}
	var diff domain.StateDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watch {
		switch strings.TrimSpace(field) {
		case "node":
			if diff.ActiveNode != nil || diff.NodeCleared {
				return true
			}
		case "reasons":
			if len(diff.OfferedReasons) > 0 {
				return true
			}
		case "staged":
			if diff.Staged != nil || diff.StagedCleared || diff.RetrainEnabled != nil {
				return true
			}
		case "phase":
			if diff.Phase != nil {
				return true
			}
		}
	}
	return false
}
