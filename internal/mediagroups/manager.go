package mediagroups

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/mymmrac/telego"
)

const (
	// DefaultFlushDelay is the quiescence window: a group is flushed once no
	// further items arrive for this long.
	DefaultFlushDelay = 1 * time.Second
	// DefaultMaxGroupSize limits the number of messages stored per group.
	DefaultMaxGroupSize = 10
)

// FlushFunc processes a completed media group: the group id and the collected
// messages in message-id order.
type FlushFunc func(ctx context.Context, groupID string, messages []telego.Message) error

type groupState struct {
	messages []telego.Message
	timer    *time.Timer
	// flushed marks a state that has been taken out of the map; appends to it
	// would be lost, so an Ingest that observes it must start over.
	flushed bool
	mu      sync.Mutex
}

// Manager buffers media group messages and flushes each group after its
// quiescence window elapses. Groups are independent; a flush for one group
// never blocks ingestion for another.
type Manager struct {
	groups sync.Map // map[string]*groupState
	delay  time.Duration
	max    int
}

// NewManager creates a media group manager with the given quiescence delay and
// per-group size limit. Zero values fall back to the defaults.
func NewManager(delay time.Duration, maxSize int) *Manager {
	if delay <= 0 {
		delay = DefaultFlushDelay
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxGroupSize
	}
	return &Manager{delay: delay, max: maxSize}
}

// Ingest adds a message to its group. The first message of a group schedules
// the flush; every subsequent message resets the timer, so the group is
// flushed only after the quiescence window passes with no new items.
func (m *Manager) Ingest(message telego.Message, flush FlushFunc) error {
	if message.MediaGroupID == "" {
		return nil // not part of a media group
	}
	groupID := message.MediaGroupID

	var state *groupState
	for {
		actual, _ := m.groups.LoadOrStore(groupID, &groupState{
			messages: make([]telego.Message, 0, m.max),
		})
		state = actual.(*groupState)
		state.mu.Lock()
		if !state.flushed {
			break
		}
		// A concurrent flush took this state between our LoadOrStore and the
		// lock. Retry so the item opens a fresh group.
		state.mu.Unlock()
	}
	defer state.mu.Unlock()

	duplicate := false
	for _, msg := range state.messages {
		if msg.MessageID == message.MessageID {
			duplicate = true
			break
		}
	}

	switch {
	case duplicate:
		// Transport retries can redeliver an item; drop it.
	case len(state.messages) >= m.max:
		log.Printf("[MediaGroups Group:%s] Size limit (%d) reached, message %d dropped", groupID, m.max, message.MessageID)
	default:
		state.messages = append(state.messages, message)
		sort.Slice(state.messages, func(i, j int) bool {
			return state.messages[i].MessageID < state.messages[j].MessageID
		})
	}

	if state.timer == nil {
		state.timer = time.AfterFunc(m.delay, func() {
			messages := m.takeGroup(groupID)
			if len(messages) == 0 {
				// Already flushed or removed; silently absorb the race.
				return
			}
			if err := flush(context.Background(), groupID, messages); err != nil {
				log.Printf("[MediaGroups Group:%s] Error flushing group: %v", groupID, err)
			}
		})
	} else {
		state.timer.Reset(m.delay)
	}

	return nil
}

// takeGroup atomically removes the group and returns a copy of its messages.
// Returns nil if the group was already flushed.
func (m *Manager) takeGroup(groupID string) []telego.Message {
	val, loaded := m.groups.LoadAndDelete(groupID)
	if !loaded {
		return nil
	}
	state := val.(*groupState)

	state.mu.Lock()
	defer state.mu.Unlock()
	state.flushed = true

	if state.timer != nil {
		state.timer.Stop()
		state.timer = nil
	}

	messages := make([]telego.Message, len(state.messages))
	copy(messages, state.messages)
	return messages
}

// Shutdown stops all pending flush timers. Buffered groups are dropped; the
// transient table is accepted data loss on restart.
func (m *Manager) Shutdown() {
	stopped := 0
	m.groups.Range(func(key, value interface{}) bool {
		state := value.(*groupState)
		state.mu.Lock()
		state.flushed = true
		if state.timer != nil {
			if state.timer.Stop() {
				stopped++
			}
			state.timer = nil
		}
		state.mu.Unlock()
		m.groups.Delete(key)
		return true
	})
	if stopped > 0 {
		log.Printf("[MediaGroups] Shutdown stopped %d pending flush timer(s)", stopped)
	}
}
