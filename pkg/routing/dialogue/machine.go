package dialogue

import (
	"errors"
	"sync"
	"time"

	"ai-deskmate-be/pkg/routing"
)

// ErrSuperseded is returned when a turn tries to commit state after a newer
// message arrived on the same conversation. The late turn's result must be
// dropped, not stored.
var ErrSuperseded = errors.New("dialogue: turn superseded by a newer message")

const (
	lockSweepInterval = 10 * time.Minute
	lockIdleAfter     = 30 * time.Minute
)

// convState serializes access to one conversation's record and carries a
// monotonic sequence used to detect superseded turns.
type convState struct {
	mu      sync.Mutex
	seq     uint64
	touched time.Time
}

// Machine owns the clarification dialogue for every conversation. All reads
// and writes of a conversation's pending record go through a lock scoped to
// that conversation, so two messages racing on one conversation resolve to a
// single winner while unrelated conversations never contend.
type Machine struct {
	store Store

	mu     sync.Mutex
	states map[string]*convState

	stop chan struct{}
	once sync.Once
}

// NewMachine wraps the given TTL store. A background sweep drops lock
// entries for conversations idle longer than lockIdleAfter; call Close on
// shutdown.
func NewMachine(store Store) *Machine {
	m := &Machine{
		store:  store,
		states: make(map[string]*convState),
		stop:   make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

// Close stops the lock sweeper.
func (m *Machine) Close() {
	m.once.Do(func() { close(m.stop) })
}

func (m *Machine) sweepLoop() {
	ticker := time.NewTicker(lockSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.sweep(now)
		}
	}
}

func (m *Machine) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, state := range m.states {
		if state.mu.TryLock() {
			idle := now.Sub(state.touched) > lockIdleAfter
			state.mu.Unlock()
			if idle {
				delete(m.states, id)
			}
		}
	}
}

func (m *Machine) state(conversationId string) *convState {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[conversationId]
	if !ok {
		state = &convState{}
		m.states[conversationId] = state
	}
	state.touched = time.Now()
	return state
}

// Turn represents one inbound message's pass through the pipeline. The
// sequence snapshot taken at Begin is what makes late writes detectable.
type Turn struct {
	machine        *Machine
	state          *convState
	conversationId string
	seq            uint64
}

// Begin registers a new turn for the conversation. Any turn begun earlier on
// the same conversation becomes superseded from this moment on.
func (m *Machine) Begin(conversationId string) *Turn {
	state := m.state(conversationId)
	state.mu.Lock()
	defer state.mu.Unlock()
	state.seq++
	return &Turn{
		machine:        m,
		state:          state,
		conversationId: conversationId,
		seq:            state.seq,
	}
}

// Superseded reports whether a newer message has begun on this conversation
// since this turn started.
func (t *Turn) Superseded() bool {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()
	return t.state.seq != t.seq
}

// Consume interprets the incoming message against the conversation's
// dialogue state and advances the machine. It must be called once, at the
// start of the turn, before the pipeline runs.
func (t *Turn) Consume(query, choiceId string) Consumption {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	pending, ok := t.machine.store.Get(t.conversationId)
	if !ok {
		// Expired or never existed. A choice id pointing at nothing is a
		// stale reply; either way the text is handled as a fresh query.
		if choiceId != "" {
			return Consumption{Kind: ConsumeStale, Query: query, InvalidState: true}
		}
		return Consumption{Kind: ConsumeNone, Query: query}
	}

	if choiceId != "" {
		choice, known := pending.ChoiceById(choiceId)
		if !known {
			t.machine.store.Delete(t.conversationId)
			return Consumption{Kind: ConsumeStale, Query: query, InvalidState: true}
		}
		if choice.Category == nil {
			// "None of the above": hold the record open and wait for the
			// patron to say it in their own words. Saving again restarts
			// the expiry clock for the elaboration window.
			pending.Phase = PhaseAwaitingElaboration
			t.machine.store.Save(pending)
			return Consumption{Kind: ConsumeSentinel, Query: pending.OriginalQuery}
		}
		t.machine.store.Delete(t.conversationId)
		return Consumption{Kind: ConsumeChoice, Category: *choice.Category, Query: pending.OriginalQuery}
	}

	if pending.Phase == PhaseAwaitingElaboration {
		t.machine.store.Delete(t.conversationId)
		return Consumption{Kind: ConsumeElaboration, Query: pending.OriginalQuery + ". " + query}
	}

	// Free text while a question is still open: the patron moved on.
	t.machine.store.Delete(t.conversationId)
	return Consumption{Kind: ConsumeStale, Query: query}
}

// CommitPending stores a new pending clarification for this conversation,
// replacing whatever was there. It refuses the write if the turn has been
// superseded, so a slow pipeline cannot clobber state owned by a newer
// message.
func (t *Turn) CommitPending(originalQuery, question string, choices []routing.ClarificationChoice) error {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()
	if t.state.seq != t.seq {
		return ErrSuperseded
	}
	t.machine.store.Save(&PendingClarification{
		ConversationId: t.conversationId,
		OriginalQuery:  originalQuery,
		Question:       question,
		Choices:        choices,
		Phase:          PhasePending,
		CreatedAt:      time.Now(),
	})
	return nil
}

// Pending returns the conversation's open clarification, if any.
func (m *Machine) Pending(conversationId string) (*PendingClarification, bool) {
	state := m.state(conversationId)
	state.mu.Lock()
	defer state.mu.Unlock()
	return m.store.Get(conversationId)
}
