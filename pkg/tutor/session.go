package tutor

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"ai-studymate-be/pkg/staging"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// FallbackReply is appended as a regular model turn when the external request
// fails. The failure never escapes the session boundary.
const FallbackReply = "Sorry, I had trouble answering that one. Could you try asking again?"

var (
	ErrBusy       = errors.New("a reply is already in flight")
	ErrNoHandle   = errors.New("session handle is not ready")
	ErrNoUserTurn = errors.New("history has no user turn")
	ErrBadTurn    = errors.New("index does not refer to a user turn")
	ErrEmptyText  = errors.New("message text is empty")
)

// Turn is one transcript entry, tagged by speaker role.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnSender is the external stateless "send one message, get one reply"
// request. history is the transcript before message; grounding is the report
// text the tutor answers against.
type TurnSender interface {
	SendTurn(ctx context.Context, grounding string, history []Turn, message string) (string, error)
}

// Handle is the live binding between the accumulated history prefix, the
// grounding report and the external request mechanism. It is immutable once
// created; clear/regenerate/edit swap in a fresh one, which also invalidates
// any completion still referring to the superseded handle.
type Handle struct {
	grounding string
	prefix    []Turn
}

func newHandle(grounding string, prefix []Turn) *Handle {
	return &Handle{
		grounding: grounding,
		prefix:    append([]Turn(nil), prefix...),
	}
}

// Prefix returns the history the handle was bound to.
func (h *Handle) Prefix() []Turn {
	return append([]Turn(nil), h.prefix...)
}

// Session is the conversational state machine for one report. Two states:
// idle (handle ready, nothing in flight) and awaiting (one send in flight).
// The awaiting flag is the backpressure mechanism: at most one external
// request per session, so completions apply in the order calls were accepted.
type Session struct {
	mu       sync.Mutex
	id       string
	history  []Turn
	handle   *Handle
	awaiting bool

	sender  TurnSender
	pending *staging.Slot
	logger  *log.Logger
}

// NewSession creates a session bound to a grounding report. The pending slot
// is shared with the staging UI surface; it is checked as soon as the handle
// is ready.
func NewSession(ctx context.Context, id, grounding string, sender TurnSender, pending *staging.Slot, logger *log.Logger) *Session {
	s := &Session{
		id:      id,
		handle:  newHandle(grounding, nil),
		sender:  sender,
		pending: pending,
		logger:  logger,
	}
	s.ConsumePending(ctx)
	return s
}

func (s *Session) ID() string {
	return s.id
}

// StagePending parks text in the pending slot without sending it. Returns
// false when the text is blank. A later ConsumePending delivers it.
func (s *Session) StagePending(text string) bool {
	if s.pending == nil {
		return false
	}
	return s.pending.Stage(text)
}

// History returns a copy of the transcript.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn(nil), s.history...)
}

// IsAwaiting reports whether a send is in flight.
func (s *Session) IsAwaiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaiting
}

// Seed appends a turn without going through the external request, e.g. the
// initial model greeting. Only valid while idle.
func (s *Session) Seed(turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.awaiting {
		return ErrBusy
	}
	s.history = append(s.history, turn)
	return nil
}

// dispatch captures everything a send needs once the lock is released: the
// handle it was issued under, the history snapshot that precedes the new user
// turn, and the message itself.
type dispatch struct {
	handle  *Handle
	history []Turn
	message string
}

// begin validates preconditions and appends the user turn. Caller holds mu.
// A nil dispatch with nil error is the silent no-op for blank text.
func (s *Session) begin(text string) (*dispatch, error) {
	if s.handle == nil {
		return nil, ErrNoHandle
	}
	if s.awaiting {
		return nil, ErrBusy
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	snapshot := append([]Turn(nil), s.history...)
	s.history = append(s.history, Turn{Role: RoleUser, Content: text})
	s.awaiting = true
	return &dispatch{handle: s.handle, history: snapshot, message: text}, nil
}

// complete runs the external request and appends the model turn. A failed
// request is absorbed into the fixed fallback reply. Completions belonging to
// a superseded handle are dropped without touching state.
func (s *Session) complete(ctx context.Context, d *dispatch) *Turn {
	reply, err := s.sender.SendTurn(ctx, d.handle.grounding, d.history, d.message)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("[TUTOR] session %s: turn request failed: %v", s.id, err)
		}
		reply = FallbackReply
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle != d.handle {
		return nil
	}
	turn := Turn{Role: RoleModel, Content: reply}
	s.history = append(s.history, turn)
	s.awaiting = false
	return &turn
}

// Send submits one user message. Blank text is a silent no-op; a send while
// another is in flight is rejected without mutating history.
func (s *Session) Send(ctx context.Context, text string) (*Turn, error) {
	s.mu.Lock()
	d, err := s.begin(text)
	s.mu.Unlock()
	if err != nil || d == nil {
		return nil, err
	}

	turn := s.complete(ctx, d)
	s.ConsumePending(ctx)
	return turn, nil
}

// Clear discards the transcript and rebinds the handle to an empty history.
// User confirmation is the caller's concern.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	if s.awaiting {
		s.mu.Unlock()
		return ErrBusy
	}
	s.history = nil
	s.handle = newHandle(s.handle.grounding, nil)
	s.mu.Unlock()

	// Fresh handle ready: the pending slot gets a consumption chance.
	s.ConsumePending(ctx)
	return nil
}

// RegenerateLast drops the replies after the most recent user turn, rebinds
// the handle to the preceding prefix and resubmits that same user text.
func (s *Session) RegenerateLast(ctx context.Context) (*Turn, error) {
	s.mu.Lock()
	if s.awaiting {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	idx := -1
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Role == RoleUser {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil, ErrNoUserTurn
	}
	text := s.history[idx].Content
	s.history = append([]Turn(nil), s.history[:idx]...)
	s.handle = newHandle(s.handle.grounding, s.history)

	d, err := s.begin(text)
	s.mu.Unlock()
	if err != nil || d == nil {
		return nil, err
	}

	turn := s.complete(ctx, d)
	s.ConsumePending(ctx)
	return turn, nil
}

// EditAndResubmit truncates the transcript to exclude the user turn at index
// and everything after it, then sends newText against the rebound prefix.
func (s *Session) EditAndResubmit(ctx context.Context, index int, newText string) (*Turn, error) {
	if strings.TrimSpace(newText) == "" {
		return nil, ErrEmptyText
	}

	s.mu.Lock()
	if s.awaiting {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if index < 0 || index >= len(s.history) || s.history[index].Role != RoleUser {
		s.mu.Unlock()
		return nil, ErrBadTurn
	}
	s.history = append([]Turn(nil), s.history[:index]...)
	s.handle = newHandle(s.handle.grounding, s.history)

	d, err := s.begin(newText)
	s.mu.Unlock()
	if err != nil || d == nil {
		return nil, err
	}

	turn := s.complete(ctx, d)
	s.ConsumePending(ctx)
	return turn, nil
}

// ConsumePending drains the staged query when the session is idle. Called on
// handle-ready, after each completed send, and by the staging surface's
// notification signal. All paths are idempotent: Take clears on read, so a
// query staged once is sent exactly once no matter how many triggers fire.
func (s *Session) ConsumePending(ctx context.Context) {
	if s.pending == nil {
		return
	}
	for {
		s.mu.Lock()
		if s.handle == nil || s.awaiting {
			s.mu.Unlock()
			return
		}
		query, ok := s.pending.Take()
		if !ok {
			s.mu.Unlock()
			return
		}
		d, err := s.begin(query)
		s.mu.Unlock()
		if err != nil || d == nil {
			return
		}
		s.complete(ctx, d)
	}
}
