package tutor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"ai-studymate-be/pkg/staging"
)

type fakeSender struct {
	mu      sync.Mutex
	calls   []string
	replyFn func(history []Turn, message string) (string, error)
}

func (f *fakeSender) SendTurn(ctx context.Context, grounding string, history []Turn, message string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, message)
	f.mu.Unlock()
	if f.replyFn != nil {
		return f.replyFn(history, message)
	}
	return "re:" + message, nil
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestSession(sender TurnSender, pending *staging.Slot) *Session {
	return NewSession(context.Background(), "sess-1", "chapter text", sender, pending, nil)
}

func assertHistory(t *testing.T, got []Turn, want []Turn) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("history length = %d, want %d\n got: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("history[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSendOrdering(t *testing.T) {
	sender := &fakeSender{}
	s := newTestSession(sender, nil)
	ctx := context.Background()

	if _, err := s.Send(ctx, "a"); err != nil {
		t.Fatalf("Send(a) failed: %v", err)
	}
	if _, err := s.Send(ctx, "b"); err != nil {
		t.Fatalf("Send(b) failed: %v", err)
	}

	assertHistory(t, s.History(), []Turn{
		{Role: RoleUser, Content: "a"},
		{Role: RoleModel, Content: "re:a"},
		{Role: RoleUser, Content: "b"},
		{Role: RoleModel, Content: "re:b"},
	})
}

func TestSendPassesPrecedingHistoryOnly(t *testing.T) {
	var seen [][]Turn
	sender := &fakeSender{
		replyFn: func(history []Turn, message string) (string, error) {
			seen = append(seen, append([]Turn(nil), history...))
			return "re:" + message, nil
		},
	}
	s := newTestSession(sender, nil)
	ctx := context.Background()

	s.Send(ctx, "a")
	s.Send(ctx, "b")

	if len(seen) != 2 {
		t.Fatalf("sender called %d times, want 2", len(seen))
	}
	if len(seen[0]) != 0 {
		t.Errorf("first call history = %+v, want empty", seen[0])
	}
	assertHistory(t, seen[1], []Turn{
		{Role: RoleUser, Content: "a"},
		{Role: RoleModel, Content: "re:a"},
	})
}

func TestSendBlankTextIsSilentNoop(t *testing.T) {
	sender := &fakeSender{}
	s := newTestSession(sender, nil)

	turn, err := s.Send(context.Background(), "   ")
	if err != nil || turn != nil {
		t.Errorf("blank send = (%+v, %v), want silent no-op", turn, err)
	}
	if len(s.History()) != 0 {
		t.Errorf("blank send must not append turns: %+v", s.History())
	}
	if sender.callCount() != 0 {
		t.Error("blank send must not reach the external request")
	}
}

func TestSendFailureAppendsFallbackTurn(t *testing.T) {
	sender := &fakeSender{
		replyFn: func([]Turn, string) (string, error) {
			return "", errors.New("quota exhausted")
		},
	}
	s := newTestSession(sender, nil)

	turn, err := s.Send(context.Background(), "a")
	if err != nil {
		t.Fatalf("failure must be absorbed, got error: %v", err)
	}
	if turn == nil || turn.Content != FallbackReply {
		t.Errorf("turn = %+v, want fallback reply", turn)
	}
	assertHistory(t, s.History(), []Turn{
		{Role: RoleUser, Content: "a"},
		{Role: RoleModel, Content: FallbackReply},
	})
	if s.IsAwaiting() {
		t.Error("session must return to idle after a failed turn")
	}
}

func TestSendWhileAwaitingIsRejected(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	sender := &fakeSender{
		replyFn: func([]Turn, string) (string, error) {
			close(started)
			<-release
			return "done", nil
		},
	}
	s := newTestSession(sender, nil)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Send(ctx, "slow")
	}()
	<-started

	if _, err := s.Send(ctx, "eager"); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent send error = %v, want ErrBusy", err)
	}
	if _, err := s.RegenerateLast(ctx); !errors.Is(err, ErrBusy) {
		t.Errorf("regenerate while awaiting = %v, want ErrBusy", err)
	}
	if err := s.Clear(ctx); !errors.Is(err, ErrBusy) {
		t.Errorf("clear while awaiting = %v, want ErrBusy", err)
	}

	close(release)
	<-done

	assertHistory(t, s.History(), []Turn{
		{Role: RoleUser, Content: "slow"},
		{Role: RoleModel, Content: "done"},
	})
}

func TestRegenerateLastTruncatesAndResends(t *testing.T) {
	n := 0
	sender := &fakeSender{
		replyFn: func(_ []Turn, message string) (string, error) {
			n++
			return fmt.Sprintf("re%d:%s", n, message), nil
		},
	}
	s := newTestSession(sender, nil)
	ctx := context.Background()

	s.Send(ctx, "a")
	turn, err := s.RegenerateLast(ctx)
	if err != nil {
		t.Fatalf("RegenerateLast failed: %v", err)
	}
	if turn == nil || turn.Content != "re2:a" {
		t.Errorf("turn = %+v, want regenerated reply", turn)
	}
	assertHistory(t, s.History(), []Turn{
		{Role: RoleUser, Content: "a"},
		{Role: RoleModel, Content: "re2:a"},
	})
}

func TestRegenerateLastWithoutUserTurn(t *testing.T) {
	s := newTestSession(&fakeSender{}, nil)
	s.Seed(Turn{Role: RoleModel, Content: "hi there"})

	if _, err := s.RegenerateLast(context.Background()); !errors.Is(err, ErrNoUserTurn) {
		t.Errorf("error = %v, want ErrNoUserTurn", err)
	}
	assertHistory(t, s.History(), []Turn{{Role: RoleModel, Content: "hi there"}})
}

func TestEditAndResubmitTruncates(t *testing.T) {
	sender := &fakeSender{}
	s := newTestSession(sender, nil)
	ctx := context.Background()

	s.Send(ctx, "a")
	s.Send(ctx, "b")

	// History: [user:a, model:re:a, user:b, model:re:b]; edit turn 2.
	turn, err := s.EditAndResubmit(ctx, 2, "b2")
	if err != nil {
		t.Fatalf("EditAndResubmit failed: %v", err)
	}
	if turn == nil || turn.Content != "re:b2" {
		t.Errorf("turn = %+v, want reply to b2", turn)
	}
	assertHistory(t, s.History(), []Turn{
		{Role: RoleUser, Content: "a"},
		{Role: RoleModel, Content: "re:a"},
		{Role: RoleUser, Content: "b2"},
		{Role: RoleModel, Content: "re:b2"},
	})
}

func TestEditAndResubmitRejectsInvalidInput(t *testing.T) {
	s := newTestSession(&fakeSender{}, nil)
	ctx := context.Background()
	s.Send(ctx, "a")
	before := s.History()

	if _, err := s.EditAndResubmit(ctx, 1, "x"); !errors.Is(err, ErrBadTurn) {
		t.Errorf("editing a model turn = %v, want ErrBadTurn", err)
	}
	if _, err := s.EditAndResubmit(ctx, 9, "x"); !errors.Is(err, ErrBadTurn) {
		t.Errorf("out-of-range index = %v, want ErrBadTurn", err)
	}
	if _, err := s.EditAndResubmit(ctx, 0, "  "); !errors.Is(err, ErrEmptyText) {
		t.Errorf("blank replacement = %v, want ErrEmptyText", err)
	}

	// Rejected calls never mutate history.
	assertHistory(t, s.History(), before)
}

func TestClearResetsTranscript(t *testing.T) {
	s := newTestSession(&fakeSender{}, nil)
	ctx := context.Background()
	s.Send(ctx, "a")

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if len(s.History()) != 0 {
		t.Errorf("history after clear = %+v, want empty", s.History())
	}
}

func TestPendingQuerySingleDelivery(t *testing.T) {
	sender := &fakeSender{}
	slot := staging.NewSlot()
	s := newTestSession(sender, slot)
	ctx := context.Background()

	slot.Stage("what is momentum?")

	// The staging surface may fire its signal more than once.
	s.ConsumePending(ctx)
	s.ConsumePending(ctx)

	if sender.callCount() != 1 {
		t.Fatalf("sender called %d times, want 1", sender.callCount())
	}
	assertHistory(t, s.History(), []Turn{
		{Role: RoleUser, Content: "what is momentum?"},
		{Role: RoleModel, Content: "re:what is momentum?"},
	})
}

func TestPendingQueryConsumedOnHandleReady(t *testing.T) {
	sender := &fakeSender{}
	slot := staging.NewSlot()
	slot.Stage("staged before session")

	s := newTestSession(sender, slot)

	if sender.callCount() != 1 {
		t.Fatalf("sender called %d times, want 1", sender.callCount())
	}
	assertHistory(t, s.History(), []Turn{
		{Role: RoleUser, Content: "staged before session"},
		{Role: RoleModel, Content: "re:staged before session"},
	})
}

func TestHandlePrefixTracksTruncation(t *testing.T) {
	s := newTestSession(&fakeSender{}, nil)
	ctx := context.Background()
	s.Send(ctx, "a")
	s.Send(ctx, "b")
	s.EditAndResubmit(ctx, 2, "b2")

	s.mu.Lock()
	prefix := s.handle.Prefix()
	s.mu.Unlock()

	// The rebound handle is pinned to the history before the edited turn, so
	// the external context can never drift from the visible transcript.
	assertHistory(t, prefix, []Turn{
		{Role: RoleUser, Content: "a"},
		{Role: RoleModel, Content: "re:a"},
	})
}
