package task

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
		terminal bool
	}{
		{Pending, "pending", false},
		{Running, "running", false},
		{Succeeded, "succeeded", true},
		{Failed, "failed", true},
		{Aborted, "aborted", true},
		{Status(99), "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.status.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
			if got := tt.status.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestAction_CompletesOnFirstStep(t *testing.T) {
	var ran, completed int
	a := NewAction(func() { ran++ }, OnComplete(func() { completed++ }))

	assert.Equal(t, Pending, a.Status())
	assert.Equal(t, Succeeded, Step(a, time.Millisecond))
	assert.Equal(t, 1, ran)
	assert.Equal(t, 1, completed)

	// stepping a terminal task is a no-op
	assert.Equal(t, Succeeded, Step(a, time.Millisecond))
	assert.Equal(t, 1, ran)
	assert.Equal(t, 1, completed)
}

func TestAction_DefaultName(t *testing.T) {
	assert.Equal(t, "action", NewAction(nil).Name())
	assert.Equal(t, "open-door", NewAction(nil, WithName("open-door")).Name())
}

func TestWait_CompletesOnFourthStep(t *testing.T) {
	w := NewWait(2 * time.Second)
	step := 500 * time.Millisecond

	for i := 1; i <= 3; i++ {
		require.Equal(t, Running, Step(w, step), "step %d", i)
	}
	assert.Equal(t, 1500*time.Millisecond, w.Elapsed())
	assert.Equal(t, Succeeded, Step(w, step))
	assert.Equal(t, 2*time.Second, w.Elapsed())
}

func TestWait_ZeroDuration(t *testing.T) {
	assert.Equal(t, Succeeded, Step(NewWait(0), 0))
}

func TestDelegate(t *testing.T) {
	var entered, completed int
	ready := false
	d := NewDelegate(
		func() { entered++ },
		func() bool { return ready },
		OnComplete(func() { completed++ }),
	)

	assert.Equal(t, Running, Step(d, 0))
	assert.Equal(t, Running, Step(d, 0))
	assert.Equal(t, 1, entered)
	assert.Zero(t, completed)

	ready = true
	assert.Equal(t, Succeeded, Step(d, 0))
	assert.Equal(t, 1, entered)
	assert.Equal(t, 1, completed)
}

func TestDelegate_PredicateTrueOnFirstStep(t *testing.T) {
	d := NewDelegate(nil, func() bool { return true })
	assert.Equal(t, Succeeded, Step(d, 0))
}

func TestPoll_Fails(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	p := NewPoll(func(dt time.Duration) (bool, error) {
		calls++
		if calls == 2 {
			return false, boom
		}
		return false, nil
	})
	next := NewAction(nil)
	p.Then(next)

	assert.Equal(t, Running, Step(p, 0))
	assert.Equal(t, Failed, Step(p, 0))
	assert.ErrorIs(t, p.Err(), boom)
	assert.Equal(t, Aborted, next.Status())

	assert.Equal(t, Failed, Step(p, 0))
	assert.Equal(t, 2, calls)
}

func TestPoll_Succeeds(t *testing.T) {
	var total time.Duration
	p := NewPoll(func(dt time.Duration) (bool, error) {
		total += dt
		return total >= time.Second, nil
	})

	assert.Equal(t, Running, Step(p, 600*time.Millisecond))
	assert.Equal(t, Succeeded, Step(p, 600*time.Millisecond))
	assert.NoError(t, p.Err())
}

func TestThen_ReturnsSuccessor(t *testing.T) {
	a, b, c := NewAction(nil), NewAction(nil), NewAction(nil)

	got := a.Then(b).Then(c)

	assert.Same(t, c, got)
	assert.Same(t, b, a.Next())
	assert.Same(t, c, b.Next())
	assert.Nil(t, c.Next())
}

func TestThen_ReplacesSuccessor(t *testing.T) {
	a, b, c := NewAction(nil), NewAction(nil), NewAction(nil)
	a.Then(b)
	a.Then(c)

	assert.Same(t, c, a.Next())
	assert.False(t, b.owned)
	assert.True(t, c.owned)
}

func TestThen_RelinkSameSuccessor(t *testing.T) {
	a, b := NewAction(nil), NewAction(nil)
	a.Then(b)
	a.Then(b)

	assert.Same(t, b, a.Next())
	assert.True(t, b.owned)
}

func TestThen_RejectsSubmittedTask(t *testing.T) {
	m := NewManager()
	a, b := NewAction(nil), NewAction(nil)
	_, err := m.Submit(b)
	require.NoError(t, err)

	assert.PanicsWithValue(t, ErrAlreadySubmitted, func() { a.Then(b) })
	assert.Nil(t, a.Next())

	_, err = m.Submit(a)
	require.NoError(t, err)
	m.Update(tick)
	assert.Equal(t, Succeeded, b.Status())
	assert.Equal(t, 0, m.Len())
}

func TestThen_RejectsSharedSuccessor(t *testing.T) {
	a, b, c := NewAction(nil), NewAction(nil), NewAction(nil)
	a.Then(b)

	assert.PanicsWithValue(t, ErrOwnedTask, func() { c.Then(b) })
	assert.Nil(t, c.Next())
	assert.Same(t, b, a.Next())
}

func TestThen_RejectsCycle(t *testing.T) {
	a, b, c := NewAction(nil), NewAction(nil), NewAction(nil)
	a.Then(b).Then(c)

	assert.PanicsWithValue(t, ErrChainCycle, func() { a.Then(a) })

	d := NewAction(nil)
	d.Then(a)
	assert.PanicsWithValue(t, ErrChainCycle, func() { c.Then(d) })
	assert.Nil(t, c.Next())
}

func TestAbort_PropagatesToPendingSuccessors(t *testing.T) {
	var entered []string
	a := NewDelegate(func() { entered = append(entered, "a") }, func() bool { return false })
	b := NewAction(func() { entered = append(entered, "b") })
	c := NewAction(func() { entered = append(entered, "c") })
	a.Then(b).Then(c)

	Step(a, 0)
	a.Abort()

	assert.Equal(t, Aborted, a.Status())
	assert.Equal(t, Aborted, b.Status())
	assert.Equal(t, Aborted, c.Status())

	Step(b, 0)
	Step(c, 0)
	assert.Equal(t, []string{"a"}, entered)
}

func TestAbort_AfterSuccessIsNoop(t *testing.T) {
	a, b := NewAction(nil), NewAction(nil)
	a.Then(b)
	Step(a, 0)

	a.Abort()

	assert.Equal(t, Succeeded, a.Status())
	assert.Equal(t, Pending, b.Status())
}

func TestAbort_DuringBegin(t *testing.T) {
	var a *Delegate
	polled := false
	a = NewDelegate(func() { a.Abort() }, func() bool {
		polled = true
		return true
	})

	assert.Equal(t, Aborted, Step(a, 0))
	assert.False(t, polled)
}

func TestChain(t *testing.T) {
	assert.Nil(t, Chain())

	a, b, c := NewAction(nil), NewAction(nil), NewAction(nil)
	head := Chain(a, nil, b, c)

	assert.Same(t, a, head)
	assert.Same(t, b, a.Next())
	assert.Same(t, c, b.Next())
}

// countdown is a custom task built on Base.
type countdown struct {
	Base
	left int
}

func (c *countdown) Poll(time.Duration) bool {
	c.left--
	return c.left <= 0
}

func TestStep_CustomTask(t *testing.T) {
	c := &countdown{left: 3}
	c.SetName("countdown")

	assert.Equal(t, Running, Step(c, 0))
	assert.Equal(t, Running, Step(c, 0))
	assert.Equal(t, Succeeded, Step(c, 0))
	assert.Equal(t, "countdown", c.Name())
}
