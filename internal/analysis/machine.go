package analysis

import (
	"errors"
	"strings"
	"sync"

	"github.com/kozaktomas/facefit/internal/constants"
	"github.com/kozaktomas/facefit/internal/faceapi"
)

var (
	// ErrBusy is returned when a call is already in flight.
	ErrBusy = errors.New("an analysis is already in progress")
	// ErrInvalidTransition is returned for events the current state does not accept.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrStaleTicket is returned for completions of a superseded attempt.
	ErrStaleTicket = errors.New("stale analysis ticket")
)

// Machine is the state of one session. All methods are safe for concurrent use.
type Machine struct {
	mu        sync.Mutex
	state     State
	ticket    Ticket
	listeners []chan Snapshot
}

// NewMachine returns a machine in the Idle state.
func NewMachine() *Machine {
	return &Machine{state: Idle{}}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns the current state in its flat form.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.snapshot()
}

// Begin moves to Loading. A submission while Loading is rejected with ErrBusy
// and leaves the state unchanged.
func (m *Machine) Begin() (Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, loading := m.state.(Loading); loading {
		return 0, ErrBusy
	}
	m.ticket++
	m.setLocked(Loading{Ticket: m.ticket})
	return m.ticket, nil
}

// Succeed completes the attempt identified by ticket with result.
func (m *Machine) Succeed(ticket Ticket, result *faceapi.AnalysisResult) error {
	if result == nil {
		return m.Fail(ticket, nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkTicketLocked(ticket); err != nil {
		return err
	}
	m.setLocked(Succeeded{Result: result})
	return nil
}

// Fail completes the attempt identified by ticket with the message of cause.
// A nil cause or one without a message is reported with a generic message.
func (m *Machine) Fail(ticket Ticket, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkTicketLocked(ticket); err != nil {
		return err
	}
	m.setLocked(Failed{Message: FailureMessage(cause)})
	return nil
}

// StartOver discards any result or error and returns to Idle. It is a no-op
// when Idle and rejected with ErrBusy while Loading.
func (m *Machine) StartOver() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state.(type) {
	case Idle:
		return nil
	case Loading:
		return ErrBusy
	}
	m.setLocked(Idle{})
	return nil
}

// Subscribe returns a channel receiving every snapshot from now on, starting
// with the current one, and a function that unsubscribes and closes it.
func (m *Machine) Subscribe() (<-chan Snapshot, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan Snapshot, constants.EventChannelBuffer)
	ch <- m.state.snapshot()
	m.listeners = append(m.listeners, ch)

	var once sync.Once
	return ch, func() {
		once.Do(func() { m.removeListener(ch) })
	}
}

func (m *Machine) removeListener(ch chan Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, listener := range m.listeners {
		if listener == ch {
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// FailureMessage is the text shown for a failed attempt.
func FailureMessage(cause error) string {
	if cause == nil {
		return constants.GenericAnalysisError
	}
	if msg := strings.TrimSpace(cause.Error()); msg != "" {
		return msg
	}
	return constants.GenericAnalysisError
}

func (m *Machine) checkTicketLocked(ticket Ticket) error {
	loading, ok := m.state.(Loading)
	if !ok {
		return ErrInvalidTransition
	}
	if loading.Ticket != ticket {
		return ErrStaleTicket
	}
	return nil
}

// setLocked replaces the state and notifies listeners in transition order.
func (m *Machine) setLocked(s State) {
	m.state = s
	snap := s.snapshot()
	for _, listener := range m.listeners {
		select {
		case listener <- snap:
		default:
			// Buffer full: drop the oldest snapshot so the latest always arrives
			select {
			case <-listener:
			default:
			}
			select {
			case listener <- snap:
			default:
			}
		}
	}
}
