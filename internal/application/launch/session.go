// internal/application/launch/session.go
package launch

import (
	"context"
	"sync"

	launchdom "launchpad/internal/domain/launch"
)

// Phase is the submission state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseSuccess    Phase = "success"
	PhaseError      Phase = "error"
)

// State は画面に表示する内容そのものです。
type State struct {
	Phase   Phase
	Result  launchdom.Result
	Message string
}

// Session holds one form, one uploader reference and one wallet, and lets at
// most one submission run at a time.
type Session struct {
	orch     *Orchestrator
	uploader Uploader

	mu     sync.Mutex
	wallet Wallet
	form   launchdom.Form
	state  State
}

func NewSession(orch *Orchestrator, uploader Uploader) *Session {
	return &Session{
		orch:     orch,
		uploader: uploader,
		state:    State{Phase: PhaseIdle},
	}
}

func (s *Session) ConnectWallet(w Wallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallet = w
}

func (s *Session) SetForm(f launchdom.Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = f
}

func (s *Session) Form() launchdom.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CanSubmit is true iff the form is valid and nothing is in flight.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.IsComplete() && s.state.Phase != PhaseSubmitting
}

// Submit runs one creation pipeline. It returns the resulting state; the
// error is the underlying failure (the state already carries its message).
func (s *Session) Submit(ctx context.Context) (State, error) {
	s.mu.Lock()
	if s.state.Phase == PhaseSubmitting {
		s.mu.Unlock()
		return State{}, ErrSubmissionInFlight
	}

	wallet, form := s.wallet, s.form
	if err := s.precheck(wallet, form); err != nil {
		s.state = State{Phase: PhaseError, Message: UserMessage(err)}
		st := s.state
		s.mu.Unlock()
		return st, err
	}
	s.state = State{Phase: PhaseSubmitting}
	s.mu.Unlock()

	res, err := s.orch.CreateToken(ctx, wallet, form)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = State{Phase: PhaseError, Message: UserMessage(err)}
		return s.state, err
	}
	s.state = State{Phase: PhaseSuccess, Result: res}
	s.form = launchdom.Form{}
	return s.state, nil
}

func (s *Session) precheck(wallet Wallet, form launchdom.Form) error {
	if wallet == nil {
		return ErrWalletNotConnected
	}
	if form.Image == nil {
		return launchdom.ErrImageRequired
	}
	if r, ok := s.uploader.(ReadinessReporter); ok && !r.Ready() {
		return ErrStorageNotReady
	}
	return form.Validate()
}
