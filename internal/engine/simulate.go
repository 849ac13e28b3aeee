package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/tartampluch/go-clinic/internal/calendar"
	"github.com/tartampluch/go-clinic/internal/config"
	"github.com/tartampluch/go-clinic/internal/form"
)

// ErrSimulatedFailure is returned when the simulation decides to fail.
var ErrSimulatedFailure = errors.New(config.ErrSimulatedFailure)

// SimulatedSubmitter answers submissions locally after each form's declared
// delay, failing at the form's declared rate.
type SimulatedSubmitter struct {
	Clock calendar.Clock

	// Rand returns a number in [0,1). Defaults to math/rand.
	Rand func() float64

	// FailureRate, when set, overrides every form's rate.
	FailureRate *float64

	// Delay, when set, replaces the form's declared delay.
	Delay func(form.Definition) time.Duration
}

// Submit waits for the simulated round trip, then succeeds or fails.
func (s *SimulatedSubmitter) Submit(ctx context.Context, formID string, _ form.Values) (form.Receipt, error) {
	def, ok := form.Lookup(formID)
	if !ok {
		return form.Receipt{}, fmt.Errorf("%s: %q", config.ErrUnknownForm, formID)
	}

	delay := def.Simulation.Delay
	if s.Delay != nil {
		delay = s.Delay(def)
	}
	rate := def.Simulation.FailureRate
	if s.FailureRate != nil {
		rate = *s.FailureRate
	}

	slog.Debug(config.MsgSimulatedDelay,
		config.LogKeyComponent, config.CompSubmit,
		config.LogKeyForm, formID,
		config.LogKeyDelay, delay.Milliseconds(),
		config.LogKeyRate, rate)

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return form.Receipt{}, ctx.Err()
		case <-timer.C:
		}
	}

	roll := rand.Float64
	if s.Rand != nil {
		roll = s.Rand
	}
	if rate > 0 && roll() < rate {
		return form.Receipt{}, ErrSimulatedFailure
	}

	clock := s.Clock
	if clock == nil {
		clock = calendar.RealClock{}
	}
	return form.Receipt{ConfirmationID: uuid.NewString(), At: clock.Now()}, nil
}
