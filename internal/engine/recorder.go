package engine

import (
	"context"
	"errors"

	"github.com/tartampluch/go-clinic/internal/config"
	"github.com/tartampluch/go-clinic/internal/form"
)

// Recorder wraps a Submitter and records every accepted submission in a Ledger.
type Recorder struct {
	Next   form.Submitter
	Ledger *Ledger
}

// Submit implements form.Submitter.
func (r *Recorder) Submit(ctx context.Context, formID string, values form.Values) (form.Receipt, error) {
	if r.Next == nil {
		return form.Receipt{}, errors.New(config.ErrSubmitterMissing)
	}
	receipt, err := r.Next.Submit(ctx, formID, values)
	if err != nil {
		return receipt, err
	}
	if r.Ledger != nil {
		r.Ledger.Record(formID, values, receipt)
	}
	return receipt, nil
}
