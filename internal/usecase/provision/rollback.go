package provision

import (
	"context"

	"github.com/rs/zerolog"
)

type compensation struct {
	name string
	undo func(context.Context) error
}

// rollbackStack collects the undo action of every completed mutation.
type rollbackStack struct {
	steps []compensation
}

func (r *rollbackStack) push(name string, undo func(context.Context) error) {
	r.steps = append(r.steps, compensation{name: name, undo: undo})
}

func (r *rollbackStack) len() int {
	return len(r.steps)
}

// unwind runs the actions newest first. Every action runs even when an
// earlier one failed; failures are logged and counted.
func (r *rollbackStack) unwind(ctx context.Context, log *zerolog.Logger) int {
	failed := 0
	for i := len(r.steps) - 1; i >= 0; i-- {
		step := r.steps[i]
		if err := step.undo(ctx); err != nil {
			failed++
			log.Error().Err(err).Str("undo", step.name).Msg("rollback step failed")
			continue
		}
		log.Debug().Str("undo", step.name).Msg("rollback step done")
	}
	r.steps = nil
	return failed
}
