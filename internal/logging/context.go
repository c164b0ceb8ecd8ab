package logging

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Common field names, shared by every layer so log lines can be filtered
// the same way regardless of where they come from.
const (
	FieldLayer     = "layer"
	FieldUseCase   = "usecase"
	FieldAdapter   = "adapter"
	FieldHandler   = "handler"
	FieldRunID     = "run_id"
	FieldSubdomain = "subdomain"
	FieldProjectID = "project_id"
	FieldStage     = "stage"
	FieldPath      = "path"
)

// CtxWithFields returns a copy of ctx whose logger carries fields. When ctx
// has no logger attached, base is used as the starting point.
func CtxWithFields(ctx context.Context, base zerolog.Logger, fields map[string]any) context.Context {
	parent := base
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		parent = *l
	}
	logger := parent.With().Fields(fields).Logger()
	return logger.WithContext(ctx)
}

// FromCtx returns the logger attached to ctx, or fallback when there is none.
func FromCtx(ctx context.Context, fallback zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &fallback
}

// WrapErr logs err at error level with msg and returns it wrapped with msg.
func WrapErr(l *zerolog.Logger, err error, msg string) error {
	l.Error().Err(err).Msg(msg)
	return fmt.Errorf("%s: %w", msg, err)
}
