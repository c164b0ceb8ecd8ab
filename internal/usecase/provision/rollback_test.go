package provision

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRollbackStack_UnwindsInReverse(t *testing.T) {
	var order []string
	var stack rollbackStack
	for _, name := range []string{"first", "second", "third"} {
		name := name
		stack.push(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	log := zerolog.Nop()
	failed := stack.unwind(context.Background(), &log)

	assert.Zero(t, failed)
	assert.Equal(t, []string{"third", "second", "first"}, order)
	assert.Zero(t, stack.len())
}

func TestRollbackStack_ContinuesAfterFailure(t *testing.T) {
	var ran []string
	var stack rollbackStack
	stack.push("a", func(context.Context) error { ran = append(ran, "a"); return nil })
	stack.push("b", func(context.Context) error { ran = append(ran, "b"); return errors.New("boom") })
	stack.push("c", func(context.Context) error { ran = append(ran, "c"); return errors.New("boom") })

	log := zerolog.Nop()
	failed := stack.unwind(context.Background(), &log)

	assert.Equal(t, 2, failed)
	assert.Equal(t, []string{"c", "b", "a"}, ran)
}
