package jobs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdoflow/pdoflow/jobs"
)

func noopJob(ctx context.Context, args []any, kwargs map[string]any) error {
	return nil
}

func TestRegistryRegister(t *testing.T) {
	r := jobs.NewRegistry()

	err := r.Register("pkg.work.compute", noopJob)
	assert.NoError(t, err)

	// Registering the same entry point twice must fail.
	err = r.Register("pkg.work.compute", noopJob)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, jobs.ErrEntryPointAlreadyRegistered))

	// A different entry point is fine.
	err = r.Register("pkg.work.other", noopJob)
	assert.NoError(t, err)
}

func TestRegistryResolve(t *testing.T) {
	r := jobs.NewRegistry()
	assert.NoError(t, r.Register("pkg.work.compute", noopJob))

	fn, ok := r.Resolve("pkg.work.compute")
	assert.True(t, ok)
	assert.NotNil(t, fn)

	_, ok = r.Resolve("pkg.work.missing")
	assert.False(t, ok)

	assert.True(t, r.Contains("pkg.work.compute"))
	assert.False(t, r.Contains("pkg.work.missing"))
}

func TestRegistryClear(t *testing.T) {
	r := jobs.NewRegistry()
	assert.NoError(t, r.Register("pkg.work.compute", noopJob))

	r.Clear()
	assert.False(t, r.Contains("pkg.work.compute"))

	// After clearing, the entry point can be registered again.
	assert.NoError(t, r.Register("pkg.work.compute", noopJob))
}
