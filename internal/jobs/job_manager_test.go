package jobs_test

import (
	"errors"
	"testing"

	"fulfillment/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJob struct {
	name     string
	startErr error
	events   *[]string
}

func (j fakeJob) Name() string { return j.name }

func (j fakeJob) Start() error {
	if j.startErr != nil {
		return j.startErr
	}
	*j.events = append(*j.events, "start "+j.name)
	return nil
}

func (j fakeJob) Stop() { *j.events = append(*j.events, "stop "+j.name) }

func TestJobManager(t *testing.T) {
	t.Run("starts in order and stops in reverse", func(t *testing.T) {
		var events []string
		jm := jobs.NewJobManager(fakeJob{name: "a", events: &events}, fakeJob{name: "b", events: &events})

		require.NoError(t, jm.StartAll())
		jm.StopAll()

		assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, events)
	})

	t.Run("failed start stops the started jobs", func(t *testing.T) {
		var events []string
		jm := jobs.NewJobManager(
			fakeJob{name: "a", events: &events},
			fakeJob{name: "b", startErr: errors.New("bad schedule"), events: &events},
		)

		err := jm.StartAll()

		require.ErrorContains(t, err, "failed to start b job")
		assert.Equal(t, []string{"start a", "stop a"}, events)
	})
}
