package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perr "worlddex/internal/platform/errors"
	"worlddex/internal/services/api/identify/domain"
	t2 "worlddex/internal/services/tier2/domain"
)

func completedJob() t2.Job {
	r := t2.Identified("Hoover Tower", "gemini-landmark", 1)
	return t2.Job{ID: "j", State: t2.StateCompleted, Result: &r}
}

func TestWatch_UnknownJob(t *testing.T) {
	jobs := &scriptJobs{next: func(int) (t2.Job, error) { return t2.Job{}, perr.NotFoundf("job not found") }}
	w := &recordWriter{}

	err := NewGateway(jobs, time.Millisecond, 0).Watch(context.Background(), "missing", w)
	require.NoError(t, err)
	require.Len(t, w.events, 1)
	assert.Equal(t, domain.EventError, w.events[0].Event)
	assert.Equal(t, "Job not found", w.events[0].Data)
}

func TestWatch_CompletesAfterPolling(t *testing.T) {
	jobs := &scriptJobs{next: func(call int) (t2.Job, error) {
		switch {
		case call == 1:
			return t2.Job{ID: "j", State: t2.StateQueued}, nil
		case call < 4:
			return t2.Job{ID: "j", State: t2.StateActive, Progress: 30}, nil
		default:
			return completedJob(), nil
		}
	}}
	w := &recordWriter{}

	err := NewGateway(jobs, 5*time.Millisecond, 0).Watch(context.Background(), "j", w)
	require.NoError(t, err)
	require.Len(t, w.events, 1, "exactly one terminal event")
	assert.Equal(t, domain.EventCompleted, w.events[0].Event)
	res, ok := w.events[0].Data.(*t2.Result)
	require.True(t, ok)
	assert.Equal(t, "Hoover Tower", *res.Label)
	assert.Equal(t, 1.0, res.Confidence)
	assert.GreaterOrEqual(t, jobs.calls, 4)
}

func TestWatch_Failed(t *testing.T) {
	msg := "plant.id: 500"
	jobs := &scriptJobs{next: func(int) (t2.Job, error) {
		return t2.Job{ID: "j", State: t2.StateFailed, Error: &msg}, nil
	}}
	w := &recordWriter{}

	require.NoError(t, NewGateway(jobs, time.Millisecond, 0).Watch(context.Background(), "j", w))
	require.Len(t, w.events, 1)
	assert.Equal(t, domain.EventFailed, w.events[0].Event)
	assert.Nil(t, w.events[0].Data)
}

func TestWatch_TransientPollErrorsRetry(t *testing.T) {
	jobs := &scriptJobs{next: func(call int) (t2.Job, error) {
		switch call {
		case 1:
			return t2.Job{ID: "j", State: t2.StateActive}, nil
		case 2, 3:
			return t2.Job{}, errors.New("conn refused")
		default:
			return completedJob(), nil
		}
	}}
	w := &recordWriter{}

	require.NoError(t, NewGateway(jobs, time.Millisecond, 0).Watch(context.Background(), "j", w))
	require.Len(t, w.events, 1)
	assert.Equal(t, domain.EventCompleted, w.events[0].Event)
}

func TestWatch_PrunedMidStream(t *testing.T) {
	jobs := &scriptJobs{next: func(call int) (t2.Job, error) {
		if call == 1 {
			return t2.Job{ID: "j", State: t2.StateActive}, nil
		}
		return t2.Job{}, perr.NotFoundf("job not found")
	}}
	w := &recordWriter{}

	require.NoError(t, NewGateway(jobs, time.Millisecond, 0).Watch(context.Background(), "j", w))
	require.Len(t, w.events, 1)
	assert.Equal(t, domain.EventError, w.events[0].Event)
}

func TestWatch_CallerLeaves(t *testing.T) {
	jobs := &scriptJobs{next: func(int) (t2.Job, error) { return t2.Job{ID: "j", State: t2.StateActive}, nil }}
	w := &recordWriter{}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := NewGateway(jobs, 5*time.Millisecond, 0).Watch(ctx, "j", w)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, w.events)
}

func TestWatch_Heartbeat(t *testing.T) {
	jobs := &scriptJobs{next: func(call int) (t2.Job, error) {
		if call < 20 {
			return t2.Job{ID: "j", State: t2.StateActive}, nil
		}
		return completedJob(), nil
	}}
	w := &recordWriter{}

	require.NoError(t, NewGateway(jobs, 5*time.Millisecond, 2*time.Millisecond).Watch(context.Background(), "j", w))
	assert.Positive(t, w.beats)
	require.Len(t, w.events, 1)
}

func TestWatch_WriterErrorStops(t *testing.T) {
	jobs := &scriptJobs{next: func(int) (t2.Job, error) { return t2.Job{ID: "j", State: t2.StateActive}, nil }}
	w := &recordWriter{err: errors.New("broken pipe")}

	err := NewGateway(jobs, time.Hour, time.Millisecond).Watch(context.Background(), "j", w)
	require.EqualError(t, err, "broken pipe")
}

func TestNewGateway_Defaults(t *testing.T) {
	g := NewGateway(&scriptJobs{}, 0, 0)
	assert.Equal(t, DefaultPoll, g.poll)
	assert.Zero(t, g.heartbeat)
}
