package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perr "worlddex/internal/platform/errors"
	"worlddex/internal/platform/store"
	dom "worlddex/internal/services/tier2/domain"
)

var _ store.Clickhouse = (*fakeCH)(nil)

type fakeCH struct {
	table string
	rows  [][]any
	ddl   []string
	err   error
}

func (f *fakeCH) Insert(_ context.Context, table string, data any) error {
	if f.err != nil {
		return f.err
	}
	f.table = table
	f.rows = append(f.rows, data.([][]any)...)
	return nil
}

func (f *fakeCH) Close() error { return nil }

func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error {
	f.ddl = append(f.ddl, sql)
	return f.err
}

func TestClickHouse_Record(t *testing.T) {
	ch := &fakeCH{}
	s := NewClickHouse(ch)
	fin := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("PST", -8*3600))

	err := s.Record(context.Background(), dom.Outcome{
		JobID:      "j1",
		Module:     "species",
		State:      dom.StateCompleted,
		Provider:   "openai-fallback",
		Label:      "Golden Retriever",
		Confidence: 0.9,
		Duration:   1500 * time.Millisecond,
		FinishedAt: fin,
	})
	require.NoError(t, err)
	require.Len(t, ch.rows, 1)
	assert.Equal(t, Table, ch.table)

	r := ch.rows[0]
	assert.Equal(t, "j1", r[0])
	assert.Equal(t, "completed", r[2])
	assert.Equal(t, "openai-fallback", r[3])
	assert.Equal(t, uint32(1500), r[7])
	assert.Equal(t, time.UTC, r[8].(time.Time).Location())
}

func TestClickHouse_RecordError(t *testing.T) {
	s := NewClickHouse(&fakeCH{err: errors.New("conn refused")})
	err := s.Record(context.Background(), dom.Outcome{JobID: "j1"})
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeUnavailable))

	var unset *ClickHouse
	assert.Error(t, unset.Record(context.Background(), dom.Outcome{}))
}

func TestEnsure(t *testing.T) {
	ch := &fakeCH{}
	require.NoError(t, Ensure(context.Background(), ch))
	require.Len(t, ch.ddl, 1)
	assert.Contains(t, ch.ddl[0], "CREATE TABLE IF NOT EXISTS tier2_outcomes")
}

func TestRow_ClampsDuration(t *testing.T) {
	assert.Equal(t, uint32(0), row(dom.Outcome{Duration: -time.Second})[7])
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Record(context.Background(), dom.Outcome{}))
}
