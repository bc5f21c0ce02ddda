// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jfcote87/avatax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	var tick = time.Date(2019, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return s
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestStore_FailureThenSuccess(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	details := []avatax.ErrorDetail{
		{Source: "Addresses", Summary: "Address is incomplete or invalid."},
		{Source: "Lines", Summary: "missing tax code"},
	}
	require.NoError(t, s.RecordFailure(ctx, "INV-1", details))
	require.NoError(t, s.RecordFailure(ctx, "INV-1", details[:1]))
	require.NoError(t, s.RecordFailure(ctx, "INV-2", nil))

	open, err := s.ListRecords(ctx, RecordFilter{DocCode: "INV-1", FailuresOnly: true})
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, details[:1], open[0].FailureDetails)
	assert.Equal(t, details, open[1].FailureDetails)
	assert.True(t, open[0].LoggedOn.After(open[1].LoggedOn))
	assert.Nil(t, open[0].SuccessOn)

	require.NoError(t, s.RecordSuccess(ctx, "INV-1"))

	open, err = s.ListRecords(ctx, RecordFilter{DocCode: "INV-1", FailuresOnly: true})
	require.NoError(t, err)
	assert.Empty(t, open)

	all, err := s.ListRecords(ctx, RecordFilter{DocCode: "INV-1"})
	require.NoError(t, err)
	require.Len(t, all, 2, "success resolves open failures without a new row")
	for _, r := range all {
		require.NotNil(t, r.SuccessOn)
		assert.True(t, r.SuccessOn.After(r.LoggedOn))
	}

	open, err = s.ListRecords(ctx, RecordFilter{FailuresOnly: true})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "INV-2", open[0].DocCode)
	assert.Empty(t, open[0].FailureDetails)
}

func TestStore_SuccessWithoutFailure(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.RecordSuccess(ctx, "INV-9"))
	require.NoError(t, s.RecordSuccess(ctx, ""))

	all, err := s.ListRecords(ctx, RecordFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "INV-9", all[0].DocCode)
	assert.NotEmpty(t, all[0].ID)
	require.NotNil(t, all[0].SuccessOn)
	assert.Nil(t, all[0].FailureDetails)

	failures, err := s.ListRecords(ctx, RecordFilter{FailuresOnly: true})
	require.NoError(t, err)
	assert.Empty(t, failures)
}

func TestStore_ListLimit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordFailure(ctx, "", nil))
	}
	recs, err := s.ListRecords(ctx, RecordFilter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestStore_CanceledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.RecordFailure(ctx, "INV-1", nil), context.Canceled)
	assert.ErrorIs(t, s.RecordSuccess(ctx, "INV-1"), context.Canceled)
	_, err := s.ListRecords(ctx, RecordFilter{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_NilStore(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Close())
	assert.Error(t, s.RecordSuccess(context.Background(), "X"))
}
