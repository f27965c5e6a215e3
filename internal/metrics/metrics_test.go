package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAction(t *testing.T) {
	before := testutil.ToFloat64(drillActions.WithLabelValues("drill"))
	RecordAction("drill")
	RecordAction("drill")
	assert.Equal(t, before+2, testutil.ToFloat64(drillActions.WithLabelValues("drill")))
}

func TestRecordMemo(t *testing.T) {
	hits := testutil.ToFloat64(memoLookups.WithLabelValues("hit"))
	misses := testutil.ToFloat64(memoLookups.WithLabelValues("miss"))
	RecordMemo(true)
	RecordMemo(false)
	RecordMemo(false)
	assert.Equal(t, hits+1, testutil.ToFloat64(memoLookups.WithLabelValues("hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(memoLookups.WithLabelValues("miss")))
}

func TestGaugesAndReloads(t *testing.T) {
	SetActiveSessions(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(activeSessions))

	ok := testutil.ToFloat64(datasetReloads.WithLabelValues("ok"))
	failed := testutil.ToFloat64(datasetReloads.WithLabelValues("error"))
	RecordReload(nil)
	RecordReload(errors.New("boom"))
	assert.Equal(t, ok+1, testutil.ToFloat64(datasetReloads.WithLabelValues("ok")))
	assert.Equal(t, failed+1, testutil.ToFloat64(datasetReloads.WithLabelValues("error")))

	dropped := testutil.ToFloat64(droppedFilters)
	RecordDroppedFilters(2)
	assert.Equal(t, dropped+2, testutil.ToFloat64(droppedFilters))

	ObserveAnalysis(5 * time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(analysisDuration))
}
