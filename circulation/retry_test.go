package circulation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendwise/circulation-go/circulation"
	"github.com/lendwise/circulation-go/testutil/helper"
)

func Test_RetryWithExponentialBackoff_SucceedsFirstAttempt(t *testing.T) {
	// arrange
	attempts := 0

	// act
	err := circulation.RetryWithExponentialBackoff(context.Background(), func(_ context.Context) error {
		attempts++
		return nil
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "a successful call should not be retried")
}

func Test_RetryWithExponentialBackoff_RetriesTxConflict(t *testing.T) {
	// arrange
	attempts := 0

	// act
	err := circulation.RetryWithExponentialBackoff(context.Background(), func(_ context.Context) error {
		attempts++
		if attempts < 3 {
			return circulation.ErrTxConflict
		}
		return nil
	}, circulation.WithBaseDelay(time.Millisecond))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 3, attempts, "conflicts should be retried until success")
}

func Test_RetryWithExponentialBackoff_DoesNotRetryPermanentErrors(t *testing.T) {
	// arrange
	attempts := 0

	// act
	err := circulation.RetryWithExponentialBackoff(context.Background(), func(_ context.Context) error {
		attempts++
		return circulation.ErrOutOfStock
	}, circulation.WithBaseDelay(time.Millisecond))

	// assert
	assert.ErrorIs(t, err, circulation.ErrOutOfStock)
	assert.Equal(t, 1, attempts, "business errors must fail fast")
}

func Test_RetryWithExponentialBackoff_DoesNotRetryDeadlineExceeded(t *testing.T) {
	// arrange
	attempts := 0
	timeoutErr := errors.Join(circulation.ErrStoreUnavailable, context.DeadlineExceeded)

	// act
	err := circulation.RetryWithExponentialBackoff(context.Background(), func(_ context.Context) error {
		attempts++
		return timeoutErr
	}, circulation.WithBaseDelay(time.Millisecond))

	// assert
	assert.ErrorIs(t, err, circulation.ErrStoreUnavailable)
	assert.Equal(t, 1, attempts, "timeouts must fail fast, not cascade into retries")
}

func Test_RetryWithExponentialBackoff_ExhaustionSurfacesStoreUnavailable(t *testing.T) {
	// arrange
	attempts := 0

	// act
	err := circulation.RetryWithExponentialBackoff(context.Background(), func(_ context.Context) error {
		attempts++
		return circulation.ErrTxConflict
	}, circulation.WithMaxAttempts(3), circulation.WithBaseDelay(time.Millisecond))

	// assert
	assert.ErrorIs(t, err, circulation.ErrStoreUnavailable,
		"exhausted retries should surface as one operational error kind")
	assert.ErrorIs(t, err, circulation.ErrTxConflict, "the last conflict should stay inspectable")
	assert.Equal(t, 3, attempts)
}

func Test_RetryWithExponentialBackoff_CancelledContextStopsRetrying(t *testing.T) {
	// arrange
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	// act
	err := circulation.RetryWithExponentialBackoff(ctx, func(_ context.Context) error {
		attempts++
		cancel()
		return circulation.ErrTxConflict
	}, circulation.WithBaseDelay(time.Second))

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts, "cancellation during backoff must stop the retry loop")
}

func Test_RetryWithExponentialBackoff_RecordsRetryMetrics(t *testing.T) {
	// arrange
	metricsSpy := helper.NewMetricsCollectorSpy()
	attempts := 0

	// act
	err := circulation.RetryWithExponentialBackoff(context.Background(), func(_ context.Context) error {
		attempts++
		if attempts < 3 {
			return circulation.ErrTxConflict
		}
		return nil
	},
		circulation.WithBaseDelay(time.Millisecond),
		circulation.WithRetryMetrics(metricsSpy, "BorrowResource"),
	)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, metricsSpy.CountCounter(circulation.CommandHandlerRetriesMetric),
		"each retried conflict should be counted")

	counterRecords := metricsSpy.GetCounterRecords()
	require.NotEmpty(t, counterRecords)
	assert.Equal(t, "BorrowResource", counterRecords[0].Labels[circulation.LogAttrCommandType])
	assert.Equal(t, "tx_conflict", counterRecords[0].Labels[circulation.LogAttrErrorType])
}

func Test_RetryWithExponentialBackoff_RecordsMaxRetriesReachedMetric(t *testing.T) {
	// arrange
	metricsSpy := helper.NewMetricsCollectorSpy()

	// act
	err := circulation.RetryWithExponentialBackoff(context.Background(), func(_ context.Context) error {
		return circulation.ErrTxConflict
	},
		circulation.WithMaxAttempts(2),
		circulation.WithBaseDelay(time.Millisecond),
		circulation.WithRetryMetrics(metricsSpy, "BorrowResource"),
	)

	// assert
	require.Error(t, err)
	assert.Equal(t, 1, metricsSpy.CountCounter(circulation.CommandHandlerMaxRetriesReachedMetric))
}

func Test_RetryOptions_RejectInvalidConfiguration(t *testing.T) {
	noop := func(_ context.Context) error { return nil }

	assert.ErrorIs(t,
		circulation.RetryWithExponentialBackoff(context.Background(), noop, circulation.WithMaxAttempts(0)),
		circulation.ErrInvalidMaxAttempts)

	assert.ErrorIs(t,
		circulation.RetryWithExponentialBackoff(context.Background(), noop, circulation.WithBaseDelay(-time.Second)),
		circulation.ErrNegativeBaseDelay)

	assert.ErrorIs(t,
		circulation.RetryWithExponentialBackoff(context.Background(), noop, circulation.WithJitterFactor(1.5)),
		circulation.ErrInvalidJitterFactor)

	assert.ErrorIs(t,
		circulation.RetryWithExponentialBackoff(context.Background(), noop, circulation.WithRetryMetrics(nil, "X")),
		circulation.ErrNilMetricsCollector)

	assert.ErrorIs(t,
		circulation.RetryWithExponentialBackoff(context.Background(), noop,
			circulation.WithRetryMetrics(helper.NewMetricsCollectorSpy(), "")),
		circulation.ErrEmptyCommandType)
}
