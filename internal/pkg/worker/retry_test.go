package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/airenas/scribe/internal/pkg/test"
	"github.com/airenas/scribe/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestCappedBackOff(t *testing.T) {
	b := &cappedBackOff{unit: time.Second}
	var got []time.Duration
	for i := 0; i < 6; i++ {
		got = append(got, b.NextBackOff())
	}
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second,
		10 * time.Second, 10 * time.Second}, got)
	b.Reset()
	assert.Equal(t, 2*time.Second, b.NextBackOff())
}

func TestWithRetry(t *testing.T) {
	tErr := utils.NewErrTransient(errors.New("certificate verify failed"))
	tests := []struct {
		name      string
		attempts  int
		errs      []error
		wantCalls int
		wantErr   error
	}{
		{name: "OK", attempts: 3, errs: []error{nil}, wantCalls: 1},
		{name: "Transient then OK", attempts: 3, errs: []error{tErr, tErr, nil}, wantCalls: 3},
		{name: "Transient exhausted", attempts: 3, errs: []error{tErr, tErr, tErr, nil}, wantCalls: 3, wantErr: tErr},
		{name: "Zero attempts", attempts: 0, errs: []error{tErr, nil}, wantCalls: 1, wantErr: tErr},
		{name: "Other error", attempts: 3, errs: []error{errors.New("boom"), nil}, wantCalls: 1,
			wantErr: errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls, notified := 0, 0
			res, err := withRetry(test.Ctx(t), tt.attempts, time.Millisecond, func() (int, error) {
				err := tt.errs[calls]
				calls++
				if err != nil {
					return 0, err
				}
				return 10, nil
			}, func(error, time.Duration) { notified++ })
			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.wantCalls-1, notified)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr.Error(), err.Error())
			} else {
				assert.Nil(t, err)
				assert.Equal(t, 10, res)
			}
		})
	}
}

func TestWithRetry_Canceled(t *testing.T) {
	ctx, cf := context.WithCancel(test.Ctx(t))
	calls := 0
	_, err := withRetry(ctx, 5, time.Second, func() (int, error) {
		calls++
		cf()
		return 0, utils.NewErrTransient(errors.New("certificate verify failed"))
	}, nil)
	assert.True(t, errors.Is(err, context.Canceled), err)
	assert.Equal(t, 1, calls)
}
