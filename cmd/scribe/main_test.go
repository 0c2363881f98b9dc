package main

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func Test_defaultV(t *testing.T) {
	assert.Equal(t, "vd", defaultV("", "vd"))
	assert.Equal(t, "aaa", defaultV("aaa", "vd"))
	assert.Equal(t, 1, defaultV(0, 1))
	assert.Equal(t, 10, defaultV(10, 1))
	assert.Equal(t, time.Minute, defaultV(time.Duration(0), time.Minute))
	assert.Equal(t, time.Minute*5, defaultV(time.Minute*5, time.Minute))
}

func Test_readWorkerConfig(t *testing.T) {
	cfg := viper.New()
	assert.Equal(t, workerConfig{count: 3, retries: 3, retryUnit: time.Second, stopTimeout: 15 * time.Second},
		readWorkerConfig(cfg))
	cfg.Set("worker.count", 5)
	cfg.Set("worker.retries", 1)
	cfg.Set("worker.retryUnit", "10ms")
	cfg.Set("worker.stopTimeout", "1m")
	assert.Equal(t, workerConfig{count: 5, retries: 1, retryUnit: 10 * time.Millisecond, stopTimeout: time.Minute},
		readWorkerConfig(cfg))
}
