package utils

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrTransient_Error(t *testing.T) {
	assert.Equal(t, "olia", NewErrTransient(errors.New("olia")).Error())
}

func TestErrTransient_Unwrap(t *testing.T) {
	assert.True(t, errors.Is(NewErrTransient(io.EOF), io.EOF))
}

func TestErrProvider_Error(t *testing.T) {
	assert.Equal(t, "boom", NewErrProvider("boom").Error())
	assert.Equal(t, "Transcription failed", NewErrProvider("").Error())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindOther},
		{name: "other", err: io.EOF, want: KindOther},
		{name: "transient", err: NewErrTransient(io.EOF), want: KindTransient},
		{name: "wrapped transient", err: fmt.Errorf("can't call: %w", NewErrTransient(io.EOF)), want: KindTransient},
		{name: "provider", err: NewErrProvider("boom"), want: KindProvider},
		{name: "not found", err: fmt.Errorf("can't load: %w", ErrNotFound), want: KindNotFound},
		{name: "unavailable", err: ErrUnavailable, want: KindUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(NewErrTransient(io.EOF)))
	assert.False(t, IsTransient(NewErrProvider("boom")))
	assert.False(t, IsTransient(io.EOF))
}
