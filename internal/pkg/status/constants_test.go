package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		name string
		st   Status
		want string
	}{
		{st: Pending, want: "pending"},
		{st: Processing, want: "processing"},
		{st: Completed, want: "completed"},
		{st: Failed, want: "failed"},
		{st: 0, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.st.String(); got != tt.want {
				t.Errorf("Status.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFrom(t *testing.T) {
	tests := []struct {
		name string
		args string
		want Status
	}{
		{args: "completed", want: Completed},
		{args: "olia", want: 0},
		{args: "processing", want: Processing},
		{args: "pending", want: Pending},
		{args: "failed", want: Failed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := From(tt.args); got != tt.want {
				t.Errorf("From() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, Pending.IsTerminal())
	assert.False(t, Processing.IsTerminal())
	assert.True(t, Completed.IsTerminal())
	assert.True(t, Failed.IsTerminal())
}

func TestUnfinished(t *testing.T) {
	assert.Equal(t, []Status{Pending, Processing}, Unfinished())
}
