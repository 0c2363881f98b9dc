package utils

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSQLStr(t *testing.T) {
	assert.Equal(t, sql.NullString{}, ToSQLStr(""))
	assert.Equal(t, sql.NullString{String: "olia", Valid: true}, ToSQLStr("olia"))
}

func TestFromSQLStr(t *testing.T) {
	tests := []struct {
		name string
		args sql.NullString
		want string
	}{
		{name: "empty", args: sql.NullString{}, want: ""},
		{name: "non empty", args: sql.NullString{String: "olia", Valid: true}, want: "olia"},
		{name: "non valid", args: sql.NullString{String: "olia", Valid: false}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromSQLStr(tt.args))
		})
	}
}
