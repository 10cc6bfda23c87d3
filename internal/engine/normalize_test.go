package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"User likes tea", "likes tea"},
		{"  USER   likes\t\tTea \n", "likes tea"},
		{"user user likes tea", "likes tea"},
		{"Userlikes tea", "likes tea"},
		{"likes tea", "likes tea"},
		{"The user likes tea", "the user likes tea"},
		{"", ""},
		{"   ", ""},
		{"User", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"User likes tea",
		"user user   USER x",
		"User    user",
		" \tUSERuser  Name is Bob ",
		"usersuser",
		"Ünïcödé  Üser",
		"User prefers   morning runs\nand coffee",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}
