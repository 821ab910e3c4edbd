package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner(t *testing.T) {
	s := NewSigner([]byte("pepper"))

	token, id := s.Issue()
	got, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	other, _ := s.Issue()
	assert.NotEqual(t, token, other)

	otherID, sig, _ := strings.Cut(other, ".")
	_, mac, _ := strings.Cut(token, ".")

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "no separator", token: id},
		{name: "not a uuid", token: "abc." + mac},
		{name: "bad hex", token: id + ".zz"},
		{name: "swapped signature", token: otherID + "." + mac},
		{name: "truncated signature", token: otherID + "." + sig[:10]},
		{name: "foreign pepper", token: func() string { tok, _ := NewSigner([]byte("x")).Issue(); return tok }()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Verify(tt.token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
