package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthNumber(t *testing.T) {
	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"numeric", "7", 7},
		{"numeric with spaces", " 12 ", 12},
		{"full name", "January", 1},
		{"abbreviation", "Sep", 9},
		{"lowercase", "october", 10},
		{"abbreviation with period prefix match", "Aug.", 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MonthNumber(tc.token)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMonthNumberRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "0", "13", "-1", "Q1", "xy", "monthly"} {
		_, err := MonthNumber(token)
		assert.Error(t, err, "token %q", token)
	}
}
