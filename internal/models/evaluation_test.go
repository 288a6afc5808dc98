package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluationAverageScore(t *testing.T) {
	cases := []struct {
		ratings [4]int
		want    float64
	}{
		{[4]int{10, 10, 10, 10}, 10.0},
		{[4]int{1, 1, 1, 1}, 1.0},
		{[4]int{8, 6, 7, 9}, 7.5},
		{[4]int{7, 8, 8, 8}, 7.75},
	}
	for _, tc := range cases {
		e := Evaluation{Overall: tc.ratings[0], Punctuality: tc.ratings[1], ReportQuality: tc.ratings[2], Communication: tc.ratings[3]}
		assert.InDelta(t, tc.want, e.AverageScore(), 1e-9, "%v", tc.ratings)
	}
}

func TestEvaluationValidate(t *testing.T) {
	ok := Evaluation{Overall: 1, Punctuality: 10, ReportQuality: 5, Communication: 7}
	require.NoError(t, ok.Validate())

	bad := Evaluation{Overall: 0, Punctuality: 11, ReportQuality: 5, Communication: 7}
	err := bad.Validate()
	require.ErrorIs(t, err, ErrRatingOutOfRange)
	assert.Contains(t, err.Error(), "overall=0")
	assert.Contains(t, err.Error(), "punctuality=11")
	assert.NotContains(t, err.Error(), "communication")
}
