package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTimespan(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{seconds: 0, want: "0 seconds"},
		{seconds: -5, want: "0 seconds"},
		{seconds: 1, want: "1 second"},
		{seconds: 59, want: "59 seconds"},
		{seconds: 90, want: "1 minute 30 seconds"},
		{seconds: 3600, want: "1 hour 0 minutes"},
		{seconds: 3725, want: "1 hour 2 minutes"},
		{seconds: 86400, want: "1 day 0 hours"},
		{seconds: 100000, want: "1 day 3 hours"},
		{seconds: 172800, want: "2 days 0 hours"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, renderTimespan(tt.seconds), "seconds=%v", tt.seconds)
	}
}
