package contracts

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnavailableReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"missing", fmt.Errorf("INFY 2024-02: %w", ErrMissingData), "missing price file"},
		{"short", fmt.Errorf("INFY 2024-02: 1 rows: %w", ErrInsufficientSeries), "fewer than 2 price rows"},
		{"malformed", fmt.Errorf("close \"abc\": %w", ErrMalformedRecord), "malformed price file"},
		{"other", errors.New("permission denied"), "permission denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnavailableReason(tt.err))
		})
	}
}
