package mailer

import (
	"errors"
	"fmt"
	"testing"

	mg "github.com/mailgun/mailgun-go/v4"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		rejected bool
	}{
		{name: "bad request", err: &mg.UnexpectedResponseError{Expected: []int{200}, Actual: 400}, rejected: true},
		{name: "unauthorized", err: &mg.UnexpectedResponseError{Expected: []int{200}, Actual: 401}, rejected: true},
		{name: "wrapped bad request", err: fmt.Errorf("send: %w", &mg.UnexpectedResponseError{Actual: 400}), rejected: true},
		{name: "rate limited", err: &mg.UnexpectedResponseError{Expected: []int{200}, Actual: 429}},
		{name: "timeout", err: &mg.UnexpectedResponseError{Expected: []int{200}, Actual: 408}},
		{name: "server error", err: &mg.UnexpectedResponseError{Expected: []int{200}, Actual: 502}},
		{name: "network", err: errors.New("dial tcp: i/o timeout")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			require.Equal(t, tt.rejected, errors.Is(got, ErrRejected))
			require.ErrorIs(t, got, tt.err)
		})
	}
	require.NoError(t, classify(nil))
}
