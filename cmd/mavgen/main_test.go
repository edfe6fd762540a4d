package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/mavgen/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"include cycle", errors.Wrap(errors.ErrIncludeCycle, "a.xml -> a.xml"), 2},
		{"malformed file", errors.Schema("defs/common.xml", "bad root"), 2},
		{"duplicate message id", errors.Element(errors.ErrDuplicateMessageID, "alpha", "ALPHA_STATUS", "id 42"), 2},
		{"truncated payload", errors.Wrapf(errors.ErrTruncatedPayload, "HEARTBEAT: %d bytes", 3), 3},
		{"unknown message id", errors.Wrap(errors.ErrUnknownMessageID, "9999"), 3},
		{"hinted model error", errors.WithHint(errors.Wrap(errors.ErrDuplicateDialect, "common"), "rename one file"), 2},
		{"anything else", errors.New("permission denied"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
