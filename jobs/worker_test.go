package jobs

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

// TestIsConnectivityError pins down which failures count as transient
// connectivity faults (record reverts, no try consumed) versus ordinary
// execution failures (retry accounting applies).
func TestIsConnectivityError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("bad argument"), false},
		{"no rows", pgx.ErrNoRows, false},
		{"connection reset", fmt.Errorf("write failed: %w", syscall.ECONNRESET), true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"broken pipe", fmt.Errorf("flush: %w", syscall.EPIPE), true},
		{"eof", io.EOF, true},
		{"unexpected eof", fmt.Errorf("read header: %w", io.ErrUnexpectedEOF), true},
		{"dns timeout", &net.DNSError{Err: "lookup timed out", IsTimeout: true}, true},
		{"wrapped net error", fmt.Errorf("dial: %w", &net.OpError{Op: "dial", Err: errors.New("host down")}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isConnectivityError(tt.err))
		})
	}
}
