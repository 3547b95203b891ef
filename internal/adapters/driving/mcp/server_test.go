package mcp

import (
	"context"
	"net"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("missing ingest service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{Answer: &mockAnswerService{}})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingIngestService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Ingest: &mockIngestService{},
			Answer: &mockAnswerService{},
		})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{"empty", &Ports{}, ErrMissingIngestService},
		{"no answer service", &Ports{Ingest: &mockIngestService{}}, ErrMissingAnswerService},
		{"sessions optional", &Ports{Ingest: &mockIngestService{}, Answer: &mockAnswerService{}}, nil},
		{"all ports", &Ports{
			Ingest:   &mockIngestService{},
			Answer:   &mockAnswerService{},
			Sessions: &mockSessionService{},
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRunHTTP_ListenError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	server := newTestServer(t, &Ports{})
	before := runtime.NumGoroutine()

	err = server.RunHTTP(context.Background(), busy.Addr().String())
	require.Error(t, err)
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 10*time.Millisecond)
}
