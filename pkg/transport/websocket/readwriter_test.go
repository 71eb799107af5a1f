package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func TestServerRoundTrip(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	addr := <-s.Listening()
	conn, err := Dial("ws://" + addr.String() + DefaultPath)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, websocket.Message.Send(conn, []byte{0x05, 0x00}))
	pkt, err := s.Poll(time.Second)
	require.NoError(t, err)
	require.Equal(t, []byte{0x05, 0x00}, pkt)

	require.Eventually(t, s.Connected, time.Second, time.Millisecond)
	require.NoError(t, s.Send([]byte("{}\n")))
	var reply []byte
	require.NoError(t, websocket.Message.Receive(conn, &reply))
	require.Equal(t, []byte("{}\n"), reply)

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}
