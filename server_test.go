package drawfs

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pgsdf/drawfs/internal/constants"
	"github.com/pgsdf/drawfs/internal/wire"
)

func TestServeHelloOverUnixSocket(t *testing.T) {
	dir := t.TempDir()
	sockPath := dir + "/drawfs.sock"

	ln, err := net.Listen("unix", sockPath)
	require.NoError(t, err)

	server := NewServer(ServerConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveDone := make(chan error, 1)
	go func() { serveDone <- server.Serve(ctx, ln) }()

	conn, err := net.DialTimeout("unix", sockPath, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	msgBytes := uint32(constants.HeaderBytes)
	msg := make([]byte, msgBytes)
	wire.PutMsgHeader(msg, &wire.MsgHeader{MsgType: uint16(constants.MsgHello), MsgBytes: msgBytes, MsgID: 1})

	frameBytes := constants.HeaderBytes + msgBytes
	frame := make([]byte, frameBytes)
	wire.PutFrameHeader(frame, &wire.FrameHeader{
		Magic: constants.Magic, Version: constants.Version,
		HeaderBytes: constants.HeaderBytes, FrameBytes: frameBytes, FrameID: 1,
	})
	copy(frame[constants.HeaderBytes:], msg)

	_, err = conn.Write(frame)
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reply := make([]byte, 64)
	n, err := conn.Read(reply)
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, 2*constants.HeaderBytes)

	var mh wire.MsgHeader
	require.NoError(t, wire.UnmarshalMsgHeader(reply[constants.HeaderBytes:n], &mh))
	require.Equal(t, uint16(constants.MsgReplyHello), mh.MsgType)

	cancel()
	<-serveDone
}

func TestServerConfigMaxSessions(t *testing.T) {
	server := NewServer(ServerConfig{MaxSessions: 1})
	require.NotNil(t, server)
	require.Equal(t, 0, server.SessionCount())
}
