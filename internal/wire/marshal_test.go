package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameHeaderRoundTrip(t *testing.T) {
	h := &FrameHeader{Magic: 0x31575244, Version: 0x0100, HeaderBytes: 12, FrameBytes: 36, FrameID: 7}
	buf := MarshalFrameHeader(h)
	require.Len(t, buf, 12)

	var got FrameHeader
	require.NoError(t, UnmarshalFrameHeader(append(buf, make([]byte, 8)...), &got))
	require.Equal(t, *h, got)
}

func TestUnmarshalFrameHeaderShort(t *testing.T) {
	var h FrameHeader
	require.ErrorIs(t, UnmarshalFrameHeader(make([]byte, 4), &h), ErrInsufficientData)
}

func TestHelloRequestBytes(t *testing.T) {
	// The literal HELLO frame from the end-to-end scenario: msg_id=7, no body.
	frame := []byte{
		0x44, 0x52, 0x57, 0x31, // magic
		0x00, 0x01, // version
		0x0C, 0x00, // header_bytes
		0x18, 0x00, 0x00, 0x00, // frame_bytes = 24
		0x01, 0x00, 0x00, 0x00, // frame_id = 1
		0x01, 0x00, // msg_type = HELLO
		0x00, 0x00, // msg_flags
		0x0C, 0x00, 0x00, 0x00, // msg_bytes = 12
		0x07, 0x00, 0x00, 0x00, // msg_id = 7
		0x00, 0x00, 0x00, 0x00, // reserved
	}
	require.Len(t, frame, 24)

	var fh FrameHeader
	require.NoError(t, UnmarshalFrameHeader(frame, &fh))
	require.Equal(t, uint32(0x31575244), fh.Magic)
	require.Equal(t, uint32(24), fh.FrameBytes)

	var mh MsgHeader
	require.NoError(t, UnmarshalMsgHeader(frame[12:], &mh))
	require.Equal(t, uint16(0x0001), mh.MsgType)
	require.Equal(t, uint32(7), mh.MsgID)
	require.Equal(t, uint32(12), mh.MsgBytes)
}

func TestSelectMapRecordRoundTrip(t *testing.T) {
	r := &SelectMapRecord{Status: 0, SurfaceID: 1, StrideBytes: 16, BytesTotal: 32}
	buf := MarshalSelectMapRecord(r)
	require.Len(t, buf, 16)

	var got SelectMapRecord
	require.NoError(t, UnmarshalSelectMapRecord(buf, &got))
	require.Equal(t, *r, got)
}

func TestStatsRecordLayout(t *testing.T) {
	s := &StatsRecord{
		FramesReceived: 1, FramesProcessed: 2, FramesInvalid: 3,
		MessagesProcessed: 4, MessagesUnsupported: 5,
		EventsEnqueued: 6, EventsDropped: 7,
		BytesIn: 8, BytesOut: 9,
		EVQDepth: 10, InbufBytes: 11,
	}
	buf := MarshalStatsRecord(s)
	require.Len(t, buf, 80)
}
