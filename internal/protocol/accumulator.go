package protocol

import (
	"github.com/pgsdf/drawfs/internal/constants"
	"github.com/pgsdf/drawfs/internal/queue"
	"github.com/pgsdf/drawfs/internal/wire"
)

// frameError describes a frame-header-level validation failure: the whole
// accumulator is reset and exactly one ERROR reply is owed to the client.
type frameError struct {
	code   constants.ErrCode
	offset uint32
}

// Accumulator is the inbound frame reassembly buffer. Append adds writer
// bytes; TryExtractFrame walks the front of the buffer looking for one
// complete, well-formed frame.
type Accumulator struct {
	buf []byte
}

// NewAccumulator returns an accumulator with the session's standard
// initial capacity.
func NewAccumulator() *Accumulator {
	return &Accumulator{buf: make([]byte, 0, constants.AccumulatorInitialCap)}
}

// Len reports the number of bytes currently buffered (inbuf_bytes).
func (a *Accumulator) Len() int { return len(a.buf) }

// Append adds data to the accumulator. It reports false (OVERFLOW) if the
// post-append length would exceed MaxFrameBytes; in that case the whole
// accumulator is discarded, matching the reference's in_len = 0 reset
// rather than leaving stale partial-frame bytes behind.
func (a *Accumulator) Append(data []byte) bool {
	if len(a.buf)+len(data) > constants.MaxFrameBytes {
		a.Reset()
		return false
	}
	a.buf = append(a.buf, data...)
	return true
}

// Reset discards all buffered bytes, used after a frame-header error.
func (a *Accumulator) Reset() {
	a.buf = a.buf[:0]
}

// TryExtractFrame attempts to pull one complete frame off the front of the
// buffer.
//
//   - ok=false, ferr=nil: not enough bytes buffered yet; caller should stop
//     and wait for more writes.
//   - ferr != nil: the provisional header is malformed; the accumulator has
//     already been reset and the caller owes exactly one ERROR reply.
//   - ok=true: frame holds the complete frame (header + messages); the
//     consumed bytes have been shifted out of the accumulator.
func (a *Accumulator) TryExtractFrame() (frame []byte, ferr *frameError, ok bool) {
	if len(a.buf) < constants.HeaderBytes {
		return nil, nil, false
	}

	var hdr wire.FrameHeader
	_ = wire.UnmarshalFrameHeader(a.buf, &hdr)

	if hdr.Magic != constants.Magic {
		a.Reset()
		return nil, &frameError{code: constants.ErrInvalidFrame, offset: 0}, false
	}
	if hdr.Version != constants.Version {
		a.Reset()
		return nil, &frameError{code: constants.ErrUnsupportedVersion, offset: 4}, false
	}
	if hdr.HeaderBytes != constants.HeaderBytes {
		a.Reset()
		return nil, &frameError{code: constants.ErrInvalidFrame, offset: 6}, false
	}
	if hdr.FrameBytes < constants.HeaderBytes ||
		hdr.FrameBytes > constants.MaxFrameBytes ||
		hdr.FrameBytes%4 != 0 {
		a.Reset()
		return nil, &frameError{code: constants.ErrInvalidFrame, offset: 8}, false
	}

	if uint32(len(a.buf)) < hdr.FrameBytes {
		// Not a protocol error: just haven't seen the rest of the frame yet.
		return nil, nil, false
	}

	out := queue.GetBuffer(hdr.FrameBytes)
	copy(out, a.buf[:hdr.FrameBytes])
	a.buf = append(a.buf[:0], a.buf[hdr.FrameBytes:]...)
	return out, nil, true
}
