// Package protocol implements the per-session binary protocol engine:
// byte ingestion, frame/message validation, request dispatch, the
// outbound event queue, and the memory-map handshake. It depends only on
// abstract collaborators (an Allocator, a Logger, an Observer) so it has
// no knowledge of the concrete transport or host device-I/O contract that
// embeds it.
package protocol

import (
	"context"
	"errors"
	"sync"

	"github.com/pgsdf/drawfs/internal/constants"
	"github.com/pgsdf/drawfs/internal/iface"
	"github.com/pgsdf/drawfs/internal/memobj"
	"github.com/pgsdf/drawfs/internal/queue"
	"github.com/pgsdf/drawfs/internal/surface"
	"github.com/pgsdf/drawfs/internal/wire"
)

// Host-API errors returned from the device-op entry points. These are a
// distinct vocabulary from the wire-level ErrCode carried inside ERROR
// reply frames: these never travel over the wire, they are how the
// session reports failures to its own caller (the transport layer).
var (
	ErrNotAssociated = errors.New("drawfs: session not associated with a handle")
	ErrNoSuchDevice  = errors.New("drawfs: session is closed")
	ErrWouldBlock    = errors.New("drawfs: would block")
	ErrTooBig        = errors.New("drawfs: write exceeds max frame size")
	ErrOutOfMemory   = errors.New("drawfs: memory object allocation failed")
)

// Stats mirrors the host's stats control-op snapshot.
type Stats struct {
	FramesReceived      uint64
	FramesProcessed     uint64
	FramesInvalid       uint64
	MessagesProcessed   uint64
	MessagesUnsupported uint64
	EventsEnqueued      uint64
	EventsDropped       uint64
	BytesIn             uint64
	BytesOut            uint64
	EVQDepth            uint32
	InbufBytes          uint32
}

// ToWire renders s as the wire-level StatsRecord returned by the stats
// control op.
func (s Stats) ToWire() wire.StatsRecord {
	return wire.StatsRecord{
		FramesReceived:      s.FramesReceived,
		FramesProcessed:     s.FramesProcessed,
		FramesInvalid:       s.FramesInvalid,
		MessagesProcessed:   s.MessagesProcessed,
		MessagesUnsupported: s.MessagesUnsupported,
		EventsEnqueued:      s.EventsEnqueued,
		EventsDropped:       s.EventsDropped,
		BytesIn:             s.BytesIn,
		BytesOut:            s.BytesOut,
		EVQDepth:            s.EVQDepth,
		InbufBytes:          s.InbufBytes,
	}
}

// Session is one open file description's worth of protocol-engine state.
// Exclusively owned by its caller; never shared across opens.
type Session struct {
	id uint64

	mu       sync.Mutex
	acc      *Accumulator
	evq      *EventQueue
	registry *surface.Registry

	activeDisplayID     uint32
	activeDisplayHandle uint32
	nextDisplayHandle   uint32
	mapSurfaceID        uint32

	nextOutFrameID uint32
	closing        bool

	stats Stats

	// wake is closed and replaced on every enqueue, broadcasting to every
	// reader parked in Read at that instant. closed is closed exactly once,
	// at Close, and never replaced: it is what lets every future and
	// currently-parked Read observe session teardown.
	wake   chan struct{}
	closed chan struct{}

	alloc memobj.Allocator
	obs   iface.Observer
	log   iface.Logger
}

// NewSession allocates a session in its initial state: empty queues,
// counters zero, surface ids starting at 1, display handles starting at 1,
// frame ids starting at 1.
func NewSession(id uint64, alloc memobj.Allocator, obs iface.Observer, log iface.Logger) *Session {
	if obs == nil {
		obs = iface.NoOpObserver{}
	}
	return &Session{
		id:                id,
		acc:               NewAccumulator(),
		evq:               NewEventQueue(),
		registry:          surface.NewRegistry(),
		nextDisplayHandle: 1,
		nextOutFrameID:    1,
		wake:              make(chan struct{}),
		closed:            make(chan struct{}),
		alloc:             alloc,
		obs:               obs,
		log:               log,
	}
}

// ID returns the session's identifier, assigned by its creator.
func (s *Session) ID() uint64 { return s.id }

// Write is the device-op write entry point. A single oversized write is
// rejected at this boundary before it ever touches the accumulator.
func (s *Session) Write(data []byte) (int, error) {
	if len(data) > constants.MaxFrameBytes {
		return 0, ErrTooBig
	}

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return 0, ErrNoSuchDevice
	}

	if !s.acc.Append(data) {
		// Append already reset the accumulator; whatever was partially
		// buffered before this write is gone too, matching in_len = 0.
		s.mu.Unlock()
		s.enqueueError(constants.ErrOverflow, 0, 0)
		return len(data), nil
	}
	s.stats.BytesIn += uint64(len(data))
	s.mu.Unlock()

	s.drain()
	return len(data), nil
}

// drain repeatedly extracts and dispatches complete frames until the
// accumulator has too little data to form another one.
func (s *Session) drain() {
	for {
		s.mu.Lock()
		frame, ferr, ok := s.acc.TryExtractFrame()
		if ferr != nil {
			s.stats.FramesInvalid++
			s.mu.Unlock()
			s.enqueueError(ferr.code, 0, ferr.offset)
			continue
		}
		if !ok {
			s.mu.Unlock()
			return
		}
		s.stats.FramesReceived++
		s.mu.Unlock()

		s.processFrame(frame)
		queue.PutBuffer(frame)
	}
}

// processFrame validates and dispatches every message in frame, in order,
// stopping at the first message-level error (the rest of the frame is
// dropped, per the error-handling design).
func (s *Session) processFrame(frame []byte) {
	var hdr wire.FrameHeader
	_ = wire.UnmarshalFrameHeader(frame, &hdr)

	pos := uint32(constants.HeaderBytes)
	frameEnd := hdr.FrameBytes

	for pos+constants.HeaderBytes <= frameEnd {
		var mh wire.MsgHeader
		if err := wire.UnmarshalMsgHeader(frame[pos:], &mh); err != nil {
			break
		}

		if mh.MsgBytes < constants.HeaderBytes || mh.MsgBytes > constants.MaxMsgBytes || pos+mh.MsgBytes > frameEnd {
			s.mu.Lock()
			s.stats.MessagesProcessed++
			s.mu.Unlock()
			s.enqueueError(constants.ErrInvalidMsg, mh.MsgID, pos)
			return
		}

		payload := frame[pos+constants.HeaderBytes : pos+mh.MsgBytes]
		s.dispatch(constants.MsgType(mh.MsgType), mh.MsgID, payload, pos)

		pos += constants.Align4(mh.MsgBytes)
	}

	s.mu.Lock()
	s.stats.FramesProcessed++
	s.mu.Unlock()
}

// enqueueError builds and enqueues a single ERROR reply frame.
func (s *Session) enqueueError(code constants.ErrCode, msgID uint32, offset uint32) {
	payload := make([]byte, 12)
	wire.PutErrorPayload(payload, &wire.ErrorPayload{ErrCode: uint32(code), ErrDetail: 0, ErrOffset: offset})
	s.enqueueReply(constants.MsgReplyError, msgID, payload)
}

// enqueueReply builds one reply frame with a fresh frame_id and enqueues
// it, notifying any parked reader.
func (s *Session) enqueueReply(msgType constants.MsgType, msgID uint32, payload []byte) {
	s.mu.Lock()
	if s.closing {
		s.stats.EventsDropped++
		s.mu.Unlock()
		return
	}
	frameID := s.nextOutFrameID
	s.nextOutFrameID++

	frame := buildFrame(frameID, msgType, msgID, payload)
	if err := s.evq.Enqueue(frame); err != nil {
		if errors.Is(err, ErrQueueClosed) {
			s.stats.EventsDropped++
		}
		s.mu.Unlock()
		s.obs.ObserveEventDropped()
		return
	}
	s.stats.EventsEnqueued++
	s.stats.BytesOut += uint64(len(frame))

	oldWake := s.wake
	s.wake = make(chan struct{})
	s.mu.Unlock()

	close(oldWake)
	s.obs.ObserveEventEnqueued(uint64(len(frame)))
}

func buildFrame(frameID uint32, msgType constants.MsgType, msgID uint32, payload []byte) []byte {
	msgBytes := uint32(constants.HeaderBytes + len(payload))
	aligned := constants.Align4(msgBytes)
	frameBytes := constants.HeaderBytes + aligned

	buf := queue.GetBuffer(frameBytes)
	wire.PutFrameHeader(buf, &wire.FrameHeader{
		Magic:       constants.Magic,
		Version:     constants.Version,
		HeaderBytes: constants.HeaderBytes,
		FrameBytes:  frameBytes,
		FrameID:     frameID,
	})
	wire.PutMsgHeader(buf[constants.HeaderBytes:], &wire.MsgHeader{
		MsgType:  uint16(msgType),
		MsgFlags: 0,
		MsgBytes: msgBytes,
		MsgID:    msgID,
		Reserved: 0,
	})
	copy(buf[2*constants.HeaderBytes:], payload)
	return buf
}

// Read is the device-op read entry point. It takes one complete frame
// atomically. If the queue is empty and blocking is false it returns
// ErrWouldBlock immediately; otherwise it waits interruptibly until a
// frame arrives, the session closes, or ctx is done.
func (s *Session) Read(ctx context.Context, blocking bool) ([]byte, error) {
	for {
		s.mu.Lock()
		if frame, ok := s.evq.Dequeue(); ok {
			s.mu.Unlock()
			return frame, nil
		}
		if s.closing {
			s.mu.Unlock()
			return nil, ErrNoSuchDevice
		}
		if !blocking {
			s.mu.Unlock()
			return nil, ErrWouldBlock
		}
		wake := s.wake
		s.mu.Unlock()

		select {
		case <-wake:
		case <-s.closed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Poll implements the readiness query: if closing, signal hang-up; else if
// the event queue is non-empty, signal readable; else there is nothing
// ready right now (the caller registers for the next wake itself by
// selecting on WakeChan/ClosedChan, taking the place of the host's
// readiness-record registration).
func (s *Session) Poll() (readable bool, hangup bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false, true
	}
	return s.evq.Depth() > 0, false
}

// WakeChan returns the current wake channel, for callers implementing
// their own readiness-registration loop (e.g. a poller bridging to
// net.Conn deadlines). The channel value changes on every enqueue.
func (s *Session) WakeChan() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wake
}

// ClosedChan returns a channel that is closed exactly once, at Close.
func (s *Session) ClosedChan() <-chan struct{} {
	return s.closed
}

// Close tears the session down: no further event is ever enqueued after
// this point, and every waiter (parked readers and pollers) wakes
// immediately. Surface records are freed, but a surface's backing memory
// object survives if a mapping still references it.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	s.evq.Close()
	s.evq.Drain()
	// Ids are allocated upward from 1, so walking up from 1 reaches every
	// live surface before the registry empties.
	for id := uint32(1); s.registry.Count() > 0; id++ {
		if surf, code := s.registry.Destroy(id); code == constants.ErrOK {
			surf.ReleaseOwnerRef()
		}
	}
	s.mu.Unlock()

	close(s.closed)
	return nil
}

// Stats returns a snapshot of the session's counters plus the current
// live gauges (inbuf_bytes, evq_depth).
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.stats
	snap.InbufBytes = uint32(s.acc.Len())
	snap.EVQDepth = uint32(s.evq.Depth())
	snap.EventsDropped += s.evq.Dropped()
	return snap
}

// SelectMap performs the select-map control operation: it records
// mapSurfaceID for a subsequent Map call and returns the surface's current
// stride/total for the caller to compare against its own expectations.
func (s *Session) SelectMap(surfaceID uint32) wire.SelectMapRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	surf, ok := s.registry.Get(surfaceID)
	if !ok {
		return wire.SelectMapRecord{Status: -int32(constants.ErrNotFound), SurfaceID: surfaceID}
	}
	s.mapSurfaceID = surfaceID
	return wire.SelectMapRecord{
		Status:      0,
		SurfaceID:   surfaceID,
		StrideBytes: surf.Stride,
		BytesTotal:  surf.Total,
	}
}

// Map is the mapping primitive: offset must be 0 and size must not exceed
// the selected surface's total bytes. The backing object is lazily
// allocated on the first successful call and is independent of the
// surface record's own lifetime from this point on.
func (s *Session) Map(offset, size int64) (*memobj.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mapSurfaceID == 0 {
		return nil, ErrNotAssociated
	}
	surf, ok := s.registry.Get(s.mapSurfaceID)
	if !ok {
		return nil, ErrNotAssociated
	}
	if offset != 0 || size <= 0 || size > int64(surf.Total) {
		return nil, errInvalidArg
	}

	obj, err := surf.EnsureObject(s.alloc)
	if err != nil {
		return nil, ErrOutOfMemory
	}
	return obj, nil
}

var errInvalidArg = errors.New("drawfs: invalid map arguments")
