// Package wire defines the packed, little-endian structures that travel
// over a session's byte stream, and the control-op records exchanged
// out of band. Layouts are hand-marshaled field by field; nothing here
// relies on host struct layout or unsafe casts.
package wire

import "unsafe"

// FrameHeader is the outermost length-prefixed container. Every frame,
// inbound or outbound, starts with one.
type FrameHeader struct {
	Magic       uint32
	Version     uint16
	HeaderBytes uint16
	FrameBytes  uint32
	FrameID     uint32
}

var _ [12]byte = [unsafe.Sizeof(FrameHeader{})]byte{}

// MsgHeader prefixes every message inside a frame.
type MsgHeader struct {
	MsgType  uint16
	MsgFlags uint16
	MsgBytes uint32
	MsgID    uint32
	Reserved uint32
}

var _ [12]byte = [unsafe.Sizeof(MsgHeader{})]byte{}

// ErrorPayload is the body of an ERROR reply message.
type ErrorPayload struct {
	ErrCode   uint32
	ErrDetail uint32
	ErrOffset uint32
}

var _ [12]byte = [unsafe.Sizeof(ErrorPayload{})]byte{}

// HelloReply is the body of a HELLO reply message.
type HelloReply struct {
	Major     uint8
	Minor     uint8
	Flags     uint16
	CapsBytes uint32
}

var _ [8]byte = [unsafe.Sizeof(HelloReply{})]byte{}

// DisplayDescriptor describes one virtual display in a DISPLAY_LIST reply.
type DisplayDescriptor struct {
	ID          uint32
	WidthPx     uint32
	HeightPx    uint32
	RefreshMHz  uint32
	Flags       uint32
}

var _ [20]byte = [unsafe.Sizeof(DisplayDescriptor{})]byte{}

// DisplayOpenRequest is the body of a DISPLAY_OPEN request message.
type DisplayOpenRequest struct {
	DisplayID uint32
}

var _ [4]byte = [unsafe.Sizeof(DisplayOpenRequest{})]byte{}

// DisplayOpenReply is the body of a DISPLAY_OPEN reply message.
type DisplayOpenReply struct {
	Status    uint32
	Handle    uint32
	DisplayID uint32
}

var _ [12]byte = [unsafe.Sizeof(DisplayOpenReply{})]byte{}

// SurfaceCreateRequest is the body of a SURFACE_CREATE request message.
type SurfaceCreateRequest struct {
	WidthPx  uint32
	HeightPx uint32
	Format   uint32
}

var _ [12]byte = [unsafe.Sizeof(SurfaceCreateRequest{})]byte{}

// SurfaceCreateReply is the body of a SURFACE_CREATE reply message.
type SurfaceCreateReply struct {
	Status uint32
	ID     uint32
	Stride uint32
	Total  uint32
}

var _ [16]byte = [unsafe.Sizeof(SurfaceCreateReply{})]byte{}

// SurfaceDestroyRequest is the body of a SURFACE_DESTROY request message.
type SurfaceDestroyRequest struct {
	ID uint32
}

var _ [4]byte = [unsafe.Sizeof(SurfaceDestroyRequest{})]byte{}

// SurfaceDestroyReply is the body of a SURFACE_DESTROY reply message.
type SurfaceDestroyReply struct {
	Status uint32
	ID     uint32
}

var _ [8]byte = [unsafe.Sizeof(SurfaceDestroyReply{})]byte{}

// StatsRecord mirrors the host's stats control-op snapshot field for field.
// The last two fields are live gauges, not monotonic counters.
type StatsRecord struct {
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

var _ [80]byte = [unsafe.Sizeof(StatsRecord{})]byte{}

// SelectMapRecord is the write-then-read control record used to select a
// surface for mapping. This is the binding definition; the source carries
// an unused duplicate (drawfs_map_surface_req/rep) that is not rendered here.
type SelectMapRecord struct {
	Status      int32
	SurfaceID   uint32
	StrideBytes uint32
	BytesTotal  uint32
}

var _ [16]byte = [unsafe.Sizeof(SelectMapRecord{})]byte{}
