package wire

import "encoding/binary"

// MarshalError reports a wire encode/decode failure.
type MarshalError string

func (e MarshalError) Error() string { return string(e) }

const (
	ErrInsufficientData MarshalError = "insufficient data for unmarshaling"
)

// MarshalFrameHeader encodes h into a fresh 12-byte buffer.
func MarshalFrameHeader(h *FrameHeader) []byte {
	buf := make([]byte, 12)
	PutFrameHeader(buf, h)
	return buf
}

// PutFrameHeader encodes h into buf[:12]. Callers must ensure len(buf) >= 12.
func PutFrameHeader(buf []byte, h *FrameHeader) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], h.HeaderBytes)
	binary.LittleEndian.PutUint32(buf[8:12], h.FrameBytes)
	binary.LittleEndian.PutUint32(buf[12:16], h.FrameID)
}

// UnmarshalFrameHeader decodes the first 12 bytes of data into h.
func UnmarshalFrameHeader(data []byte, h *FrameHeader) error {
	if len(data) < 12 {
		return ErrInsufficientData
	}
	h.Magic = binary.LittleEndian.Uint32(data[0:4])
	h.Version = binary.LittleEndian.Uint16(data[4:6])
	h.HeaderBytes = binary.LittleEndian.Uint16(data[6:8])
	h.FrameBytes = binary.LittleEndian.Uint32(data[8:12])
	h.FrameID = binary.LittleEndian.Uint32(data[12:16])
	return nil
}

// PutMsgHeader encodes h into buf[:12].
func PutMsgHeader(buf []byte, h *MsgHeader) {
	binary.LittleEndian.PutUint16(buf[0:2], h.MsgType)
	binary.LittleEndian.PutUint16(buf[2:4], h.MsgFlags)
	binary.LittleEndian.PutUint32(buf[4:8], h.MsgBytes)
	binary.LittleEndian.PutUint32(buf[8:12], h.MsgID)
	binary.LittleEndian.PutUint32(buf[12:16], h.Reserved)
}

// UnmarshalMsgHeader decodes the first 12 bytes of data into h.
func UnmarshalMsgHeader(data []byte, h *MsgHeader) error {
	if len(data) < 12 {
		return ErrInsufficientData
	}
	h.MsgType = binary.LittleEndian.Uint16(data[0:2])
	h.MsgFlags = binary.LittleEndian.Uint16(data[2:4])
	h.MsgBytes = binary.LittleEndian.Uint32(data[4:8])
	h.MsgID = binary.LittleEndian.Uint32(data[8:12])
	h.Reserved = binary.LittleEndian.Uint32(data[12:16])
	return nil
}

// PutErrorPayload encodes p into buf[:12].
func PutErrorPayload(buf []byte, p *ErrorPayload) {
	binary.LittleEndian.PutUint32(buf[0:4], p.ErrCode)
	binary.LittleEndian.PutUint32(buf[4:8], p.ErrDetail)
	binary.LittleEndian.PutUint32(buf[8:12], p.ErrOffset)
}

// PutHelloReply encodes p into buf[:8].
func PutHelloReply(buf []byte, p *HelloReply) {
	buf[0] = p.Major
	buf[1] = p.Minor
	binary.LittleEndian.PutUint16(buf[2:4], p.Flags)
	binary.LittleEndian.PutUint32(buf[4:8], p.CapsBytes)
}

// PutDisplayDescriptor encodes d into buf[:20].
func PutDisplayDescriptor(buf []byte, d *DisplayDescriptor) {
	binary.LittleEndian.PutUint32(buf[0:4], d.ID)
	binary.LittleEndian.PutUint32(buf[4:8], d.WidthPx)
	binary.LittleEndian.PutUint32(buf[8:12], d.HeightPx)
	binary.LittleEndian.PutUint32(buf[12:16], d.RefreshMHz)
	binary.LittleEndian.PutUint32(buf[16:20], d.Flags)
}

// UnmarshalDisplayOpenRequest decodes the fixed part of a DISPLAY_OPEN request.
func UnmarshalDisplayOpenRequest(data []byte, r *DisplayOpenRequest) error {
	if len(data) < 4 {
		return ErrInsufficientData
	}
	r.DisplayID = binary.LittleEndian.Uint32(data[0:4])
	return nil
}

// PutDisplayOpenReply encodes p into buf[:12].
func PutDisplayOpenReply(buf []byte, p *DisplayOpenReply) {
	binary.LittleEndian.PutUint32(buf[0:4], p.Status)
	binary.LittleEndian.PutUint32(buf[4:8], p.Handle)
	binary.LittleEndian.PutUint32(buf[8:12], p.DisplayID)
}

// UnmarshalSurfaceCreateRequest decodes the fixed part of a SURFACE_CREATE request.
func UnmarshalSurfaceCreateRequest(data []byte, r *SurfaceCreateRequest) error {
	if len(data) < 12 {
		return ErrInsufficientData
	}
	r.WidthPx = binary.LittleEndian.Uint32(data[0:4])
	r.HeightPx = binary.LittleEndian.Uint32(data[4:8])
	r.Format = binary.LittleEndian.Uint32(data[8:12])
	return nil
}

// PutSurfaceCreateReply encodes p into buf[:16].
func PutSurfaceCreateReply(buf []byte, p *SurfaceCreateReply) {
	binary.LittleEndian.PutUint32(buf[0:4], p.Status)
	binary.LittleEndian.PutUint32(buf[4:8], p.ID)
	binary.LittleEndian.PutUint32(buf[8:12], p.Stride)
	binary.LittleEndian.PutUint32(buf[12:16], p.Total)
}

// UnmarshalSurfaceDestroyRequest decodes the fixed part of a SURFACE_DESTROY request.
func UnmarshalSurfaceDestroyRequest(data []byte, r *SurfaceDestroyRequest) error {
	if len(data) < 4 {
		return ErrInsufficientData
	}
	r.ID = binary.LittleEndian.Uint32(data[0:4])
	return nil
}

// PutSurfaceDestroyReply encodes p into buf[:8].
func PutSurfaceDestroyReply(buf []byte, p *SurfaceDestroyReply) {
	binary.LittleEndian.PutUint32(buf[0:4], p.Status)
	binary.LittleEndian.PutUint32(buf[4:8], p.ID)
}

// MarshalStatsRecord encodes s into a fresh 80-byte buffer.
func MarshalStatsRecord(s *StatsRecord) []byte {
	buf := make([]byte, 80)
	binary.LittleEndian.PutUint64(buf[0:8], s.FramesReceived)
	binary.LittleEndian.PutUint64(buf[8:16], s.FramesProcessed)
	binary.LittleEndian.PutUint64(buf[16:24], s.FramesInvalid)
	binary.LittleEndian.PutUint64(buf[24:32], s.MessagesProcessed)
	binary.LittleEndian.PutUint64(buf[32:40], s.MessagesUnsupported)
	binary.LittleEndian.PutUint64(buf[40:48], s.EventsEnqueued)
	binary.LittleEndian.PutUint64(buf[48:56], s.EventsDropped)
	binary.LittleEndian.PutUint64(buf[56:64], s.BytesIn)
	binary.LittleEndian.PutUint64(buf[64:72], s.BytesOut)
	binary.LittleEndian.PutUint32(buf[72:76], s.EVQDepth)
	binary.LittleEndian.PutUint32(buf[76:80], s.InbufBytes)
	return buf
}

// MarshalSelectMapRecord encodes r into a fresh 16-byte buffer.
func MarshalSelectMapRecord(r *SelectMapRecord) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.Status))
	binary.LittleEndian.PutUint32(buf[4:8], r.SurfaceID)
	binary.LittleEndian.PutUint32(buf[8:12], r.StrideBytes)
	binary.LittleEndian.PutUint32(buf[12:16], r.BytesTotal)
	return buf
}

// UnmarshalSelectMapRecord decodes a 16-byte buffer into r.
func UnmarshalSelectMapRecord(data []byte, r *SelectMapRecord) error {
	if len(data) < 16 {
		return ErrInsufficientData
	}
	r.Status = int32(binary.LittleEndian.Uint32(data[0:4]))
	r.SurfaceID = binary.LittleEndian.Uint32(data[4:8])
	r.StrideBytes = binary.LittleEndian.Uint32(data[8:12])
	r.BytesTotal = binary.LittleEndian.Uint32(data[12:16])
	return nil
}
