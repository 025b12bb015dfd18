package protocol

import (
	"encoding/binary"

	"github.com/pgsdf/drawfs/internal/constants"
	"github.com/pgsdf/drawfs/internal/wire"
)

// dispatch routes one complete message to its handler and enqueues
// exactly one reply frame. offset is the message's byte offset within its
// frame, used for INVALID_ARG/UNSUPPORTED_CAP error reporting.
func (s *Session) dispatch(msgType constants.MsgType, msgID uint32, payload []byte, offset uint32) {
	s.mu.Lock()
	s.stats.MessagesProcessed++
	s.mu.Unlock()

	switch msgType {
	case constants.MsgHello:
		s.handleHello(msgID)
	case constants.MsgDisplayList:
		s.handleDisplayList(msgID)
	case constants.MsgDisplayOpen:
		if len(payload) < 4 {
			s.enqueueError(constants.ErrInvalidArg, msgID, offset)
			return
		}
		s.handleDisplayOpen(msgID, payload)
	case constants.MsgSurfaceCreate:
		if len(payload) < 12 {
			s.enqueueError(constants.ErrInvalidArg, msgID, offset)
			return
		}
		s.handleSurfaceCreate(msgID, payload)
	case constants.MsgSurfaceDestroy:
		if len(payload) < 4 {
			s.enqueueError(constants.ErrInvalidArg, msgID, offset)
			return
		}
		s.handleSurfaceDestroy(msgID, payload)
	case constants.MsgSurfacePresent:
		// Reserved: the real present pipeline is out of scope.
		s.mu.Lock()
		s.stats.MessagesUnsupported++
		s.mu.Unlock()
		s.obs.ObserveMessageDispatched(true)
		s.enqueueError(constants.ErrUnsupportedCap, msgID, offset)
		return
	default:
		s.mu.Lock()
		s.stats.MessagesUnsupported++
		s.mu.Unlock()
		s.obs.ObserveMessageDispatched(true)
		s.enqueueError(constants.ErrUnsupportedCap, msgID, offset)
		return
	}

	s.obs.ObserveMessageDispatched(false)
}

func (s *Session) handleHello(msgID uint32) {
	payload := make([]byte, 8)
	wire.PutHelloReply(payload, &wire.HelloReply{Major: 1, Minor: 0, Flags: 0, CapsBytes: 0})
	s.enqueueReply(constants.MsgReplyHello, msgID, payload)
}

func (s *Session) handleDisplayList(msgID uint32) {
	payload := make([]byte, 4+20)
	binary.LittleEndian.PutUint32(payload[0:4], 1)
	wire.PutDisplayDescriptor(payload[4:], &wire.DisplayDescriptor{
		ID: 1, WidthPx: 1920, HeightPx: 1080, RefreshMHz: 60000, Flags: 0,
	})
	s.enqueueReply(constants.MsgReplyDisplayList, msgID, payload)
}

func (s *Session) handleDisplayOpen(msgID uint32, rawPayload []byte) {
	var req wire.DisplayOpenRequest
	_ = wire.UnmarshalDisplayOpenRequest(rawPayload, &req)

	s.mu.Lock()
	var reply wire.DisplayOpenReply
	if req.DisplayID != 1 {
		reply = wire.DisplayOpenReply{Status: uint32(constants.ErrNotFound), Handle: 0, DisplayID: 0}
	} else {
		// Idempotent: re-opening the already-active display reuses the
		// existing handle rather than minting a new one.
		if s.activeDisplayID != 1 || s.activeDisplayHandle == 0 {
			s.activeDisplayHandle = s.nextDisplayHandle
			s.nextDisplayHandle++
		}
		s.activeDisplayID = 1
		reply = wire.DisplayOpenReply{Status: 0, Handle: s.activeDisplayHandle, DisplayID: 1}
	}
	s.mu.Unlock()

	payload := make([]byte, 12)
	wire.PutDisplayOpenReply(payload, &reply)
	s.enqueueReply(constants.MsgReplyDisplayOpen, msgID, payload)
}

func (s *Session) handleSurfaceCreate(msgID uint32, rawPayload []byte) {
	var req wire.SurfaceCreateRequest
	_ = wire.UnmarshalSurfaceCreateRequest(rawPayload, &req)

	s.mu.Lock()
	var reply wire.SurfaceCreateReply
	if s.activeDisplayHandle == 0 {
		reply = wire.SurfaceCreateReply{Status: uint32(constants.ErrInvalidArg)}
	} else {
		surf, code := s.registry.Create(req.WidthPx, req.HeightPx, constants.PixelFormat(req.Format))
		if code != constants.ErrOK {
			reply = wire.SurfaceCreateReply{Status: uint32(code)}
		} else {
			reply = wire.SurfaceCreateReply{Status: 0, ID: surf.ID, Stride: surf.Stride, Total: surf.Total}
			s.obs.ObserveSurfaceCreated(uint64(surf.Total))
		}
	}
	s.mu.Unlock()

	payload := make([]byte, 16)
	wire.PutSurfaceCreateReply(payload, &reply)
	s.enqueueReply(constants.MsgReplySurfaceCreate, msgID, payload)
}

func (s *Session) handleSurfaceDestroy(msgID uint32, rawPayload []byte) {
	var req wire.SurfaceDestroyRequest
	_ = wire.UnmarshalSurfaceDestroyRequest(rawPayload, &req)

	s.mu.Lock()
	surf, code := s.registry.Destroy(req.ID)
	var reply wire.SurfaceDestroyReply
	if code != constants.ErrOK {
		reply = wire.SurfaceDestroyReply{Status: uint32(code), ID: req.ID}
	} else {
		surf.ReleaseOwnerRef()
		if s.mapSurfaceID == surf.ID {
			s.mapSurfaceID = 0
		}
		s.obs.ObserveSurfaceDestroyed(uint64(surf.Total))
		reply = wire.SurfaceDestroyReply{Status: 0, ID: surf.ID}
	}
	s.mu.Unlock()

	payload := make([]byte, 8)
	wire.PutSurfaceDestroyReply(payload, &reply)
	s.enqueueReply(constants.MsgReplySurfaceDestroy, msgID, payload)
}
