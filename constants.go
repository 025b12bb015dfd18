package drawfs

import "github.com/pgsdf/drawfs/internal/constants"

// Re-exported wire-level limits, for callers that want to size their own
// buffers without importing the internal package directly.
const (
	MaxFrameBytes          = constants.MaxFrameBytes
	MaxMsgBytes            = constants.MaxMsgBytes
	MaxEventBytes          = constants.MaxEventBytes
	MaxEVQBytes            = constants.MaxEVQBytes
	MaxSurfaces            = constants.MaxSurfaces
	MaxSurfaceBytes        = constants.MaxSurfaceBytes
	MaxSessionSurfaceBytes = constants.MaxSessionSurfaceBytes
)
