package global

import (
	"go.firedancer.io/roprobe/pkg/features"
)

// GlobalCtx holds state shared by every transaction of a run.
type GlobalCtx struct {
	Features features.Features
}

// NewGlobalCtx copies f, so later changes to f do not leak into the context.
func NewGlobalCtx(f *features.Features) GlobalCtx {
	return GlobalCtx{Features: *f.Clone()}
}
