// Package testutil provides deterministic helpers shared by rigkit tests.
package testutil

import (
	"io"
	"log/slog"

	"github.com/kmellet/rigkit/internal/fields"
	"github.com/kmellet/rigkit/internal/modules/chain"
	"github.com/kmellet/rigkit/internal/modules/corrective"
	"github.com/kmellet/rigkit/internal/rig"
	"github.com/kmellet/rigkit/internal/scene"
)

// QuietLogger returns a logger that discards everything. Tests and
// scenario runs use it so reconcile warnings do not clutter test output.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// BuildSampleRig assembles the reference rig several package tests share:
// a three joint spine chain with a corrective hung off its middle joint,
// reconciled but not built.
//
// Joint names are deterministic, so callers can refer to spine_deform_000
// through spine_deform_002 and cheek_deform_000 directly.
func BuildSampleRig(sc scene.Adapter) (*rig.Rig, error) {
	r, err := rig.New(sc, rig.WithLogger(QuietLogger()))
	if err != nil {
		return nil, err
	}
	spine, err := r.AddModule(chain.TypeName, "spine")
	if err != nil {
		return nil, err
	}
	if err := spine.Fields().Set(chain.FieldChainLength, fields.Int(3)); err != nil {
		return nil, err
	}
	cheek, err := r.AddModule(corrective.TypeName, "cheek")
	if err != nil {
		return nil, err
	}
	if err := cheek.SetParentJoint("spine_deform_001"); err != nil {
		return nil, err
	}
	if err := r.Update(); err != nil {
		return nil, err
	}
	return r, nil
}
