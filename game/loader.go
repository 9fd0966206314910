package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/bonfire/camera"
	"github.com/pthm-cable/bonfire/config"
	"github.com/pthm-cable/bonfire/imagesource"
	"github.com/pthm-cable/bonfire/systems"
	"github.com/pthm-cable/bonfire/telemetry"
)

// libraryLoad is an image folder decoded off the frame loop, installed at the
// next frame boundary after it completes.
type libraryLoad struct {
	seq uint64
	cfg config.ImagesConfig

	lib      *imagesource.Library
	entry    *imagesource.Entry // first usable entry, current in lib
	field    *systems.SpawnField
	viewport camera.Viewport // fitted to entry

	failures []loadFailure // entries skipped before entry
	err      error
}

type loadFailure struct {
	name string
	err  error
}

// loadLibrary opens cfg.Dir and builds the field of its first usable image,
// starting from the preferred one and wrapping through the folder. vp is a
// copy of the game viewport and is only fitted locally.
func loadLibrary(cfg config.ImagesConfig, edge config.EdgeConfig, vp camera.Viewport) *libraryLoad {
	ld := &libraryLoad{cfg: cfg}

	lib, err := imagesource.Open(cfg)
	if err != nil {
		ld.err = err
		return ld
	}
	ld.lib = lib

	if lib.Len() == 0 {
		ld.err = fmt.Errorf("%s: %w", cfg.Dir, imagesource.ErrNoImages)
		return ld
	}

	var lastErr error
	for i := 0; i < lib.Len(); i++ {
		var e *imagesource.Entry
		if i == 0 {
			e, err = lib.Current()
		} else {
			e, err = lib.Next()
		}
		if err != nil {
			lastErr = err
			break
		}

		fit := vp
		var field *systems.SpawnField
		field, err = buildField(e, &fit, edge)
		if err == nil {
			ld.entry = e
			ld.field = field
			ld.viewport = fit
			return ld
		}
		lastErr = err
		ld.failures = append(ld.failures, loadFailure{name: e.Name, err: err})
	}

	ld.err = fmt.Errorf("%s: no usable image: %w", cfg.Dir, lastErr)
	return ld
}

// buildField fits vp to the entry and builds its spawn field.
func buildField(e *imagesource.Entry, vp *camera.Viewport, edge config.EdgeConfig) (*systems.SpawnField, error) {
	grid, err := imagesource.Grid(e, vp, edge.ProcessWidth)
	if err != nil {
		return nil, err
	}
	return systems.BuildSpawnField(grid, vp, edge, e.Name)
}

// startLibraryLoad decodes dir on a goroutine. Only the most recent load is
// installed; earlier ones still in flight are dropped when they finish.
func (g *Game) startLibraryLoad(dir string) {
	cfg := g.imagesCfg
	cfg.Dir = dir
	edge := g.cfg.Edge
	vp := *g.viewport

	g.loadSeq++
	seq := g.loadSeq

	g.loads.Add(1)
	go func() {
		defer g.loads.Done()
		ld := loadLibrary(cfg, edge, vp)
		ld.seq = seq
		g.enqueue(request{kind: reqInstallLibrary, load: ld})
	}()
}

// installLibrary swaps in a completed load. A load without a usable image
// keeps the current library and field.
func (g *Game) installLibrary(ld *libraryLoad) {
	if ld.seq != g.loadSeq {
		slog.Debug("dropping superseded library load", "dir", ld.cfg.Dir)
		return
	}

	for _, f := range ld.failures {
		g.collector.RecordDecodeFailure()
		g.recordEvent(telemetry.NewDecodeFailureEvent(g.tick, g.dt, g.image, f.name, f.err))
	}
	if ld.err != nil {
		g.status = ld.err
		slog.Warn("image folder unusable, keeping library", "dir", ld.cfg.Dir, "error", ld.err)
		return
	}

	field := ld.field
	if ld.viewport.ScreenW == g.viewport.ScreenW && ld.viewport.ScreenH == g.viewport.ScreenH {
		*g.viewport = ld.viewport
	} else {
		// Window resized while loading
		saved := *g.viewport
		rebuilt, err := g.buildImageField(ld.entry)
		if err != nil {
			*g.viewport = saved
			g.status = err
			return
		}
		field = rebuilt
	}

	from := g.image
	g.library = ld.lib
	g.imagesCfg = ld.cfg
	g.setImageField(ld.entry, field)
	g.status = nil
	g.collector.RecordImageSwitch()
	g.recordEvent(telemetry.NewLibraryEvent(g.tick, g.dt, from, ld.entry.Name, ld.cfg.Dir))
	slog.Info("image folder opened", "dir", ld.cfg.Dir, "images", ld.lib.Len(), "image", ld.entry.Name)
}
