package game

import (
	"errors"
	"log/slog"

	"github.com/ncruces/zenity"
)

// pickImageDir opens a native folder dialog on a goroutine. The chosen folder
// is queued like any other control; at most one dialog is open at a time.
func (g *Game) pickImageDir() {
	if !g.dialogOpen.CompareAndSwap(false, true) {
		return
	}
	start := g.library.Dir()

	go func() {
		defer g.dialogOpen.Store(false)

		dir, err := zenity.SelectFile(
			zenity.Title("Open Image Folder"),
			zenity.Directory(),
			zenity.Filename(start),
		)
		if err != nil {
			if errors.Is(err, zenity.ErrCanceled) {
				return
			}
			slog.Warn("folder dialog failed", "error", err)
			g.enqueue(request{kind: reqStatus, err: err})
			return
		}
		g.OpenImageDir(dir)
	}()
}
