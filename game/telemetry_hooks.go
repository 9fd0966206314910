package game

import (
	"log/slog"

	"github.com/pthm-cable/bonfire/telemetry"
)

// flushTelemetry checks if the stats window should be flushed.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	field := telemetry.FieldInfo{
		Image:  g.source(),
		Kind:   g.ctx.Field.Kind().String(),
		Points: g.ctx.Field.Len(),
	}
	stats := g.collector.Flush(g.tick, g.pool.Particles(), field)
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Console output
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}

// recordEvent logs a discrete change and appends it to events.csv.
func (g *Game) recordEvent(e telemetry.Event) {
	if g.logStats {
		e.LogEvent()
	}
	if err := g.outputManager.WriteEvent(e); err != nil {
		slog.Error("failed to write event", "error", err)
	}
}
