package server

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// telemetryCounters tracks broadcast and tick health. All fields are atomic
// so the HTTP diagnostics handler can read them off-thread.
type telemetryCounters struct {
	bytesSent             atomic.Uint64
	entitiesSent          atomic.Uint64
	tickDurationMillis    atomic.Int64
	lastBroadcastBytes    atomic.Uint64
	lastBroadcastEntities atomic.Uint64
	droppedCommands       atomic.Uint64
	debug                 bool
}

type telemetrySnapshot struct {
	BytesSent       uint64 `json:"bytesSent"`
	EntitiesSent    uint64 `json:"entitiesSent"`
	TickDuration    int64  `json:"tickDurationMillis"`
	DroppedCommands uint64 `json:"droppedCommands"`
}

func newTelemetryCounters() *telemetryCounters {
	t := &telemetryCounters{}
	if os.Getenv("DEBUG_TELEMETRY") == "1" {
		t.debug = true
	}
	return t
}

func (t *telemetryCounters) RecordBroadcast(bytes int) {
	if bytes < 0 {
		bytes = 0
	}
	t.bytesSent.Add(uint64(bytes))
	t.lastBroadcastBytes.Store(uint64(bytes))
}

func (t *telemetryCounters) RecordBroadcastEntities(entities int) {
	if entities < 0 {
		entities = 0
	}
	t.entitiesSent.Add(uint64(entities))
	t.lastBroadcastEntities.Store(uint64(entities))
}

func (t *telemetryCounters) RecordTickDuration(duration time.Duration) {
	millis := duration.Milliseconds()
	if millis < 0 {
		millis = 0
	}
	t.tickDurationMillis.Store(millis)
	if t.debug {
		fmt.Printf(
			"[telemetry] tick=%dms bytes=%d totalBytes=%d entities=%d\n",
			millis,
			t.lastBroadcastBytes.Load(),
			t.bytesSent.Load(),
			t.lastBroadcastEntities.Load(),
		)
	}
}

func (t *telemetryCounters) IncrementDroppedCommands() {
	t.droppedCommands.Add(1)
}

func (t *telemetryCounters) Snapshot() telemetrySnapshot {
	return telemetrySnapshot{
		BytesSent:       t.bytesSent.Load(),
		EntitiesSent:    t.entitiesSent.Load(),
		TickDuration:    t.tickDurationMillis.Load(),
		DroppedCommands: t.droppedCommands.Load(),
	}
}
