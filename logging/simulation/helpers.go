package simulation

import (
	"context"

	"dustveil/server/logging"
)

const (
	// EventMobSpawned is emitted when the spawn director places a mob.
	EventMobSpawned logging.EventType = "simulation.mob_spawned"
	// EventDifficultyChanged is emitted when a room switches difficulty.
	EventDifficultyChanged logging.EventType = "simulation.difficulty_changed"
)

// MobSpawnedPayload names the spawned mob's type.
type MobSpawnedPayload struct {
	MobType string `json:"mobType"`
}

// DifficultyPayload names the new difficulty level.
type DifficultyPayload struct {
	Level string `json:"level"`
}

// MobSpawned publishes a spawn event.
func MobSpawned(ctx context.Context, pub logging.Publisher, tick uint64, mob logging.EntityRef, mobType string) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventMobSpawned,
		Tick:     tick,
		Actor:    mob,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
		Payload:  MobSpawnedPayload{MobType: mobType},
	}
	pub.Publish(ctx, event)
}

// DifficultyChanged publishes a difficulty switch event.
func DifficultyChanged(ctx context.Context, pub logging.Publisher, tick uint64, level string) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventDifficultyChanged,
		Tick:     tick,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  DifficultyPayload{Level: level},
	}
	pub.Publish(ctx, event)
}
