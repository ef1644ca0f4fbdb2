package lifecycle

import (
	"context"

	"dustveil/server/logging"
)

const (
	// EventPlayerJoined is emitted when a session finishes joining a room.
	EventPlayerJoined logging.EventType = "lifecycle.player_joined"
	// EventPlayerDisconnected is emitted when a session drops; the player
	// record survives for the reconnection grace window.
	EventPlayerDisconnected logging.EventType = "lifecycle.player_disconnected"
	// EventPlayerDied is emitted when a player's health reaches zero.
	EventPlayerDied logging.EventType = "lifecycle.player_died"
	// EventPlayerRespawned is emitted when a player re-enters play.
	EventPlayerRespawned logging.EventType = "lifecycle.player_respawned"
	// EventSpectatorEntered is emitted when a player runs out of lives.
	EventSpectatorEntered logging.EventType = "lifecycle.spectator_entered"
)

// DeathPayload records who caused the death and how many lives remain.
type DeathPayload struct {
	SourceID       string `json:"sourceId"`
	RemainingLives int    `json:"remainingLives"`
}

// PlayerJoined publishes a join event.
func PlayerJoined(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPlayerJoined,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
	}
	pub.Publish(ctx, event)
}

// PlayerDisconnected publishes a disconnect event.
func PlayerDisconnected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPlayerDisconnected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
	}
	pub.Publish(ctx, event)
}

// PlayerDied publishes a death event.
func PlayerDied(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, sourceID string, lives int) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPlayerDied,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  DeathPayload{SourceID: sourceID, RemainingLives: lives},
	}
	pub.Publish(ctx, event)
}

// PlayerRespawned publishes a respawn event.
func PlayerRespawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPlayerRespawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
	}
	pub.Publish(ctx, event)
}

// SpectatorEntered publishes a spectator transition event.
func SpectatorEntered(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSpectatorEntered,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
	}
	pub.Publish(ctx, event)
}
