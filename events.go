package server

import (
	"context"
	"time"

	"dustveil/server/logging"
	loggingcombat "dustveil/server/logging/combat"
	loggingeconomy "dustveil/server/logging/economy"
	logginglifecycle "dustveil/server/logging/lifecycle"
)

// Event emitters pair each discrete broadcast with a structured log event.
// Broadcasting never reads back into the simulation.

func (r *Room) playerRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindPlayer}
}

func (r *Room) mobRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindMob}
}

func (r *Room) emitShot(shooter *playerState, origin, dir Vec3) {
	r.sender.Broadcast(shotEvent{
		Ver: ProtocolVersion, Type: "event", Event: "shot",
		PlayerID: shooter.ID, Origin: origin, Dir: dir,
	})
}

func (r *Room) emitHit(attackerID, targetID string, damage float64, crit bool) {
	r.sender.Broadcast(hitEvent{
		Ver: ProtocolVersion, Type: "event", Event: "hit",
		AttackerID: attackerID, TargetID: targetID, Damage: damage, Crit: crit,
	})
	loggingcombat.DamageDealt(context.Background(), r.publisher, r.tick,
		r.playerRef(attackerID),
		logging.EntityRef{ID: targetID, Kind: logging.EntityKindUnknown},
		loggingcombat.DamagePayload{Damage: damage, Crit: crit})
}

func (r *Room) emitDamage(target *playerState, sourceID string, damage float64) {
	r.sender.Broadcast(damageEvent{
		Ver: ProtocolVersion, Type: "event", Event: "damage",
		TargetID: target.ID, SourceID: sourceID, Damage: damage, Health: target.Health,
	})
}

func (r *Room) emitKill(mob *mobState, killerID string) {
	r.sender.Broadcast(killEvent{
		Ver: ProtocolVersion, Type: "event", Event: "kill",
		KillerID: killerID, MobID: mob.ID, MobType: mob.Type,
	})
	loggingcombat.Kill(context.Background(), r.publisher, r.tick,
		r.playerRef(killerID), r.mobRef(mob.ID), string(mob.Type))
}

func (r *Room) emitLootDrop(drop *LootDrop) {
	r.sender.Broadcast(lootDropEvent{
		Ver: ProtocolVersion, Type: "event", Event: "lootDrop", Loot: *drop,
	})
	loggingeconomy.LootDropped(context.Background(), r.publisher, r.tick,
		logging.EntityRef{ID: drop.ID, Kind: logging.EntityKindLoot},
		loggingeconomy.LootPayload{Seed: drop.Weapon.Seed, Rarity: string(drop.Weapon.Rarity)})
}

func (r *Room) emitPickup(player *playerState, drop LootDrop) {
	r.sender.Broadcast(pickupEvent{
		Ver: ProtocolVersion, Type: "event", Event: "pickup",
		PlayerID: player.ID, LootID: drop.ID, Weapon: drop.Weapon,
	})
	loggingeconomy.LootPickedUp(context.Background(), r.publisher, r.tick,
		r.playerRef(player.ID), drop.ID,
		loggingeconomy.LootPayload{Seed: drop.Weapon.Seed, Rarity: string(drop.Weapon.Rarity)})
}

func (r *Room) emitEquip(player *playerState, itemID string) {
	r.sender.Broadcast(equipEvent{
		Ver: ProtocolVersion, Type: "event", Event: "equip",
		PlayerID: player.ID, ItemID: itemID,
	})
	loggingeconomy.WeaponEquipped(context.Background(), r.publisher, r.tick,
		r.playerRef(player.ID), itemID)
}

func (r *Room) emitPlayerDeath(player *playerState, sourceID string) {
	r.sender.Broadcast(playerDeathEvent{
		Ver: ProtocolVersion, Type: "event", Event: "playerDeath",
		PlayerID: player.ID, SourceID: sourceID, Lives: player.Lives,
	})
	logginglifecycle.PlayerDied(context.Background(), r.publisher, r.tick,
		r.playerRef(player.ID), sourceID, player.Lives)
}

func (r *Room) emitPlayerRespawn(player *playerState) {
	r.sender.Broadcast(playerRespawnEvent{
		Ver: ProtocolVersion, Type: "event", Event: "playerRespawn",
		PlayerID: player.ID, Pos: player.Pos,
	})
	logginglifecycle.PlayerRespawned(context.Background(), r.publisher, r.tick,
		r.playerRef(player.ID))
}

func (r *Room) emitSpectator(player *playerState, until time.Time) {
	r.sender.Broadcast(spectatorEvent{
		Ver: ProtocolVersion, Type: "event", Event: "spectator",
		PlayerID: player.ID, Until: until.UnixMilli(),
	})
	logginglifecycle.SpectatorEntered(context.Background(), r.publisher, r.tick,
		r.playerRef(player.ID))
}

func (r *Room) emitDifficulty(level Difficulty) {
	r.sender.Broadcast(difficultyEvent{
		Ver: ProtocolVersion, Type: "event", Event: "difficulty", Difficulty: level,
	})
}
