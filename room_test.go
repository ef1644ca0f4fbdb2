package server

import (
	"fmt"
	"testing"
	"time"
)

type captureSender struct {
	payloads []any
}

func (c *captureSender) Broadcast(payload any) {
	c.payloads = append(c.payloads, payload)
}

func (c *captureSender) snapshots() []snapshotMessage {
	var out []snapshotMessage
	for _, payload := range c.payloads {
		if msg, ok := payload.(snapshotMessage); ok {
			out = append(out, msg)
		}
	}
	return out
}

func newTestRoom(seed string) (*Room, *captureSender) {
	sender := &captureSender{}
	room := NewRoom("room-test", RoomConfig{
		Seed:    seed,
		Terrain: TerrainFunc(func(x, z float64) float64 { return 0 }),
	}, sender, nil, nil)
	return room, sender
}

func addTestPlayer(r *Room, id string, pos Vec3) *playerState {
	player := &playerState{
		Player: Player{
			ID:        id,
			Name:      id,
			Pos:       pos,
			Health:    playerMaxHealth,
			MaxHealth: playerMaxHealth,
			Lives:     playerMaxLives,
			Lifecycle: LifecycleAlive,
		},
		aim:         Vec3{Z: -1},
		onGround:    true,
		equippedIdx: -1,
	}
	r.players[id] = player
	return player
}

func addTestMob(r *Room, id string, mobType MobType, pos Vec3) *mobState {
	params := mobParams(mobType)
	r.mobSeq++
	mob := &mobState{
		Mob: Mob{
			ID:        id,
			Type:      mobType,
			Pos:       pos,
			Health:    params.MaxHealth,
			MaxHealth: params.MaxHealth,
			Mode:      ModePatrol,
		},
		onGround:  true,
		insertSeq: r.mobSeq,
	}
	r.mobs[id] = mob
	return mob
}

func TestSpawnCadenceRespectsCap(t *testing.T) {
	r, _ := newTestRoom("spawn-seed")
	now := time.Unix(100, 0)

	r.tick = r.difficultyCfg.SpawnInterval - 1
	r.step(now)
	if len(r.mobs) != 1 {
		t.Fatalf("expected one mob after spawn tick, got %d", len(r.mobs))
	}

	for i := len(r.mobs); i < r.difficultyCfg.MobCap; i++ {
		addTestMob(r, fmt.Sprintf("filler-%d", i), MobCharger, Vec3{X: 30})
	}
	r.tick = 2*r.difficultyCfg.SpawnInterval - 1
	r.step(now.Add(r.interval))
	if len(r.mobs) != r.difficultyCfg.MobCap {
		t.Fatalf("expected mob count to hold at cap %d, got %d", r.difficultyCfg.MobCap, len(r.mobs))
	}
}

func TestOffCadenceTickDoesNotSpawn(t *testing.T) {
	r, _ := newTestRoom("spawn-seed")
	r.tick = r.difficultyCfg.SpawnInterval // tick becomes interval+1 inside step
	r.step(time.Unix(100, 0))
	if len(r.mobs) != 0 {
		t.Fatalf("expected no spawn off cadence, got %d mobs", len(r.mobs))
	}
}

func TestDifficultyDowngradeTrimsNewestMobs(t *testing.T) {
	r, sender := newTestRoom("trim-seed")
	r.applyDifficulty(DifficultyHard)
	for i := 1; i <= 12; i++ {
		addTestMob(r, fmt.Sprintf("mob-%d", i), MobCharger, Vec3{X: 30})
	}

	r.applyDifficulty(DifficultyEasy)

	easyCap := difficultyTable[DifficultyEasy].MobCap
	if len(r.mobs) != easyCap {
		t.Fatalf("expected %d mobs after downgrade, got %d", easyCap, len(r.mobs))
	}
	for _, mob := range r.mobs {
		if mob.insertSeq > uint64(easyCap) {
			t.Fatalf("expected earliest-inserted mobs to survive, found insertSeq %d", mob.insertSeq)
		}
	}

	found := false
	for _, payload := range sender.payloads {
		if event, ok := payload.(difficultyEvent); ok && event.Difficulty == DifficultyEasy {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a difficulty event for the downgrade")
	}
}

func TestDifficultySameLevelIsNoop(t *testing.T) {
	r, sender := newTestRoom("noop-seed")
	r.applyDifficulty(r.difficulty)
	if len(sender.payloads) != 0 {
		t.Fatalf("expected no broadcast for a same-level request, got %d", len(sender.payloads))
	}
}

func TestDifficultyForFallsBackToNormal(t *testing.T) {
	level, cfg := difficultyFor(Difficulty("impossible"))
	if level != DifficultyNormal {
		t.Fatalf("expected fallback to normal, got %s", level)
	}
	if cfg.MobCap != difficultyTable[DifficultyNormal].MobCap {
		t.Fatalf("expected normal config, got cap %d", cfg.MobCap)
	}
}

func TestEasyDifficultyExcludesTank(t *testing.T) {
	if difficultyTable[DifficultyEasy].allowsMobType(MobTank) {
		t.Fatalf("easy difficulty must not enable tanks")
	}
	if !difficultyTable[DifficultyNightmare].allowsMobType(MobTank) {
		t.Fatalf("nightmare difficulty must enable tanks")
	}
}

func TestKillMobRemovesImmediatelyAndSeedsLoot(t *testing.T) {
	r, sender := newTestRoom("loot-seed")
	now := time.Unix(100, 0)

	for i := 0; i < 200 && len(r.loot) == 0; i++ {
		mob := addTestMob(r, fmt.Sprintf("victim-%d", i), MobSwarm, Vec3{X: 10})
		r.killMob(mob, "player-1", now)
		if _, ok := r.mobs[mob.ID]; ok {
			t.Fatalf("expected dead mob to be removed the same call")
		}
	}
	if len(r.loot) == 0 {
		t.Fatalf("expected at least one loot drop across 200 kills")
	}

	for id, drop := range r.loot {
		expected := RollGun(fmt.Sprintf("%s_%s", r.seed, id))
		if drop.Weapon != expected {
			t.Fatalf("loot weapon not reproducible from room seed and loot id")
		}
	}

	kills := 0
	for _, payload := range sender.payloads {
		if _, ok := payload.(killEvent); ok {
			kills++
		}
	}
	if kills == 0 {
		t.Fatalf("expected kill events to be broadcast")
	}
}

func TestKillMobTwiceIsNoop(t *testing.T) {
	r, sender := newTestRoom("double-kill")
	now := time.Unix(100, 0)
	mob := addTestMob(r, "mob-a", MobCharger, Vec3{X: 10})

	r.killMob(mob, "player-1", now)
	before := len(sender.payloads)
	r.killMob(mob, "player-1", now)
	if len(sender.payloads) != before {
		t.Fatalf("expected second kill of the same mob to emit nothing")
	}
}

func TestLethalDamageWithLivesLeftSchedulesRespawn(t *testing.T) {
	r, _ := newTestRoom("death-seed")
	now := time.Unix(100, 0)
	player := addTestPlayer(r, "p1", Vec3{})

	r.damagePlayer(player, playerMaxHealth, "mob-a", now)

	if player.Lifecycle != LifecycleDead {
		t.Fatalf("expected dead lifecycle, got %s", player.Lifecycle)
	}
	if player.Lives != playerMaxLives-1 {
		t.Fatalf("expected %d lives, got %d", playerMaxLives-1, player.Lives)
	}
	if player.respawnAt.IsZero() {
		t.Fatalf("expected a respawn deadline")
	}

	r.advanceLifecycles(now.Add(respawnDelay))
	if player.Lifecycle != LifecycleAlive {
		t.Fatalf("expected respawn after the delay, got %s", player.Lifecycle)
	}
	if player.Health != player.MaxHealth {
		t.Fatalf("expected full health after respawn, got %v", player.Health)
	}
	if !player.invulnerableAt(now.Add(respawnDelay)) {
		t.Fatalf("expected spawn invulnerability after respawn")
	}
}

func TestLastLifeGoesStraightToSpectator(t *testing.T) {
	r, _ := newTestRoom("spectator-seed")
	now := time.Unix(100, 0)
	player := addTestPlayer(r, "p1", Vec3{})
	player.Lives = 1

	r.damagePlayer(player, playerMaxHealth, "mob-a", now)

	if player.Lifecycle != LifecycleSpectator {
		t.Fatalf("expected spectator lifecycle, got %s", player.Lifecycle)
	}
	if !player.respawnAt.IsZero() {
		t.Fatalf("expected no respawn deadline for a spectator")
	}
	if player.spectatorUntil.IsZero() {
		t.Fatalf("expected a spectator deadline")
	}

	r.advanceLifecycles(now.Add(spectatorDuration))
	if player.Lifecycle != LifecycleAlive {
		t.Fatalf("expected re-entry after spectating, got %s", player.Lifecycle)
	}
	if player.Lives != playerMaxLives {
		t.Fatalf("expected lives reset to %d, got %d", playerMaxLives, player.Lives)
	}
}

func TestInvulnerablePlayerTakesNoDamage(t *testing.T) {
	r, _ := newTestRoom("invuln-seed")
	now := time.Unix(100, 0)
	player := addTestPlayer(r, "p1", Vec3{})
	player.invulnUntil = now.Add(invulnWindow)

	r.damagePlayer(player, 50, "mob-a", now)
	if player.Health != playerMaxHealth {
		t.Fatalf("expected invulnerable player untouched, health=%v", player.Health)
	}
}

func TestRespawnPushesCampingMobs(t *testing.T) {
	r, _ := newTestRoom("camp-seed")
	now := time.Unix(100, 0)
	player := addTestPlayer(r, "p1", Vec3{})
	player.Lifecycle = LifecycleDead
	player.respawnAt = now

	for i, corner := range playerSpawnCorners {
		addTestMob(r, fmt.Sprintf("camper-%d", i), MobCharger, Vec3{X: corner[0], Z: corner[1]})
	}

	r.advanceLifecycles(now)

	for _, mob := range r.mobs {
		if gap := horizontalDistance(mob.Pos, player.Pos); gap < respawnPushRadius-1e-9 {
			t.Fatalf("expected camping mobs pushed to %v units, found %v", respawnPushRadius, gap)
		}
	}
}

func TestDisconnectedPlayerPrunedAfterRetention(t *testing.T) {
	r, _ := newTestRoom("prune-seed")
	now := time.Unix(100, 0)
	player := addTestPlayer(r, "p1", Vec3{})
	player.disconnectedAt = now.Add(-retentionWindow - time.Second)

	r.prunePlayers(now)
	if _, ok := r.players["p1"]; ok {
		t.Fatalf("expected player pruned after the retention window")
	}
}

func TestRejoinWithinRetentionResumesPlayer(t *testing.T) {
	r, _ := newTestRoom("resume-seed")
	now := time.Unix(100, 0)
	player := addTestPlayer(r, "p1", Vec3{X: 12})
	player.addWeapon(RollGun("keepsake"))
	player.disconnectedAt = now.Add(-10 * time.Second)

	joined := make(chan joinResult, 1)
	r.applyJoin(roomCommand{kind: cmdJoin, playerID: "p1", joined: joined}, now)
	result := <-joined

	if !player.disconnectedAt.IsZero() {
		t.Fatalf("expected resume to clear the disconnect deadline")
	}
	if result.player.Pos.X != 12 {
		t.Fatalf("expected resumed position, got %v", result.player.Pos)
	}
	if len(result.player.Inventory) != 1 {
		t.Fatalf("expected resumed inventory, got %d items", len(result.player.Inventory))
	}
}

func TestJoinAssignsStarterWeapon(t *testing.T) {
	r, _ := newTestRoom("join-seed")
	now := time.Unix(100, 0)

	joined := make(chan joinResult, 1)
	r.applyJoin(roomCommand{kind: cmdJoin, playerID: "newbie", name: "Newbie", joined: joined}, now)
	result := <-joined

	if len(result.player.Inventory) != 1 {
		t.Fatalf("expected one starter weapon, got %d", len(result.player.Inventory))
	}
	if result.player.Equipped != result.player.Inventory[0].Seed {
		t.Fatalf("expected the starter weapon equipped")
	}
	if !result.player.Invulnerable {
		t.Fatalf("expected spawn invulnerability on join")
	}
}

func TestPickupRequiresProximity(t *testing.T) {
	r, _ := newTestRoom("pickup-seed")
	now := time.Unix(100, 0)
	player := addTestPlayer(r, "p1", Vec3{})
	r.loot["drop-1"] = &LootDrop{ID: "drop-1", Pos: Vec3{X: lootPickupRadius + 1}, Weapon: RollGun("far")}
	r.loot["drop-2"] = &LootDrop{ID: "drop-2", Pos: Vec3{X: 1}, Weapon: RollGun("near")}

	r.applyPickup("p1", "drop-1", now)
	if _, ok := r.loot["drop-1"]; !ok {
		t.Fatalf("expected out-of-range pickup to be ignored")
	}

	r.applyPickup("p1", "drop-2", now)
	if _, ok := r.loot["drop-2"]; ok {
		t.Fatalf("expected in-range pickup to consume the drop")
	}
	if len(player.Inventory) != 1 || player.Inventory[0].Seed != "near" {
		t.Fatalf("expected picked weapon in inventory, got %v", player.Inventory)
	}
}

func TestPickupOfClaimedDropIsIgnored(t *testing.T) {
	r, sender := newTestRoom("claimed-seed")
	now := time.Unix(100, 0)
	addTestPlayer(r, "p1", Vec3{})

	before := len(sender.payloads)
	r.applyPickup("p1", "never-existed", now)
	if len(sender.payloads) != before {
		t.Fatalf("expected missing drop to produce no events")
	}
}

func TestEquipUnknownItemIgnored(t *testing.T) {
	r, sender := newTestRoom("equip-seed")
	player := addTestPlayer(r, "p1", Vec3{})
	weapon := RollGun("owned")
	player.addWeapon(weapon)

	r.applyEquip("p1", "not-owned")
	if player.Equipped != "" {
		t.Fatalf("expected unknown item request to change nothing")
	}

	r.applyEquip("p1", weapon.Seed)
	if player.Equipped != weapon.Seed {
		t.Fatalf("expected equip to succeed for an owned item")
	}
	equips := 0
	for _, payload := range sender.payloads {
		if _, ok := payload.(equipEvent); ok {
			equips++
		}
	}
	if equips != 1 {
		t.Fatalf("expected exactly one equip event, got %d", equips)
	}
}

func TestJumpQueuesOnRisingEdgeOnly(t *testing.T) {
	r, _ := newTestRoom("input-seed")
	now := time.Unix(100, 0)
	player := addTestPlayer(r, "p1", Vec3{})

	r.applyInput("p1", &inputIntent{jump: true}, now)
	if !player.jumpQueued {
		t.Fatalf("expected first jump press to queue")
	}
	player.jumpQueued = false

	r.applyInput("p1", &inputIntent{jump: true}, now.Add(50*time.Millisecond))
	if player.jumpQueued {
		t.Fatalf("expected held jump not to re-queue")
	}

	r.applyInput("p1", &inputIntent{jump: false}, now.Add(100*time.Millisecond))
	r.applyInput("p1", &inputIntent{jump: true}, now.Add(150*time.Millisecond))
	if !player.jumpQueued {
		t.Fatalf("expected release-then-press to queue again")
	}
}

func TestSpectatorInputKeepsAimOnly(t *testing.T) {
	r, _ := newTestRoom("spectate-input")
	now := time.Unix(100, 0)
	player := addTestPlayer(r, "p1", Vec3{})
	player.Lifecycle = LifecycleSpectator

	r.applyInput("p1", &inputIntent{forward: 1, right: 1, firing: true, aim: Vec3{X: 1}}, now)
	if player.intentForward != 0 || player.intentRight != 0 || player.firing {
		t.Fatalf("expected spectator movement and firing suppressed")
	}
	if player.aim.X != 1 {
		t.Fatalf("expected spectator aim to update, got %v", player.aim)
	}
}

func TestDeadPlayerInputOnlyClearsFiring(t *testing.T) {
	r, _ := newTestRoom("dead-input")
	now := time.Unix(100, 0)
	player := addTestPlayer(r, "p1", Vec3{})
	player.Lifecycle = LifecycleDead
	player.firing = true

	r.applyInput("p1", &inputIntent{forward: 1, firing: true}, now)
	if player.firing {
		t.Fatalf("expected firing cleared while dead")
	}
	if player.intentForward != 0 {
		t.Fatalf("expected movement intent ignored while dead")
	}
}

func TestStepBroadcastsOneSnapshotPerTick(t *testing.T) {
	r, sender := newTestRoom("snapshot-seed")
	addTestPlayer(r, "p1", Vec3{})
	now := time.Unix(100, 0)

	r.step(now)
	r.step(now.Add(r.interval))

	snapshots := sender.snapshots()
	if len(snapshots) != 2 {
		t.Fatalf("expected one snapshot per tick, got %d", len(snapshots))
	}
	last := snapshots[len(snapshots)-1]
	if last.Tick != 2 {
		t.Fatalf("expected tick 2, got %d", last.Tick)
	}
	if last.Difficulty != DifficultyNormal {
		t.Fatalf("expected normal difficulty in snapshot, got %s", last.Difficulty)
	}
	if len(last.Players) != 1 || last.Players[0].ID != "p1" {
		t.Fatalf("expected the joined player in the snapshot")
	}
}

func TestStepClampsLargeElapsedTime(t *testing.T) {
	r, _ := newTestRoom("clamp-seed")
	player := addTestPlayer(r, "p1", Vec3{Y: 5})
	player.onGround = false
	now := time.Unix(100, 0)

	r.step(now)
	r.step(now.Add(10 * time.Second)) // stalled host; integrate at most maxTickDelta

	maxFall := playerTerminalVel * maxTickDelta.Seconds()
	if fallen := 5 - player.Pos.Y; fallen > maxFall+1e-6 {
		t.Fatalf("expected elapsed time clamped to %v, player fell %v units", maxTickDelta, fallen)
	}
}

func TestRoomConfigNormalization(t *testing.T) {
	cfg := RoomConfig{}.normalized()
	if cfg.TickRate != defaultTickRate {
		t.Fatalf("expected default tick rate, got %d", cfg.TickRate)
	}
	if cfg.Seed == "" {
		t.Fatalf("expected a generated seed")
	}
	if cfg.Difficulty != DifficultyNormal {
		t.Fatalf("expected normal difficulty default, got %s", cfg.Difficulty)
	}
}
