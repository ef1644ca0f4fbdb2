package server

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"
	"math"
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"dustveil/server/logging"
	loggingsimulation "dustveil/server/logging/simulation"
)

// broadcastSender delivers outbound payloads to every attached session.
// Implemented by the Hub; the room never reads anything back from it.
type broadcastSender interface {
	Broadcast(payload any)
}

// RoomConfig carries the per-room tuning resolved at construction time.
type RoomConfig struct {
	TickRate   int
	Seed       string
	Difficulty Difficulty
	Terrain    Terrain
}

func (c RoomConfig) normalized() RoomConfig {
	if c.TickRate <= 0 {
		c.TickRate = defaultTickRate
	}
	if c.Seed == "" {
		c.Seed = uuid.NewString()
	}
	if c.Difficulty == "" {
		c.Difficulty = DifficultyNormal
	}
	return c
}

type commandKind int

const (
	cmdJoin commandKind = iota
	cmdLeave
	cmdInput
	cmdPickup
	cmdEquip
	cmdSetDifficulty
	cmdAnalytics
)

// inputIntent is the clamped movement/aim/firing payload for one player.
type inputIntent struct {
	forward float64
	right   float64
	aim     Vec3
	firing  bool
	jump    bool
}

type joinResult struct {
	player     Player
	difficulty Difficulty
}

// roomCommand funnels every external mutation through the room goroutine.
type roomCommand struct {
	kind      commandKind
	playerID  string
	name      string
	input     *inputIntent
	lootID    string
	itemID    string
	level     Difficulty
	analytics json.RawMessage
	joined    chan joinResult
}

// Room owns the authoritative simulation state for one match. A single
// goroutine (run) performs all mutation; external callers enqueue commands.
type Room struct {
	id       string
	cfg      RoomConfig
	interval time.Duration
	seed     string
	rng      *rand.Rand
	terrain  Terrain

	difficulty    Difficulty
	difficultyCfg difficultyConfig

	players map[string]*playerState
	mobs    map[string]*mobState
	loot    map[string]*LootDrop

	tick      uint64
	tickCount atomic.Uint64 // mirrors tick for off-goroutine readers
	lastTick  time.Time
	mobSeq    uint64
	nextNum   uint64

	publisher logging.Publisher
	telemetry *telemetryCounters
	sender    broadcastSender

	commands chan roomCommand
}

// NewRoom constructs an idle room. The simulation loop is started by the hub
// when the first connection arrives.
func NewRoom(id string, cfg RoomConfig, sender broadcastSender, publisher logging.Publisher, telemetry *telemetryCounters) *Room {
	cfg = cfg.normalized()
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	if telemetry == nil {
		telemetry = newTelemetryCounters()
	}

	interval := time.Second / time.Duration(cfg.TickRate)
	if interval < minTickInterval {
		interval = minTickInterval
	}

	terrain := cfg.Terrain
	if terrain == nil {
		terrain = newHeightField(seedToInt(cfg.Seed))
	}

	level, levelCfg := difficultyFor(cfg.Difficulty)

	return &Room{
		id:            id,
		cfg:           cfg,
		interval:      interval,
		seed:          cfg.Seed,
		rng:           rand.New(rand.NewSource(seedToInt(cfg.Seed))),
		terrain:       terrain,
		difficulty:    level,
		difficultyCfg: levelCfg,
		players:       make(map[string]*playerState),
		mobs:          make(map[string]*mobState),
		loot:          make(map[string]*LootDrop),
		publisher:     publisher,
		telemetry:     telemetry,
		sender:        sender,
		commands:      make(chan roomCommand, 256),
	}
}

// CurrentTick reports the last completed tick. Safe from any goroutine.
func (r *Room) CurrentTick() uint64 {
	return r.tickCount.Load()
}

func seedToInt(seed string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(seed))
	return int64(hasher.Sum64())
}

// run drives the room until stop closes. Ticks fire on the wall-clock
// interval regardless of message arrival; commands are applied between ticks.
func (r *Room) run(stop <-chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case cmd := <-r.commands:
			r.apply(cmd, time.Now())
		case now := <-ticker.C:
			r.step(now)
		}
	}
}

// enqueue hands a command to the room goroutine. Intent-style commands are
// droppable under pressure; the telemetry counter records drops.
func (r *Room) enqueue(cmd roomCommand) {
	select {
	case r.commands <- cmd:
	default:
		r.telemetry.IncrementDroppedCommands()
		log.Printf("room %s: command queue full, dropping kind=%d for %s", r.id, cmd.kind, cmd.playerID)
	}
}

// enqueueWait blocks until the room accepts the command. Used for joins,
// which carry a reply channel and must not be dropped.
func (r *Room) enqueueWait(cmd roomCommand) {
	r.commands <- cmd
}

func (r *Room) apply(cmd roomCommand, now time.Time) {
	switch cmd.kind {
	case cmdJoin:
		r.applyJoin(cmd, now)
	case cmdLeave:
		if player, ok := r.players[cmd.playerID]; ok {
			player.disconnectedAt = now
		}
	case cmdInput:
		r.applyInput(cmd.playerID, cmd.input, now)
	case cmdPickup:
		r.applyPickup(cmd.playerID, cmd.lootID, now)
	case cmdEquip:
		r.applyEquip(cmd.playerID, cmd.itemID)
	case cmdSetDifficulty:
		r.applyDifficulty(cmd.level)
	case cmdAnalytics:
		r.forwardAnalytics(cmd.playerID, cmd.analytics)
	}
}

func (r *Room) applyJoin(cmd roomCommand, now time.Time) {
	player, ok := r.players[cmd.playerID]
	if ok {
		// Resume within the retention window keeps inventory and position.
		player.disconnectedAt = time.Time{}
	} else {
		player = r.createPlayer(cmd.playerID, cmd.name, now)
		r.players[player.ID] = player
	}
	if cmd.joined != nil {
		cmd.joined <- joinResult{player: player.snapshot(now), difficulty: r.difficulty}
	}
}

func (r *Room) createPlayer(id, name string, now time.Time) *playerState {
	r.nextNum++
	if id == "" {
		id = fmt.Sprintf("player-%d", r.nextNum)
	}
	if name == "" {
		name = id
	}

	starter := RollGun(fmt.Sprintf("%s_%d", id, now.UnixNano()))
	player := &playerState{
		Player: Player{
			ID:        id,
			Name:      name,
			Health:    playerMaxHealth,
			MaxHealth: playerMaxHealth,
			Lives:     playerMaxLives,
			Lifecycle: LifecycleAlive,
		},
		equippedIdx: -1,
	}
	player.addWeapon(starter)
	player.equip(starter.Seed)
	player.Pos = r.chooseSpawnPoint()
	player.invulnUntil = now.Add(invulnWindow)
	player.lastGrounded = now
	player.onGround = true
	return player
}

// applyInput writes clamped intent onto the sender's own record. The trust
// boundary lives in the hub, but the clamps are re-applied here so a room
// can never be wedged by out-of-range numbers.
func (r *Room) applyInput(playerID string, input *inputIntent, now time.Time) {
	player, ok := r.players[playerID]
	if !ok || input == nil {
		return
	}
	if player.Lifecycle == LifecycleDead {
		player.firing = false
		return
	}

	player.intentForward = clamp(input.forward, -1, 1)
	player.intentRight = clamp(input.right, -1, 1)
	if aim := input.aim.Normalized(); aim.Length() > 0 {
		player.aim = aim
	}

	if player.Lifecycle != LifecycleAlive {
		// Spectators keep free-look but nothing else.
		player.intentForward = 0
		player.intentRight = 0
		player.firing = false
		return
	}

	player.firing = input.firing
	if input.jump && !player.jumpHeld {
		player.jumpQueued = true
		player.jumpQueuedAt = now
	}
	player.jumpHeld = input.jump
}

func (r *Room) applyPickup(playerID, lootID string, now time.Time) {
	player, ok := r.players[playerID]
	if !ok || player.Lifecycle != LifecycleAlive {
		return
	}
	drop, ok := r.loot[lootID]
	if !ok {
		return // already claimed; legitimate race across tick boundaries
	}
	if horizontalDistance(player.Pos, drop.Pos) > lootPickupRadius {
		return
	}
	delete(r.loot, lootID)
	player.addWeapon(drop.Weapon)
	r.emitPickup(player, *drop)
}

func (r *Room) applyEquip(playerID, itemID string) {
	player, ok := r.players[playerID]
	if !ok || player.Lifecycle != LifecycleAlive {
		return
	}
	if player.equip(itemID) {
		r.emitEquip(player, itemID)
	}
}

func (r *Room) applyDifficulty(level Difficulty) {
	resolved, cfg := difficultyFor(level)
	if resolved == r.difficulty {
		return
	}
	r.difficulty = resolved
	r.difficultyCfg = cfg
	r.emitDifficulty(resolved)
	loggingsimulation.DifficultyChanged(context.Background(), r.publisher, r.tick, string(resolved))
	r.trimMobsToCap()
}

// trimMobsToCap enforces a lowered cap by insertion-order truncation: the
// earliest-inserted mobs survive, the newest surplus is deleted. No attempt
// is made to pick the weakest.
func (r *Room) trimMobsToCap() {
	surplus := len(r.mobs) - r.difficultyCfg.MobCap
	if surplus <= 0 {
		return
	}
	ordered := make([]*mobState, 0, len(r.mobs))
	for _, mob := range r.mobs {
		ordered = append(ordered, mob)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].insertSeq < ordered[j].insertSeq
	})
	for _, mob := range ordered[len(ordered)-surplus:] {
		delete(r.mobs, mob.ID)
	}
}

// forwardAnalytics pushes client analytics across the logging boundary.
// Fire-and-forget: a full queue or failing sink never affects gameplay.
func (r *Room) forwardAnalytics(playerID string, data json.RawMessage) {
	if len(data) == 0 {
		return
	}
	r.publisher.Publish(context.Background(), logging.Event{
		Type:     logging.EventType("analytics.client"),
		Tick:     r.tick,
		Actor:    r.playerRef(playerID),
		Severity: logging.SeverityInfo,
		Category: logging.CategorySystem,
		Payload:  data,
	})
}

// step advances the room by one tick: lazy deadlines, spawn cadence, a whole
// number of fixed sub-steps, then one snapshot broadcast.
func (r *Room) step(now time.Time) {
	started := time.Now()
	r.tick++
	r.tickCount.Store(r.tick)

	r.prunePlayers(now)
	r.advanceLifecycles(now)

	if r.tick%r.difficultyCfg.SpawnInterval == 0 && len(r.mobs) < r.difficultyCfg.MobCap {
		r.spawnMob(now)
	}

	elapsed := r.interval
	if !r.lastTick.IsZero() {
		elapsed = now.Sub(r.lastTick)
	}
	if elapsed > maxTickDelta {
		elapsed = maxTickDelta
	}
	if elapsed <= 0 {
		elapsed = r.interval
	}
	r.lastTick = now

	total := elapsed.Seconds()
	steps := int(math.Ceil(total / subStepNominal))
	if steps < 1 {
		steps = 1
	}
	dt := total / float64(steps)

	// Players integrate before mobs so mobs react to updated positions.
	for i := 0; i < steps; i++ {
		for _, player := range r.players {
			r.stepPlayer(player, now, dt)
		}
		for _, mob := range r.mobs {
			r.stepMob(mob, now, dt)
		}
	}

	r.broadcastSnapshot(now)
	r.telemetry.RecordTickDuration(time.Since(started))
}

// prunePlayers drops records whose reconnection grace expired. Deadlines are
// checked here rather than scheduled per player.
func (r *Room) prunePlayers(now time.Time) {
	for id, player := range r.players {
		if player.disconnectedAt.IsZero() {
			continue
		}
		if now.Sub(player.disconnectedAt) > retentionWindow {
			delete(r.players, id)
		}
	}
}

// advanceLifecycles runs the dead->alive and spectator->alive deadline
// transitions.
func (r *Room) advanceLifecycles(now time.Time) {
	for _, player := range r.players {
		switch player.Lifecycle {
		case LifecycleDead:
			if !player.respawnAt.IsZero() && !now.Before(player.respawnAt) {
				r.respawnPlayer(player, now)
			}
		case LifecycleSpectator:
			if !player.spectatorUntil.IsZero() && !now.Before(player.spectatorUntil) {
				player.Lives = playerMaxLives
				r.respawnPlayer(player, now)
			}
		}
	}
}

// spawnMob places one mob on a ring 20-40 units from map center, re-picking
// up to four times when a live player sits within the clear radius. Best
// effort only.
func (r *Room) spawnMob(now time.Time) {
	var pos Vec3
	for attempt := 0; attempt <= spawnPlacementTries; attempt++ {
		angle := r.rng.Float64() * 2 * math.Pi
		radius := spawnRingMin + r.rng.Float64()*(spawnRingMax-spawnRingMin)
		pos = Vec3{X: math.Cos(angle) * radius, Z: math.Sin(angle) * radius}

		clear := true
		for _, player := range r.players {
			if player.Lifecycle == LifecycleAlive && horizontalDistance(player.Pos, pos) < spawnClearRadius {
				clear = false
				break
			}
		}
		if clear {
			break
		}
	}

	mobType, ok := r.rollMobType()
	if !ok {
		return
	}
	params := mobParams(mobType)
	pos.Y = r.terrain.HeightAt(pos.X, pos.Z)

	r.mobSeq++
	mob := &mobState{
		Mob: Mob{
			ID:        "mob-" + uuid.NewString(),
			Type:      mobType,
			Pos:       pos,
			Health:    params.MaxHealth,
			MaxHealth: params.MaxHealth,
			Mode:      ModePatrol,
		},
		onGround:  true,
		insertSeq: r.mobSeq,
	}
	r.mobs[mob.ID] = mob

	loggingsimulation.MobSpawned(context.Background(), r.publisher, r.tick,
		r.mobRef(mob.ID), string(mobType))
}

// rollMobType draws from the fixed weight table restricted to the types the
// active difficulty enables.
func (r *Room) rollMobType() (MobType, bool) {
	total := 0
	for _, mobType := range r.difficultyCfg.EnabledMobTypes {
		total += mobParams(mobType).SpawnWeight
	}
	if total <= 0 {
		return "", false
	}
	pick := r.rng.Intn(total)
	for _, mobType := range r.difficultyCfg.EnabledMobTypes {
		pick -= mobParams(mobType).SpawnWeight
		if pick < 0 {
			return mobType, true
		}
	}
	return r.difficultyCfg.EnabledMobTypes[0], true
}

// damagePlayer applies damage with the hp floor and runs the death
// transition when hp reaches zero.
func (r *Room) damagePlayer(target *playerState, damage float64, sourceID string, now time.Time) {
	if target.Lifecycle != LifecycleAlive || target.invulnerableAt(now) {
		return
	}
	target.applyHealthDelta(-damage)
	r.emitDamage(target, sourceID, damage)
	if target.Health > 0 {
		return
	}

	target.Lives--
	target.firing = false
	r.emitPlayerDeath(target, sourceID)

	if target.Lives > 0 {
		target.Lifecycle = LifecycleDead
		target.respawnAt = now.Add(respawnDelay)
		return
	}
	// Out of lives: straight to spectator, no respawn scheduled.
	target.Lifecycle = LifecycleSpectator
	target.spectatorUntil = now.Add(spectatorDuration)
	r.emitSpectator(target, target.spectatorUntil)
}

// respawnPlayer re-enters the alive state at the corner farthest from the
// mob population, with fresh vitals and a new invulnerability window.
func (r *Room) respawnPlayer(player *playerState, now time.Time) {
	player.Lifecycle = LifecycleAlive
	player.respawnAt = time.Time{}
	player.spectatorUntil = time.Time{}

	player.Pos = r.chooseSpawnPoint()
	player.Vel = Vec3{}
	player.Health = player.MaxHealth
	player.intentForward = 0
	player.intentRight = 0
	player.firing = false
	player.jumpQueued = false
	player.jumpHeld = false
	player.onGround = true
	player.lastGrounded = now
	player.invulnUntil = now.Add(invulnWindow)

	// Shove any mob camping the spawn radially outward.
	for _, mob := range r.mobs {
		gap := horizontalDistance(mob.Pos, player.Pos)
		if gap >= respawnPushRadius {
			continue
		}
		away := Vec3{X: mob.Pos.X - player.Pos.X, Z: mob.Pos.Z - player.Pos.Z}.Normalized()
		if away.Length() == 0 {
			away = Vec3{X: 1}
		}
		mob.Pos = player.Pos.Add(away.Scale(respawnPushRadius))
		mob.Pos.Y = r.terrain.HeightAt(mob.Pos.X, mob.Pos.Z)
	}

	r.emitPlayerRespawn(player)
}

// chooseSpawnPoint picks the map corner maximizing the minimum distance to
// any live mob.
func (r *Room) chooseSpawnPoint() Vec3 {
	best := Vec3{X: playerSpawnCorners[0][0], Z: playerSpawnCorners[0][1]}
	bestScore := -1.0
	for _, corner := range playerSpawnCorners {
		candidate := Vec3{X: corner[0], Z: corner[1]}
		score := math.MaxFloat64
		for _, mob := range r.mobs {
			if dist := horizontalDistance(mob.Pos, candidate); dist < score {
				score = dist
			}
		}
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	best.Y = r.terrain.HeightAt(best.X, best.Z)
	return best
}

// killMob removes a mob the instant it dies and rolls the loot drop.
func (r *Room) killMob(mob *mobState, killerID string, now time.Time) {
	if _, ok := r.mobs[mob.ID]; !ok {
		return
	}
	delete(r.mobs, mob.ID)
	r.emitKill(mob, killerID)

	if r.rng.Float64() >= lootDropChance {
		return
	}
	lootID := uuid.NewString()
	drop := &LootDrop{
		ID:     lootID,
		Pos:    mob.Pos,
		Weapon: RollGun(fmt.Sprintf("%s_%s", r.seed, lootID)),
	}
	r.loot[lootID] = drop
	r.emitLootDrop(drop)
}

// broadcastSnapshot emits the once-per-tick full state message.
func (r *Room) broadcastSnapshot(now time.Time) {
	players := make([]Player, 0, len(r.players))
	for _, player := range r.players {
		players = append(players, player.snapshot(now))
	}
	mobs := make([]Mob, 0, len(r.mobs))
	for _, mob := range r.mobs {
		mobs = append(mobs, mob.snapshot())
	}
	loot := make([]LootDrop, 0, len(r.loot))
	for _, drop := range r.loot {
		loot = append(loot, *drop)
	}

	r.sender.Broadcast(snapshotMessage{
		Ver:        ProtocolVersion,
		Type:       "snapshot",
		ServerTime: now.UnixMilli(),
		Tick:       r.tick,
		Difficulty: r.difficulty,
		Players:    players,
		Mobs:       mobs,
		Loot:       loot,
	})
	r.telemetry.RecordBroadcastEntities(len(players) + len(mobs) + len(loot))
}
