package server

import "encoding/json"

// LootDrop is a weapon lying in the world, created on mob death and destroyed
// on pickup.
type LootDrop struct {
	ID     string `json:"id"`
	Pos    Vec3   `json:"pos"`
	Weapon Weapon `json:"weapon"`
}

// clientMessage is the single inbound envelope; Type discriminates. Move is
// [right, jump, back]; Aim is a unit vector. Unknown types are ignored.
type clientMessage struct {
	Type   string          `json:"type"`
	Move   [3]float64      `json:"move"`
	Aim    [3]float64      `json:"aim"`
	Firing bool            `json:"firing"`
	SentAt int64           `json:"t"`
	LootID string          `json:"lootId"`
	ItemID string          `json:"itemId"`
	Level  string          `json:"level"`
	Data   json.RawMessage `json:"data"`
}

// helloMessage answers a successful join on the new session only.
type helloMessage struct {
	Ver        int        `json:"ver"`
	Type       string     `json:"type"`
	ID         string     `json:"id"`
	Now        int64      `json:"now"`
	Player     Player     `json:"player"`
	Difficulty Difficulty `json:"difficulty"`
}

// snapshotMessage is the per-tick full-state broadcast.
type snapshotMessage struct {
	Ver        int        `json:"ver"`
	Type       string     `json:"type"`
	ServerTime int64      `json:"t"`
	Tick       uint64     `json:"tick"`
	Difficulty Difficulty `json:"difficulty"`
	Players    []Player   `json:"players"`
	Mobs       []Mob      `json:"mobs"`
	Loot       []LootDrop `json:"loot"`
}

// Discrete event messages. All carry Type "event" plus an Event discriminator
// so clients can switch on a single field.

type shotEvent struct {
	Ver      int    `json:"ver"`
	Type     string `json:"type"`
	Event    string `json:"event"`
	PlayerID string `json:"playerId"`
	Origin   Vec3   `json:"origin"`
	Dir      Vec3   `json:"dir"`
}

type hitEvent struct {
	Ver        int     `json:"ver"`
	Type       string  `json:"type"`
	Event      string  `json:"event"`
	AttackerID string  `json:"attackerId"`
	TargetID   string  `json:"targetId"`
	Damage     float64 `json:"damage"`
	Crit       bool    `json:"crit"`
}

type damageEvent struct {
	Ver      int     `json:"ver"`
	Type     string  `json:"type"`
	Event    string  `json:"event"`
	TargetID string  `json:"targetId"`
	SourceID string  `json:"sourceId"`
	Damage   float64 `json:"damage"`
	Health   float64 `json:"hp"`
}

type killEvent struct {
	Ver      int     `json:"ver"`
	Type     string  `json:"type"`
	Event    string  `json:"event"`
	KillerID string  `json:"killerId"`
	MobID    string  `json:"mobId"`
	MobType  MobType `json:"mobType"`
}

type lootDropEvent struct {
	Ver   int      `json:"ver"`
	Type  string   `json:"type"`
	Event string   `json:"event"`
	Loot  LootDrop `json:"loot"`
}

type pickupEvent struct {
	Ver      int    `json:"ver"`
	Type     string `json:"type"`
	Event    string `json:"event"`
	PlayerID string `json:"playerId"`
	LootID   string `json:"lootId"`
	Weapon   Weapon `json:"weapon"`
}

type equipEvent struct {
	Ver      int    `json:"ver"`
	Type     string `json:"type"`
	Event    string `json:"event"`
	PlayerID string `json:"playerId"`
	ItemID   string `json:"itemId"`
}

type playerDeathEvent struct {
	Ver      int    `json:"ver"`
	Type     string `json:"type"`
	Event    string `json:"event"`
	PlayerID string `json:"playerId"`
	SourceID string `json:"sourceId"`
	Lives    int    `json:"lives"`
}

type playerRespawnEvent struct {
	Ver      int    `json:"ver"`
	Type     string `json:"type"`
	Event    string `json:"event"`
	PlayerID string `json:"playerId"`
	Pos      Vec3   `json:"pos"`
}

type spectatorEvent struct {
	Ver      int    `json:"ver"`
	Type     string `json:"type"`
	Event    string `json:"event"`
	PlayerID string `json:"playerId"`
	Until    int64  `json:"until"`
}

type difficultyEvent struct {
	Ver        int        `json:"ver"`
	Type       string     `json:"type"`
	Event      string     `json:"event"`
	Difficulty Difficulty `json:"difficulty"`
}
