package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iancoleman/orderedmap"
	"github.com/invopop/jsonschema"

	server "dustveil/server"
)

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	schema := buildSchema()

	if err := writeSchema(outPath, schema); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}

	playerSchema := reflector.Reflect(new(server.Player))
	playerSchema.Version = ""
	mobSchema := reflector.Reflect(new(server.Mob))
	mobSchema.Version = ""
	lootSchema := reflector.Reflect(new(server.LootDrop))
	lootSchema.Version = ""

	frame := &jsonschema.Schema{
		Type:        "object",
		Title:       "Snapshot Frame",
		Description: "Full world state broadcast to every session each tick.",
	}
	frame.Properties = orderedmap.New()
	frame.Properties.Set("ver", &jsonschema.Schema{Type: "integer"})
	frame.Properties.Set("type", &jsonschema.Schema{Type: "string"})
	frame.Properties.Set("t", &jsonschema.Schema{Type: "integer", Description: "Server time in unix milliseconds."})
	frame.Properties.Set("tick", &jsonschema.Schema{Type: "integer"})
	frame.Properties.Set("difficulty", &jsonschema.Schema{Type: "string"})
	frame.Properties.Set("players", &jsonschema.Schema{Type: "array", Items: playerSchema})
	frame.Properties.Set("mobs", &jsonschema.Schema{Type: "array", Items: mobSchema})
	frame.Properties.Set("loot", &jsonschema.Schema{Type: "array", Items: lootSchema})

	root := &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "Dustveil Wire Protocol",
		Description: "Snapshot frame broadcast by the room simulation over the websocket transport.",
	}
	root.Properties = orderedmap.New()
	root.Properties.Set("snapshot", frame)

	return root
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
