package ipc

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/damoonsh/Halite/model"
)

//go:embed schema/game_state.schema.json
var gameStateSchemaJSON []byte

const gameStateSchemaURL = "mem:///game_state.schema.json"

var gameStateSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(gameStateSchemaURL, bytes.NewReader(gameStateSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return c.Compile(gameStateSchemaURL)
})

// DecodeGameState checks a game_state payload against the embedded schema
// and the snapshot invariants before returning it.
func DecodeGameState(raw json.RawMessage) (*model.Snapshot, error) {
	schema, err := gameStateSchema()
	if err != nil {
		return nil, fmt.Errorf("compile game_state schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal game_state: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("game_state schema: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode game_state: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("game_state: %w", err)
	}
	return &snap, nil
}
