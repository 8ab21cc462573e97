package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Manifest is the TOML description of one merge job:
//
//	format = "JSON_ARRAY"
//	output = "merged.json"
//	inputs = [
//	  "https://example.com/chunk-0.json",
//	  "https://example.com/chunk-1.json",
//	]
type Manifest struct {
	Format string   `toml:"format"`
	Output string   `toml:"output"`
	Inputs []string `toml:"inputs"`
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}
