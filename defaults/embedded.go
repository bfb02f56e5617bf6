// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: defaults/embedded.go
// Summary: Embedded default configuration and the first-run item set.

package defaults

import (
	"embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/framegrace/texeldesk/desk"
)

//go:embed texeldesk.json seed.yaml
var fs embed.FS

// SystemConfig returns the embedded default configuration JSON.
func SystemConfig() ([]byte, error) {
	return fs.ReadFile("texeldesk.json")
}

// SeedYAML returns the raw first-run item set.
func SeedYAML() ([]byte, error) {
	return fs.ReadFile("seed.yaml")
}

// SeedItems parses the first-run item set. Entries go through the item JSON
// decoder so seeds without coordinates are left for the placement engine.
func SeedItems() ([]desk.Item, error) {
	data, err := SeedYAML()
	if err != nil {
		return nil, err
	}
	var doc struct {
		Items []map[string]interface{} `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	raw, err := json.Marshal(doc.Items)
	if err != nil {
		return nil, fmt.Errorf("encode seed: %w", err)
	}
	var items []desk.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return items, nil
}
