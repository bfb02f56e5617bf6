// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/defaults.go
// Summary: Registers the embedded default configuration with viper.
// The embedded JSON in defaults/ is the single source of truth.

package config

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/viper"

	"github.com/framegrace/texeldesk/defaults"
)

// RegisterDefaults loads the embedded defaults into v without overriding
// anything already read from disk or the environment.
func RegisterDefaults(v *viper.Viper) error {
	data, err := defaults.SystemConfig()
	if err != nil {
		return fmt.Errorf("read embedded defaults: %w", err)
	}
	var tree map[string]interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("parse embedded defaults: %w", err)
	}
	registerSection(v, "", tree)
	return nil
}

func registerSection(v *viper.Viper, prefix string, section map[string]interface{}) {
	for key, value := range section {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			registerSection(v, full, nested)
			continue
		}
		v.SetDefault(full, value)
	}
}
