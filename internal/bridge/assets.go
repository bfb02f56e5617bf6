// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/bridge/assets.go
// Summary: Stores inline data-URI payloads as files under assets/.

package bridge

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// AssetsDir is the asset folder inside the data directory.
const AssetsDir = "assets"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SaveAsset decodes a data URI (or bare base64) and writes it to
// assets/<name>_<uuid>.<ext>. The write is serialised with other file writes
// and awaited.
func (n *Native) SaveAsset(encoded, suggestedName string) (AssetResult, error) {
	ext, payload := splitDataURI(encoded)
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return AssetResult{}, fmt.Errorf("bridge: decode asset: %w", err)
	}
	base := unsafeName.ReplaceAllString(suggestedName, "_")
	if base == "" {
		base = "asset"
	}
	file := fmt.Sprintf("%s_%s.%s", base, strings.ReplaceAll(uuid.NewString(), "-", ""), ext)
	path := filepath.Join(n.dir, AssetsDir, file)

	err = n.submit(true, func() error {
		return writeAtomic(path, raw)
	})
	if err != nil {
		n.log.Errorf("Bridge: Asset save error: %v", err)
		return AssetResult{}, fmt.Errorf("bridge: save asset: %w", err)
	}
	n.log.Infof("Bridge: Asset saved: %s", file)
	return AssetResult{Success: true, Path: AssetsDir + "/" + file}, nil
}

// splitDataURI returns the file extension and base64 body of a data URI.
// Input without a header is treated as raw base64 with a "bin" extension.
func splitDataURI(s string) (ext, payload string) {
	ext = "bin"
	header, body, ok := strings.Cut(s, ",")
	if !ok {
		return ext, s
	}
	if _, mime, ok := strings.Cut(header, "/"); ok {
		if sub, _, ok := strings.Cut(mime, ";"); ok && sub != "" {
			ext = unsafeName.ReplaceAllString(sub, "")
		}
	}
	return ext, body
}
