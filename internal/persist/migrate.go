// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/persist/migrate.go
// Summary: Moves inline image payloads out of the snapshot into asset files.

package persist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/framegrace/texeldesk/desk"
	"github.com/framegrace/texeldesk/internal/bridge"
)

const inlineImagePrefix = "data:image/"

// IsInlineImage reports whether src carries a base64 image payload.
func IsInlineImage(src string) bool {
	return strings.HasPrefix(src, inlineImagePrefix) && strings.Contains(src, ";base64,")
}

// MigrateAssets stores every inline image/gif payload through assets and
// points the item at the returned path. It returns how many items changed;
// when any did the collection is flushed immediately.
func (p *Pipeline) MigrateAssets(ctx context.Context, assets bridge.AssetStore) (int, error) {
	var pending []desk.Item
	for _, it := range p.desk.Items() {
		if (it.Type == desk.TypeImage || it.Type == desk.TypeGIF) && IsInlineImage(it.Src) {
			pending = append(pending, it)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	p.log.Infof("Persist: Migrating %d inline assets", len(pending))
	p.status.Set(StatusMigrating, fmt.Sprintf("%d assets", len(pending)))

	var errs []error
	migrated := 0
	for _, it := range pending {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := assets.SaveAsset(it.Src, it.ID)
		if err != nil || !res.Success {
			if err == nil {
				err = errors.New("asset store reported failure")
			}
			p.log.Warnf("Persist: Asset migration for %s failed: %v", it.ID, err)
			errs = append(errs, fmt.Errorf("migrate %s: %w", it.ID, err))
			continue
		}
		src := it.Src
		err = p.desk.Update(it.ID, func(cur *desk.Item) {
			// Leave items edited during the migration alone.
			if cur.Src == src {
				cur.Src = res.Path
			}
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		migrated++
	}

	if migrated > 0 {
		if err := p.FlushNow(ctx); err != nil {
			errs = append(errs, err)
		}
	} else {
		p.status.Set(StatusError, "asset migration failed")
	}
	return migrated, errors.Join(errs...)
}
