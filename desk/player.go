// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desk/player.go
// Summary: Embedded player capability interfaces and video source parsing.

package desk

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSource is returned when a video item's src yields no video id.
var ErrInvalidSource = errors.New("desk: invalid video source")

// PlayerState is the lifecycle of a player handle.
type PlayerState int

const (
	PlayerUninitialized PlayerState = iota
	PlayerLoading
	PlayerReady
	PlayerError
)

func (s PlayerState) String() string {
	switch s {
	case PlayerLoading:
		return "loading"
	case PlayerReady:
		return "ready"
	case PlayerError:
		return "error"
	default:
		return "uninitialized"
	}
}

// PlaybackState is reported by the player when playback changes.
type PlaybackState int

const (
	PlaybackUnstarted PlaybackState = iota
	PlaybackPlaying
	PlaybackPaused
	PlaybackBuffering
	PlaybackEnded
)

// PlayerOptions are passed to PlayerFactory.Create.
type PlayerOptions struct {
	// Start is the resume position in whole seconds.
	Start int
	// Muted starts the player silent because another item holds focus.
	Muted bool
}

// Player is the capability set the arbiter needs from an embedded player.
// Methods are called with the arbiter's lock held and must not call back into
// the arbiter synchronously.
type Player interface {
	Mute()
	Unmute()
	SetVolume(volume int)
	CurrentTime() (float64, error)
	Destroy()
}

// PlayerFactory creates players for video items. Readiness, playback and
// errors are reported back through MediaArbiter.OnReady, OnStateChange and
// OnError.
type PlayerFactory interface {
	Create(ctx context.Context, itemID, sourceID string, opts PlayerOptions) (Player, error)
}

// Repairer finds an alternate source for a video that refuses to embed.
type Repairer interface {
	Alternate(ctx context.Context, item Item) (string, error)
}

// VideoIDFromURL extracts a YouTube video id from a watch URL, a short link,
// an embed URL, or a bare 11-character id.
func VideoIDFromURL(src string) (string, error) {
	var id string
	switch {
	case strings.Contains(src, "v="):
		id = strings.SplitN(strings.SplitN(src, "v=", 2)[1], "&", 2)[0]
	case strings.Contains(src, "youtu.be/"):
		id = strings.SplitN(strings.SplitN(src, "youtu.be/", 2)[1], "?", 2)[0]
	case strings.Contains(src, "/embed/"):
		id = strings.SplitN(strings.SplitN(src, "/embed/", 2)[1], "?", 2)[0]
	case len(src) == 11:
		id = src
	}
	if id == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSource, src)
	}
	return id, nil
}
