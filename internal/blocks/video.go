// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blocks

import (
	"regexp"
	"strings"

	"schoolportal/internal/models"
)

var (
	// bareVideoID is an ID on its own, as pasted from a share dialog.
	bareVideoID = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	// iframeVideoSrc pulls the ID out of pasted <iframe> embed markup.
	iframeVideoSrc = regexp.MustCompile(`src=["'](?:https?:)?//(?:www\.)?youtube(?:-nocookie)?\.com/embed/([^"&?/\s]{11})`)
	// videoURL covers watch?v=, youtu.be, /embed/, /v/, /e/ and /shorts/ links.
	videoURL = regexp.MustCompile(`(?:youtube(?:-nocookie)?\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/|youtube\.com/shorts/)([^"&?/\s]{11})`)
)

// ExtractVideoID returns the 11 character YouTube video ID found in a raw
// URL, a share link, embed markup or a bare ID.
func ExtractVideoID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if bareVideoID.MatchString(s) {
		return s, true
	}
	if m := iframeVideoSrc.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if m := videoURL.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	return "", false
}

// EmbedURL returns the player URL for a video ID.
func EmbedURL(id string) string {
	return "https://www.youtube.com/embed/" + id + "?rel=0&modestbranding=1&autoplay=0"
}

// ThumbnailURL returns the medium quality thumbnail for a video ID.
func ThumbnailURL(id string) string {
	return "https://img.youtube.com/vi/" + id + "/mqdefault.jpg"
}

// PlayableVideo is a playlist entry with its extracted ID.
type PlayableVideo struct {
	models.Video
	VideoID string
}

// Embed returns the player URL.
func (v PlayableVideo) Embed() string { return EmbedURL(v.VideoID) }

// Thumbnail returns the thumbnail URL.
func (v PlayableVideo) Thumbnail() string { return ThumbnailURL(v.VideoID) }

// Playlist orders the videos and drops entries with no recognisable ID.
func Playlist(videos []models.Video) []PlayableVideo {
	var out []PlayableVideo
	for _, v := range ResolveOrdered(videos, 0) {
		id, ok := ExtractVideoID(v.YouTubeURL)
		if !ok {
			continue
		}
		out = append(out, PlayableVideo{Video: v, VideoID: id})
	}
	return out
}
