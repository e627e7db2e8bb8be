// ABOUTME: Mute and solo policy
// ABOUTME: Decides which tracks are audible when playback starts
package engine

import "github.com/Resonate-Protocol/resonate-daw/internal/project"

// Audible reports whether a track plays given whether any track is soloed.
// While anything is soloed, only soloed tracks play and their mute flag is ignored.
func Audible(t project.Track, anySolo bool) bool {
	if anySolo {
		return t.Solo
	}
	return !t.Muted
}

// AudibleTracks filters tracks down to the ones that should play
func AudibleTracks(tracks []project.Track) []project.Track {
	anySolo := false
	for _, t := range tracks {
		if t.Solo {
			anySolo = true
			break
		}
	}

	var out []project.Track
	for _, t := range tracks {
		if Audible(t, anySolo) {
			out = append(out, t)
		}
	}
	return out
}
