// ABOUTME: Stereo gain law for track mixers
// ABOUTME: Linear balance panning with unity gain at center
package engine

// ChannelGains returns the left and right gains for a track. Pan is
// clamped to [-1, 1] and negative volume is treated as silence.
func ChannelGains(volume, pan float64) (left, right float64) {
	volume = max(volume, 0)
	pan = min(max(pan, -1), 1)

	left = 1 - max(pan, 0)
	right = 1 + min(pan, 0)
	return volume * left, volume * right
}
