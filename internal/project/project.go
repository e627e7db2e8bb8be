// ABOUTME: Project snapshot model consumed by the playback engine
// ABOUTME: Defines projects, tracks and clips with their JSON wire names
package project

// Project is an ordered collection of tracks. BPM and TimeSignature are
// metadata only and do not affect scheduling.
type Project struct {
	ID            string  `json:"id"`
	Name          string  `json:"name,omitempty"`
	BPM           float64 `json:"bpm"`
	TimeSignature string  `json:"timeSignature"`
	Tracks        []Track `json:"tracks"`
}

// Track is a mixer channel holding clips
type Track struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Volume float64 `json:"volume"` // linear gain, >= 0
	Pan    float64 `json:"pan"`    // -1 full left .. +1 full right
	Muted  bool    `json:"muted"`
	Solo   bool    `json:"solo"`
	Clips  []Clip  `json:"clips"`
}

// Clip places a region of an audio asset on a track timeline. All times are seconds.
type Clip struct {
	ID           string  `json:"id"`
	StartTime    float64 `json:"startTimeSeconds"`
	EndTime      float64 `json:"endTimeSeconds"`
	SourceOffset float64 `json:"clipOffsetSeconds"`
	AssetRef     string  `json:"assetRef"`
}

// PlayDuration is the length of the clip on the timeline
func (c Clip) PlayDuration() float64 {
	return c.EndTime - c.StartTime
}

// Track returns the track with the given id
func (p *Project) Track(id string) (*Track, bool) {
	for i := range p.Tracks {
		if p.Tracks[i].ID == id {
			return &p.Tracks[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy so callers can hand the snapshot to the engine
// while continuing to edit the original
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := *p
	out.Tracks = CloneTracks(p.Tracks)
	return &out
}

// CloneTracks deep-copies a track list
func CloneTracks(tracks []Track) []Track {
	if tracks == nil {
		return nil
	}
	out := make([]Track, len(tracks))
	for i, t := range tracks {
		out[i] = t
		out[i].Clips = append([]Clip(nil), t.Clips...)
	}
	return out
}

// AssetRefs returns every distinct asset reference in track order
func (p *Project) AssetRefs() []string {
	seen := make(map[string]bool)
	var refs []string
	for _, t := range p.Tracks {
		for _, c := range t.Clips {
			if c.AssetRef == "" || seen[c.AssetRef] {
				continue
			}
			seen[c.AssetRef] = true
			refs = append(refs, c.AssetRef)
		}
	}
	return refs
}
