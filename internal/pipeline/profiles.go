package pipeline

// VariantProfile describes one rendition of the adaptive ladder.
type VariantProfile struct {
	Name             string
	Width            int
	Height           int
	VideoBitrateKbps int
	AudioBitrateKbps int
}

// Bandwidth returns the value advertised in the master playlist, in bits
// per second.
func (p VariantProfile) Bandwidth() int {
	return (p.VideoBitrateKbps + p.AudioBitrateKbps) * 1000
}

// EncodingConfig carries the knobs for a single transcode run.
type EncodingConfig struct {
	Profiles          []VariantProfile
	SegmentSeconds    int
	ThumbnailCount    int
	ThumbnailWidth    int
	WatermarkEnabled  bool
	WatermarkFontSize int
}

// DefaultEncodingConfig is the standard three-rung ladder with six second
// segments and five evenly spaced thumbnails.
func DefaultEncodingConfig() EncodingConfig {
	return EncodingConfig{
		Profiles: []VariantProfile{
			{Name: "1080p", Width: 1920, Height: 1080, VideoBitrateKbps: 3000, AudioBitrateKbps: 128},
			{Name: "720p", Width: 1280, Height: 720, VideoBitrateKbps: 1500, AudioBitrateKbps: 128},
			{Name: "480p", Width: 854, Height: 480, VideoBitrateKbps: 700, AudioBitrateKbps: 96},
		},
		SegmentSeconds:    6,
		ThumbnailCount:    5,
		ThumbnailWidth:    640,
		WatermarkFontSize: 24,
	}
}
