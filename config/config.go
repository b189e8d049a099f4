// Package config provides the schema and loader for RABBLE's .rabl
// configuration documents (YAML-compatible, key-grouped files merged into a
// single Config at startup).
package config

import (
	"errors"
	"fmt"
	"sort"
)

// MouthShape selects the parametric waveform family used to draw the mouth.
type MouthShape string

const (
	// ShapeDefault passes normalized audio straight through to the mouth line.
	ShapeDefault MouthShape = "default"

	ShapeSine      MouthShape = "sine"
	ShapeParabolic MouthShape = "parabolic"
	ShapeSaw       MouthShape = "saw"
)

// IsValid reports whether s is a recognised mouth shape.
func (s MouthShape) IsValid() bool {
	switch s {
	case ShapeDefault, ShapeSine, ShapeParabolic, ShapeSaw:
		return true
	}
	return false
}

// CleanupStrategy selects how transcribed segments are post-processed before
// they reach the display feed.
type CleanupStrategy string

const (
	CleanupNone   CleanupStrategy = "none"
	CleanupSimple CleanupStrategy = "simple"
)

// IsValid reports whether c is a recognised cleanup strategy.
func (c CleanupStrategy) IsValid() bool {
	return c == CleanupNone || c == CleanupSimple
}

// RGB is a color triple as written in .rabl files ([r, g, b]).
type RGB [3]uint8

// Config is the root configuration merged from all .rabl documents.
type Config struct {
	Display       DisplayConfig       `yaml:"display_config"`
	Colors        ColorConfig         `yaml:"colors"`
	Face          FaceConfig          `yaml:"face_config"`
	Audio         AudioConfig         `yaml:"audio_config"`
	Waveform      WaveformConfig      `yaml:"waveform_config"`
	Transcription TranscriptionConfig `yaml:"transcription_config"`
	Emotions      map[string]*EmotionProfile `yaml:"emotion_config"`
}

// DisplayConfig holds window geometry and base colors.
type DisplayConfig struct {
	Width           int `yaml:"width"`
	Height          int `yaml:"height"`
	BackgroundColor RGB `yaml:"background_color"`
	TextColor       RGB `yaml:"text_color"`
}

// ColorConfig holds the face color scheme.
type ColorConfig struct {
	EyeColor      RGB `yaml:"eye_color"`
	WaveformColor RGB `yaml:"waveform_color"`
}

// FaceConfig holds face geometry relative to the display center.
type FaceConfig struct {
	EyeRadius    int `yaml:"eye_radius"`
	EyeOffsetX   int `yaml:"eye_offset_x"`
	EyeOffsetY   int `yaml:"eye_offset_y"`
	MouthWidth   int `yaml:"mouth_width"`
	MouthYOffset int `yaml:"mouth_y_offset"`

	// MaxAmplitude bounds the mouth waveform's vertical travel so it never
	// overlaps the eyes.
	MaxAmplitude float64 `yaml:"max_amplitude"`
}

// AudioConfig holds capture device parameters.
type AudioConfig struct {
	ChunkSize  int `yaml:"chunk_size"`
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`

	// GainFactor amplifies the transcription copy of each captured frame.
	// The visualization copy is never amplified.
	GainFactor float64 `yaml:"gain_factor"`
}

// WaveformConfig holds tuning shared by every mouth shape.
type WaveformConfig struct {
	BaseFrequency      float64 `yaml:"base_frequency"`
	BreathingAmplitude float64 `yaml:"breathing_amplitude"`
	LineWidth          int     `yaml:"line_width"`
}

// TranscriptionConfig selects and tunes the speech-to-text pipeline plus the
// word display pacing.
type TranscriptionConfig struct {
	Backend   string `yaml:"backend"` // "whisper" | "fastwhisper" | "fake"
	ModelPath string `yaml:"model_path"`
	Device    string `yaml:"device"` // "cpu" | "gpu"

	VADFilter       bool            `yaml:"vad_filter"`
	IntervalSeconds float64         `yaml:"interval_seconds"`
	OverlapSeconds  float64         `yaml:"overlap_seconds"`
	CleanupStrategy CleanupStrategy `yaml:"cleanup_strategy"`

	ScrollSpeed           float64 `yaml:"scroll_speed"` // pixels per second
	WordDisplayIntervalMs int     `yaml:"word_display_interval_ms"`
	DisplayTextYOffset    int     `yaml:"display_text_y_offset"`
}

// EmotionProfile is a named bundle of animation tuning parameters. Profiles
// are loaded once at startup and treated as immutable afterwards.
type EmotionProfile struct {
	Name                string             `yaml:"-"`
	BlinkInterval       int                `yaml:"blink_interval"` // milliseconds
	MouthShape          MouthShape         `yaml:"mouth_shape"`
	YOffset             float64            `yaml:"y_offset"`
	AmplitudeMultiplier float64            `yaml:"amplitude_multiplier"`
	CycleRate           float64            `yaml:"cycle_rate"`
	ShapeParams         map[string]float64 `yaml:"shape_params"`
}

// Param returns the named shape parameter or def when absent.
func (p *EmotionProfile) Param(name string, def float64) float64 {
	if v, ok := p.ShapeParams[name]; ok {
		return v
	}
	return def
}

// Default returns the compiled-in configuration used as the base layer under
// whatever the .rabl files supply.
func Default() *Config {
	return &Config{
		Display: DisplayConfig{
			Width:           800,
			Height:          600,
			BackgroundColor: RGB{0, 0, 0},
			TextColor:       RGB{255, 255, 255},
		},
		Colors: ColorConfig{
			EyeColor:      RGB{150, 75, 150},
			WaveformColor: RGB{150, 75, 150},
		},
		Face: FaceConfig{
			EyeRadius:    40,
			EyeOffsetX:   120,
			EyeOffsetY:   80,
			MouthWidth:   200,
			MouthYOffset: 100,
			MaxAmplitude: 70,
		},
		Audio: AudioConfig{
			ChunkSize:  2048,
			SampleRate: 16000,
			Channels:   1,
			GainFactor: 1.5,
		},
		Waveform: WaveformConfig{
			BaseFrequency:      1.0,
			BreathingAmplitude: 0.15,
			LineWidth:          4,
		},
		Transcription: TranscriptionConfig{
			Backend:               "fastwhisper",
			Device:                "cpu",
			IntervalSeconds:       0.5,
			OverlapSeconds:        0.1,
			CleanupStrategy:       CleanupSimple,
			ScrollSpeed:           70,
			WordDisplayIntervalMs: 150,
			DisplayTextYOffset:    50,
		},
		Emotions: map[string]*EmotionProfile{
			"IDLE": {
				Name:                "IDLE",
				BlinkInterval:       1000,
				MouthShape:          ShapeSine,
				AmplitudeMultiplier: 40,
				CycleRate:           1.0,
				ShapeParams:         map[string]float64{"sine_frequency": 2},
			},
			"HAPPY": {
				Name:                "HAPPY",
				BlinkInterval:       1000,
				MouthShape:          ShapeParabolic,
				AmplitudeMultiplier: 40,
				CycleRate:           1.0,
				ShapeParams: map[string]float64{
					"parabolic_sine_frequency": 2,
					"curve_direction":          1,
					"amplitude_unit":           30,
				},
			},
			"SAD": {
				Name:                "SAD",
				BlinkInterval:       2000,
				MouthShape:          ShapeParabolic,
				AmplitudeMultiplier: 40,
				CycleRate:           0.5,
				ShapeParams: map[string]float64{
					"parabolic_sine_frequency": 2,
					"curve_direction":          -1,
					"amplitude_unit":           30,
				},
			},
			"ANGRY": {
				Name:                "ANGRY",
				BlinkInterval:       500,
				MouthShape:          ShapeSaw,
				AmplitudeMultiplier: 50,
				CycleRate:           2.0,
				ShapeParams: map[string]float64{
					"saw_frequency":  4,
					"saw_rate":       1,
					"base_amplitude": 30,
				},
			},
		},
	}
}

// EmotionNames returns the profile names in a stable order for cycling.
func (c *Config) EmotionNames() []string {
	names := make([]string, 0, len(c.Emotions))
	for name := range c.Emotions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that c is a coherent configuration. It returns a joined
// error listing every problem found.
func Validate(c *Config) error {
	var errs []error

	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		errs = append(errs, fmt.Errorf("display_config: width/height must be positive, got %dx%d", c.Display.Width, c.Display.Height))
	}
	if c.Face.MouthWidth <= 0 {
		errs = append(errs, fmt.Errorf("face_config: mouth_width must be positive, got %d", c.Face.MouthWidth))
	}
	if c.Face.MaxAmplitude <= 0 {
		errs = append(errs, fmt.Errorf("face_config: max_amplitude must be positive, got %v", c.Face.MaxAmplitude))
	}
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio_config: sample_rate must be positive, got %d", c.Audio.SampleRate))
	}
	if c.Audio.Channels <= 0 {
		errs = append(errs, fmt.Errorf("audio_config: channels must be positive, got %d", c.Audio.Channels))
	}
	if c.Audio.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("audio_config: chunk_size must be positive, got %d", c.Audio.ChunkSize))
	}
	if c.Audio.GainFactor <= 0 {
		errs = append(errs, fmt.Errorf("audio_config: gain_factor must be positive, got %v", c.Audio.GainFactor))
	}

	t := &c.Transcription
	if t.IntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("transcription_config: interval_seconds must be positive, got %v", t.IntervalSeconds))
	}
	if t.OverlapSeconds < 0 || t.OverlapSeconds >= t.IntervalSeconds {
		errs = append(errs, fmt.Errorf("transcription_config: overlap_seconds must be in [0, interval_seconds), got %v", t.OverlapSeconds))
	}
	if !t.CleanupStrategy.IsValid() {
		errs = append(errs, fmt.Errorf("transcription_config: unknown cleanup_strategy %q", t.CleanupStrategy))
	}
	if t.WordDisplayIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("transcription_config: word_display_interval_ms must be positive, got %d", t.WordDisplayIntervalMs))
	}

	if len(c.Emotions) == 0 {
		errs = append(errs, errors.New("emotion_config: at least one emotion profile is required"))
	}
	for name, p := range c.Emotions {
		if p == nil {
			errs = append(errs, fmt.Errorf("emotion_config: %s: empty profile", name))
			continue
		}
		if !p.MouthShape.IsValid() {
			errs = append(errs, fmt.Errorf("emotion_config: %s: unknown mouth_shape %q", name, p.MouthShape))
		}
		if p.BlinkInterval <= 0 {
			errs = append(errs, fmt.Errorf("emotion_config: %s: blink_interval must be positive, got %d", name, p.BlinkInterval))
		}
	}

	return errors.Join(errs...)
}
