package model

// CLIOptions holds user-configurable runtime options as parsed from flags.
type CLIOptions struct {
	OutDir       string
	TargetSizeMB int // Desired output size in MB; must be > 0.
	Resolution   int // Forced output height (360|480|720|1080); 0 = auto.
	AutoClean    bool
	KeepTemp     bool
	Software     bool   // Skip hardware encoder negotiation.
	DLBinary     string // Optional explicit path to yt-dlp/youtube-dl.
	DryRun       bool
	Verbose      bool

	NoUI bool // Disable TUI when true
	Jobs int  // Max concurrent jobs for TUI
}

// SourceMedia describes a resolved input: either a downloaded remote video
// or a local file, plus whatever metadata was obtainable for it.
type SourceMedia struct {
	InputPath   string  // Full path to the media file, empty for metadata-only.
	DurationSec float64 // Seconds; may be 0 if unknown.
	BaseName    string  // Sanitized name the output file derives from.
	Title       string
	ID          string
	Width       int // 0 if unknown
	Height      int // 0 if unknown
	Locator     string // Original URL or local path as given by the user.
	Remote      bool
}

// EncodeOptions carries the fully resolved parameters for one encode attempt.
type EncodeOptions struct {
	VideoKbps        int  // Effective video bitrate after the source clamp.
	TargetHeight     int  // Selected resolution tier.
	Scale            bool // False when the source is at or below the tier.
	AudioBitrateKbps int  // Fixed AAC bitrate.
}

// OutputVideo captures encoding results.
type OutputVideo struct {
	OutputPath      string
	Bytes           int64
	UsedBitrateKbps int
	Encoder         string // ffmpeg encoder id that produced the file.
	FellBack        bool   // True when the hardware attempt failed and libx264 ran.
}
