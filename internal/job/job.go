// Package job orchestrates media jobs: every request runs inside its own
// workspace, from materialized uploads through ffmpeg to the delivered output.
package job

// Kind identifies the type of media job.
type Kind string

const (
	// KindVoiceover mixes delayed audio segments into a video.
	KindVoiceover Kind = "voiceover"
	// KindTextOverlay burns timed captions into a video.
	KindTextOverlay Kind = "text_overlay"
)

// downloadPrefix returns the prefix of the attachment name for kind.
func (k Kind) downloadPrefix() string {
	switch k {
	case KindVoiceover:
		return "processed_"
	case KindTextOverlay:
		return "text_overlay_"
	default:
		return string(k) + "_"
	}
}

// DownloadName returns the attachment file name for a job of kind whose
// sanitized video name is videoName.
func (k Kind) DownloadName(videoName string) string {
	return k.downloadPrefix() + videoName
}

// Output is a finished job result. Path is only valid while the Deliver
// callback that received it runs; the file is removed afterwards.
type Output struct {
	// JobID identifies the job in logs.
	JobID string
	// Kind is the job type.
	Kind Kind
	// Path is the output file inside the job workspace.
	Path string
	// DownloadName is the suggested attachment file name.
	DownloadName string
}

// Deliver hands a finished output to the caller, typically by streaming it
// into an HTTP response.
type Deliver func(out Output) error
