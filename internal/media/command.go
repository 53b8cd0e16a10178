package media

import "github.com/maauso/mediajobs-api/internal/filtergraph"

// VoiceoverParams describes an audio mixing job.
type VoiceoverParams struct {
	// VideoPath is the primary video, input 0.
	VideoPath string
	// AudioPaths are the segment files; AudioPaths[i] becomes input i+1.
	AudioPaths []string
	// Delays are the segment offsets in seconds, parallel to AudioPaths.
	Delays []float64
	// OutputPath must not exist yet.
	OutputPath string
}

// TextOverlayParams describes a caption burning job.
type TextOverlayParams struct {
	VideoPath  string
	Captions   []filtergraph.Caption
	Style      filtergraph.Style
	OutputPath string
}

// preamble is shared by every invocation: overwrite without asking, never
// read stdin and keep stderr limited to diagnostics.
func preamble() []string {
	return []string{
		"-y",
		"-hide_banner",
		"-nostdin",
		"-loglevel", "error",
	}
}

// BuildVoiceover builds the ffmpeg command that mixes the delayed audio
// segments over the video. The video stream is copied; the mixed audio is
// encoded to AAC. Without segments no filter graph or mapping is emitted
// and the result is a plain copy of the video with re-encoded audio.
func BuildVoiceover(p VoiceoverParams) Command {
	args := preamble()
	args = append(args, "-i", p.VideoPath)
	for _, a := range p.AudioPaths {
		args = append(args, "-i", a)
	}

	if graph := filtergraph.AudioMix(p.Delays); graph != "" {
		args = append(args,
			"-filter_complex", graph,
			"-map", "0:v",
			"-map", filtergraph.MixLabel,
		)
	}

	args = append(args,
		"-c:v", "copy",
		"-c:a", "aac",
		p.OutputPath,
	)

	return Command{Args: args, Output: p.OutputPath}
}

// BuildTextOverlay builds the ffmpeg command that burns captions into the
// video. Audio is copied; the filtered video is re-encoded by ffmpeg's
// default encoder for the output container.
func BuildTextOverlay(p TextOverlayParams) Command {
	args := preamble()
	args = append(args, "-i", p.VideoPath)

	if graph := filtergraph.CaptionOverlay(p.Captions, p.Style); graph != "" {
		args = append(args, "-vf", graph)
	}

	args = append(args,
		"-c:a", "copy",
		p.OutputPath,
	)

	return Command{Args: args, Output: p.OutputPath}
}
