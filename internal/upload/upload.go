// Package upload turns multipart media-job requests into validated job
// parameters and materializes the uploaded files into a workspace.
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"mime/multipart"
	"reflect"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"github.com/maauso/mediajobs-api/internal/filtergraph"
	"github.com/maauso/mediajobs-api/internal/workspace"
)

// Form field names.
const (
	FieldVideo    = "video"
	FieldTextData = "text_data"

	audioFieldPrefix = "audio_"
	delayFieldPrefix = "delay_"
)

// Validation messages returned to clients.
const (
	MsgNoVideo         = "No video file provided"
	MsgNoSegments      = "No audio segments provided"
	MsgNoTextData      = "No text overlay data provided"
	MsgInvalidTextData = "Invalid text overlay data format"
)

// ValidationError reports missing or malformed request input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// SegmentUpload is one audio file together with its playback offset.
type SegmentUpload struct {
	// Index is the numeric suffix of the audio_/delay_ field pair.
	Index int
	// File is the uploaded audio asset.
	File *multipart.FileHeader
	// Delay is the offset in seconds relative to the start of the video.
	Delay float64
}

// WorkspaceName returns the collision-free file name used when the segment
// is materialized.
func (s SegmentUpload) WorkspaceName() string {
	name := SanitizeFilename(s.File.Filename)
	if name == "" {
		name = "audio"
	}
	return fmt.Sprintf("audio_%d_%s", s.Index, name)
}

// VoiceoverForm is a validated add-voiceover request.
type VoiceoverForm struct {
	Video     *multipart.FileHeader
	VideoName string
	Segments  []SegmentUpload
}

// Delays returns the segment offsets in input order.
func (f *VoiceoverForm) Delays() []float64 {
	delays := make([]float64, len(f.Segments))
	for i, s := range f.Segments {
		delays[i] = s.Delay
	}
	return delays
}

// TextOverlayForm is a validated add-text-overlay request.
type TextOverlayForm struct {
	Video     *multipart.FileHeader
	VideoName string
	Captions  []filtergraph.Caption
}

// VideoWorkspaceName returns the file name used for the materialized video.
func VideoWorkspaceName(videoName string) string {
	return "video_" + videoName
}

// ParseVoiceoverForm validates an add-voiceover multipart form.
func ParseVoiceoverForm(form *multipart.Form) (*VoiceoverForm, error) {
	video, err := videoFile(form)
	if err != nil {
		return nil, err
	}

	segments, err := ParseContiguousSegments(form)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, invalid(MsgNoSegments)
	}

	return &VoiceoverForm{
		Video:     video,
		VideoName: outputBaseName(video.Filename),
		Segments:  segments,
	}, nil
}

// ParseTextOverlayForm validates an add-text-overlay multipart form.
func ParseTextOverlayForm(form *multipart.Form) (*TextOverlayForm, error) {
	video, err := videoFile(form)
	if err != nil {
		return nil, err
	}

	var raw string
	if form != nil {
		raw = firstValue(form.Value, FieldTextData)
	}

	captions, err := ParseCaptions(raw)
	if err != nil {
		return nil, err
	}

	return &TextOverlayForm{
		Video:     video,
		VideoName: outputBaseName(video.Filename),
		Captions:  captions,
	}, nil
}

// ParseContiguousSegments scans audio_0/delay_0, audio_1/delay_1, ... and
// stops at the first index where either field is missing. Segments after a
// gap are ignored: audio_0, audio_2 and their delays yield one segment.
//
// A delay that is present but not a finite number >= 0 is a ValidationError.
func ParseContiguousSegments(form *multipart.Form) ([]SegmentUpload, error) {
	if form == nil {
		return nil, nil
	}

	var segments []SegmentUpload
	for i := 0; ; i++ {
		idx := strconv.Itoa(i)
		files := form.File[audioFieldPrefix+idx]
		delays, hasDelay := form.Value[delayFieldPrefix+idx]
		if len(files) == 0 || !hasDelay || len(delays) == 0 {
			return segments, nil
		}

		delay, err := parseDelay(delays[0])
		if err != nil {
			return nil, invalid("Invalid delay for audio segment %d: %v", i, err)
		}

		segments = append(segments, SegmentUpload{
			Index: i,
			File:  files[0],
			Delay: delay,
		})
	}
}

// MaxDelaySeconds is the largest accepted segment offset (24h). It keeps the
// millisecond value written into the filter graph well inside int64.
const MaxDelaySeconds = 24 * 60 * 60

func parseDelay(s string) (float64, error) {
	d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, fmt.Errorf("%q is not finite", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("%q is negative", s)
	}
	if d > MaxDelaySeconds {
		return 0, fmt.Errorf("%q exceeds the maximum of %d seconds", s, MaxDelaySeconds)
	}
	return d, nil
}

// captionData is the wire format of one entry of the text_data field.
type captionData struct {
	Text      string  `json:"text" validate:"required"`
	StartTime float64 `json:"start_time" validate:"gte=0"`
	Duration  float64 `json:"duration" validate:"gt=0"`
	Position  []int   `json:"position" validate:"len=2"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseCaptions decodes and validates the JSON caption list sent in the
// text_data field.
func ParseCaptions(raw string) ([]filtergraph.Caption, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, invalid(MsgNoTextData)
	}

	var data []captionData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, invalid(MsgInvalidTextData)
	}
	if len(data) == 0 {
		return nil, invalid(MsgNoTextData)
	}

	captions := make([]filtergraph.Caption, 0, len(data))
	for i, d := range data {
		if err := validate.Struct(d); err != nil {
			return nil, invalid("%s: caption %d: %s", MsgInvalidTextData, i, describe(err))
		}
		captions = append(captions, filtergraph.Caption{
			Text:      d.Text,
			StartTime: d.StartTime,
			Duration:  d.Duration,
			X:         d.Position[0],
			Y:         d.Position[1],
		})
	}
	return captions, nil
}

// describe renders validator errors as "field must be rule param" phrases.
func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Field() + " must be " + fe.Tag()
		if fe.Param() != "" {
			msg += " " + fe.Param()
		}
		parts = append(parts, msg)
	}
	return strings.Join(parts, ", ")
}

func videoFile(form *multipart.Form) (*multipart.FileHeader, error) {
	if form == nil || len(form.File[FieldVideo]) == 0 {
		return nil, invalid(MsgNoVideo)
	}
	return form.File[FieldVideo][0], nil
}

func firstValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Materializer copies uploaded files into a workspace.
type Materializer struct {
	logger *slog.Logger
}

// NewMaterializer creates a new Materializer.
func NewMaterializer(logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{logger: logger}
}

// Save writes the uploaded file fh into ws under name and returns its path.
func (m *Materializer) Save(ctx context.Context, ws *workspace.Workspace, fh *multipart.FileHeader, name string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", name, err)
	}
	defer func() { _ = src.Close() }()

	path, err := ws.Save(ctx, name, src)
	if err != nil {
		return "", fmt.Errorf("materialize %s: %w", name, err)
	}

	if m.logger.Enabled(ctx, slog.LevelDebug) {
		mime := "unknown"
		if mt, err := mimetype.DetectFile(path); err == nil {
			mime = mt.String()
		}
		m.logger.Debug("upload materialized",
			slog.String("job_id", ws.ID()),
			slog.String("file", name),
			slog.Int64("size", fh.Size),
			slog.String("mime", mime),
		)
	}

	return path, nil
}
