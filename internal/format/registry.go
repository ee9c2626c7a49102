// Package format is the single source of truth for which inputs each action
// accepts and which output formats it may produce.
package format

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// ActionKind identifies a conversion or download operation.
type ActionKind string

const (
	// ImageConvert re-encodes an image into another image format.
	ImageConvert ActionKind = "image-convert"
	// VideoToAudio extracts the audio track of a video.
	VideoToAudio ActionKind = "video-to-audio"
	// AudioConvert re-encodes an audio file.
	AudioConvert ActionKind = "audio-convert"
	// VideoConvert remuxes or re-encodes a video into another container.
	VideoConvert ActionKind = "video-convert"
	// ImageEnhance applies the brightness/contrast multiplier to an image.
	ImageEnhance ActionKind = "image-enhance"
	// DocumentConvert converts between PDF and DOCX.
	DocumentConvert ActionKind = "document-convert"
	// RemoteDownload fetches audio or video from a media hosting URL.
	RemoteDownload ActionKind = "remote-download"
)

// ErrUnknownKind is returned by ParseKind for names outside the registry.
var ErrUnknownKind = errors.New("unknown action kind")

var (
	imageInputs = []string{".png", ".jpg", ".jpeg", ".webp", ".bmp", ".gif", ".tif", ".tiff"}
	videoInputs = []string{".mp4", ".avi", ".mov", ".mkv", ".webm", ".flv", ".m4v"}
	audioInputs = []string{".mp3", ".wav", ".ogg", ".flac", ".m4a", ".aac", ".opus"}
)

type entry struct {
	inputs   []string
	outputs  []string
	fallback string
	remote   bool
}

// kinds keeps a stable declaration order for listings.
var kinds = []ActionKind{
	ImageConvert,
	VideoToAudio,
	AudioConvert,
	VideoConvert,
	ImageEnhance,
	DocumentConvert,
	RemoteDownload,
}

var registry = map[ActionKind]entry{
	ImageConvert:    {inputs: imageInputs, outputs: []string{"png", "jpg", "webp"}},
	VideoToAudio:    {inputs: videoInputs, outputs: []string{"mp3"}, fallback: "mp3"},
	AudioConvert:    {inputs: audioInputs, outputs: []string{"mp3", "wav", "ogg"}},
	VideoConvert:    {inputs: videoInputs, outputs: []string{"mp4", "avi", "mov"}},
	ImageEnhance:    {inputs: imageInputs, outputs: []string{"jpg", "png"}, fallback: "jpg"},
	DocumentConvert: {inputs: []string{".pdf", ".docx"}, outputs: []string{"pdf", "docx"}},
	RemoteDownload:  {outputs: []string{"audio", "video"}, fallback: "video", remote: true},
}

var mimeTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"webp": "image/webp",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"m4a":  "audio/mp4",
	"opus": "audio/opus",
	"mp4":  "video/mp4",
	"avi":  "video/x-msvideo",
	"mov":  "video/quicktime",
	"mkv":  "video/x-matroska",
	"webm": "video/webm",
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Kinds returns every registered ActionKind in declaration order.
func Kinds() []ActionKind {
	out := make([]ActionKind, len(kinds))
	copy(out, kinds)
	return out
}

// Valid reports whether k is a registered kind.
func (k ActionKind) Valid() bool {
	_, ok := registry[k]
	return ok
}

// ParseKind converts a wire name such as "image-convert" into an ActionKind.
func ParseKind(s string) (ActionKind, error) {
	k := ActionKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// KindOf is ParseKind for shells: unknown names are returned trimmed so the
// dispatcher reports them as UnsupportedFormat.
func KindOf(s string) ActionKind {
	if k, err := ParseKind(s); err == nil {
		return k
	}
	return ActionKind(strings.TrimSpace(s))
}

// Normalize lower-cases a format name and folds aliases ("JPEG" -> "jpg").
func Normalize(f string) string {
	f = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(f), ".")))
	if f == "jpeg" {
		return "jpg"
	}
	return f
}

// AllowedOutputs returns the output formats legal for kind.
// An unknown kind has no allowed outputs.
func AllowedOutputs(kind ActionKind) []string {
	e, ok := registry[kind]
	if !ok {
		return nil
	}
	out := make([]string, len(e.outputs))
	copy(out, e.outputs)
	return out
}

// Allows reports whether f (in any case or alias) is a legal output for kind.
func Allows(kind ActionKind, f string) bool {
	f = Normalize(f)
	for _, o := range registry[kind].outputs {
		if o == f {
			return true
		}
	}
	return false
}

// DefaultOutput returns the output used when a request leaves the format
// empty, or "" when the caller must choose.
func DefaultOutput(kind ActionKind) string {
	return registry[kind].fallback
}

// AcceptedInputs returns the input extensions accepted by kind. Remote
// download accepts URLs instead and returns nil.
func AcceptedInputs(kind ActionKind) []string {
	e := registry[kind]
	out := make([]string, len(e.inputs))
	copy(out, e.inputs)
	return out
}

// IsAcceptedInput reports whether name is a valid input for kind: a file
// with a registered extension, or an absolute http(s) URL for remote
// download.
func IsAcceptedInput(kind ActionKind, name string) bool {
	e, ok := registry[kind]
	if !ok {
		return false
	}
	if e.remote {
		return isRemote(name)
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, in := range e.inputs {
		if in == ext {
			return true
		}
	}
	return false
}

// Ext returns the normalized format of a file name ("photo.JPEG" -> "jpg").
func Ext(name string) string {
	return Normalize(filepath.Ext(name))
}

// MIMEFor returns the MIME type declared for an output format, or "".
func MIMEFor(f string) string {
	return mimeTypes[Normalize(f)]
}

func isRemote(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
