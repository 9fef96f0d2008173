//go:build linux

package room

import (
	"fmt"

	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/codec/opus"
	"github.com/pion/mediadevices/pkg/codec/vpx"
	_ "github.com/pion/mediadevices/pkg/driver/camera"
	_ "github.com/pion/mediadevices/pkg/driver/microphone"
	"github.com/pion/mediadevices/pkg/prop"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Visage/internal/domain"
)

// newCodecSelector builds the VP8+Opus selector for local capture
// (V4L2 + malgo underneath). A nil return falls the peer connection
// back to default codecs with no local publishing.
func newCodecSelector() *mediadevices.CodecSelector {
	vpxParams, err := vpx.NewVP8Params()
	if err != nil {
		log.Error().Err(err).Str("module", "room").Msg("vp8 params")
		return nil
	}
	vpxParams.BitRate = 1_500_000 // 1.5 Mbps

	opusParams, err := opus.NewParams()
	if err != nil {
		log.Error().Err(err).Str("module", "room").Msg("opus params")
		return nil
	}

	return mediadevices.NewCodecSelector(
		mediadevices.WithVideoEncoders(&vpxParams),
		mediadevices.WithAudioEncoders(&opusParams),
	)
}

// captureTrack opens one local capture track for the given source.
func captureTrack(selector *mediadevices.CodecSelector, source domain.Source, deviceID string) (mediadevices.Track, error) {
	if selector == nil {
		return nil, fmt.Errorf("no codec selector, local capture unavailable")
	}

	constraints := mediadevices.MediaStreamConstraints{Codec: selector}
	switch source {
	case domain.SourceCamera:
		constraints.Video = func(c *mediadevices.MediaTrackConstraints) {
			if deviceID != "" {
				c.DeviceID = prop.String(deviceID)
			}
			c.Width = prop.Int(1280)
			c.Height = prop.Int(720)
		}
	case domain.SourceMicrophone:
		constraints.Audio = func(c *mediadevices.MediaTrackConstraints) {
			if deviceID != "" {
				c.DeviceID = prop.String(deviceID)
			}
		}
	default:
		return nil, fmt.Errorf("local capture for %s not supported", source)
	}

	stream, err := mediadevices.GetUserMedia(constraints)
	if err != nil {
		return nil, err
	}

	var tracks []mediadevices.Track
	if source == domain.SourceCamera {
		tracks = stream.GetVideoTracks()
	} else {
		tracks = stream.GetAudioTracks()
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("no %s track captured", source)
	}
	return tracks[0], nil
}

func enumerateDevices() ([]domain.DeviceDescriptor, error) {
	infos := mediadevices.EnumerateDevices()
	out := make([]domain.DeviceDescriptor, 0, len(infos))
	for _, d := range infos {
		var kind domain.DeviceKind
		switch d.Kind {
		case mediadevices.VideoInput:
			kind = domain.DeviceVideoInput
		case mediadevices.AudioInput:
			kind = domain.DeviceAudioInput
		case mediadevices.AudioOutput:
			kind = domain.DeviceAudioOutput
		default:
			continue
		}
		out = append(out, domain.DeviceDescriptor{ID: d.DeviceID, Kind: kind, Label: d.Label})
	}
	return out, nil
}
