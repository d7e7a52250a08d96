package probe

import (
	"context"
	"fmt"

	"github.com/gen2brain/malgo"

	"github.com/ChrisT3B/beats-repeats-test/internal/shared"
)

// captureFormat needs to stay in sync with the recorder encodings below.
var captureFormat = malgo.FormatS16

// MalgoCapture opens capture sessions through the miniaudio backend. The
// loopback device type captures system audio where the OS supports it; the
// plain capture type is the microphone.
type MalgoCapture struct {
	devType malgo.DeviceType
}

func NewLoopbackCapture() *MalgoCapture {
	return &MalgoCapture{devType: malgo.Loopback}
}

func NewMicrophoneCapture() *MalgoCapture {
	return &MalgoCapture{devType: malgo.Capture}
}

var _ Capture = (*MalgoCapture)(nil)

// Open engages the default device of the configured type. The returned
// session owns both the device and its backend context.
func (c *MalgoCapture) Open(ctx context.Context, cfg Config) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: audio context: %s", shared.ErrCaptureDenied, err)
	}

	channels := cfg.Channels
	if channels < 1 {
		channels = 2
	}

	deviceConfig := malgo.DefaultDeviceConfig(c.devType)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.Capture.Format = captureFormat
	deviceConfig.Capture.Channels = uint32(channels)
	deviceConfig.Alsa.NoMMap = 1

	// The probe only verifies the stream can be engaged; frames are dropped.
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, _ []byte, _ uint32) {},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return nil, fmt.Errorf("%w: %s", shared.ErrCaptureDenied, err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return nil, fmt.Errorf("%w: %s", shared.ErrCaptureDenied, err)
	}

	return &malgoSession{ctx: malgoCtx, device: device, channels: channels}, nil
}

type malgoSession struct {
	ctx      *malgo.AllocatedContext
	device   *malgo.Device
	channels int
}

func (s *malgoSession) Channels() int {
	return s.channels
}

func (s *malgoSession) Close() error {
	s.device.Uninit()
	err := s.ctx.Uninit()
	s.ctx.Free()
	return err
}

// DeviceInfo describes one enumerated audio endpoint.
type DeviceInfo struct {
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

// Devices lists the audio endpoints visible to the backend.
type Devices struct {
	Playback []DeviceInfo `json:"playback"`
	Capture  []DeviceInfo `json:"capture"`
}

// ListDevices enumerates playback and capture endpoints.
func ListDevices() (Devices, error) {
	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return Devices{}, fmt.Errorf("audio context: %w", err)
	}
	defer func() {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
	}()

	playback, err := listEndpoints(malgoCtx, malgo.Playback)
	if err != nil {
		return Devices{}, err
	}
	capture, err := listEndpoints(malgoCtx, malgo.Capture)
	if err != nil {
		return Devices{}, err
	}
	return Devices{Playback: playback, Capture: capture}, nil
}

func listEndpoints(malgoCtx *malgo.AllocatedContext, typ malgo.DeviceType) ([]DeviceInfo, error) {
	devices, err := malgoCtx.Devices(typ)
	if err != nil {
		return nil, err
	}

	seen := make(map[malgo.DeviceID]struct{}, len(devices))
	res := make([]DeviceInfo, 0, len(devices))
	for _, dev := range devices {
		full, err := malgoCtx.DeviceInfo(typ, dev.ID, malgo.Shared)
		if err != nil {
			continue
		}
		if _, ok := seen[full.ID]; ok {
			continue
		}
		seen[full.ID] = struct{}{}
		res = append(res, DeviceInfo{
			Name:    full.Name(),
			Default: full.IsDefault == 1,
		})
	}
	return res, nil
}
