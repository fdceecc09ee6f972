package command

import (
	"errors"
	"fmt"
	"sort"

	"github.com/openpulsar/pulsarctl/protocol"
)

var (
	ErrValueOutOfRange      = errors.New("command: value out of range")
	ErrUnsupportedByVariant = errors.New("command: setting not supported by this dongle variant")
	ErrUnknownSettingKind   = errors.New("command: unknown setting kind")
)

// Build validates a setting against its domain and the dongle's capabilities
// and returns the frames to transmit, in the exact order the device expects.
// Multi-frame settings (DPI tables, button maps) depend on that order; callers
// must not reorder or interleave them.
func Build(s Setting, desc protocol.Descriptor) ([]protocol.Frame, error) {
	switch v := s.(type) {
	case DPIStage:
		f, err := dpiStageFrame(v.Stage, v.Value)
		if err != nil {
			return nil, err
		}
		return []protocol.Frame{f}, nil

	case DPITable:
		if v.Active < 1 || v.Active > DPIStageCount {
			return nil, fmt.Errorf("%w: active stage %d not in 1..%d", ErrValueOutOfRange, v.Active, DPIStageCount)
		}
		frames := make([]protocol.Frame, 0, DPIStageCount+1)
		for i, value := range v.Stages {
			f, err := dpiStageFrame(i+1, value)
			if err != nil {
				return nil, err
			}
			frames = append(frames, f)
		}
		// Stage select goes last; subcommand 0 distinguishes it from writes.
		sel, err := protocol.Encode(protocol.OpSetDPI, 0x00, []byte{byte(v.Active)})
		if err != nil {
			return nil, err
		}
		return append(frames, sel), nil

	case PollingRate:
		code, ok := pollingRateCodes[v.Hz]
		if !ok {
			return nil, fmt.Errorf("%w: polling rate %d Hz", ErrValueOutOfRange, v.Hz)
		}
		if v.Hz > desc.Variant.MaxPollingRate() {
			return nil, fmt.Errorf("%w: %d Hz needs the 8K dongle, found %s", ErrUnsupportedByVariant, v.Hz, desc.Variant)
		}
		f, err := protocol.Encode(protocol.OpSetPolling, code, nil)
		if err != nil {
			return nil, err
		}
		return []protocol.Frame{f}, nil

	case LiftOffDistance:
		code, ok := liftOffCodes[v.MM]
		if !ok {
			return nil, fmt.Errorf("%w: lift-off distance %.1f mm", ErrValueOutOfRange, v.MM)
		}
		f, err := protocol.Encode(protocol.OpSetLiftOff, code, nil)
		if err != nil {
			return nil, err
		}
		return []protocol.Frame{f}, nil

	case MotionSync:
		var state byte
		if v.Enabled {
			state = 1
		}
		f, err := protocol.Encode(protocol.OpMotionSync, state, nil)
		if err != nil {
			return nil, err
		}
		return []protocol.Frame{f}, nil

	case ButtonBinding:
		f, err := buttonFrame(v.Slot, v.Action)
		if err != nil {
			return nil, err
		}
		return []protocol.Frame{f}, nil

	case ButtonMap:
		if len(v.Actions) == 0 {
			return nil, fmt.Errorf("%w: empty button map", ErrValueOutOfRange)
		}
		slots := make([]int, 0, len(v.Actions))
		for slot := range v.Actions {
			slots = append(slots, slot)
		}
		sort.Ints(slots)
		frames := make([]protocol.Frame, 0, len(slots))
		for _, slot := range slots {
			f, err := buttonFrame(slot, v.Actions[slot])
			if err != nil {
				return nil, err
			}
			frames = append(frames, f)
		}
		return frames, nil

	case PowerOptions:
		if v.IdleSeconds < IdleSecondsMin || v.IdleSeconds > IdleSecondsMax {
			return nil, fmt.Errorf("%w: idle time %d s not in %d..%d", ErrValueOutOfRange, v.IdleSeconds, IdleSecondsMin, IdleSecondsMax)
		}
		if v.BatteryThreshold < BatteryThresholdMin || v.BatteryThreshold > BatteryThresholdMax {
			return nil, fmt.Errorf("%w: battery threshold %d%% not in %d..%d", ErrValueOutOfRange, v.BatteryThreshold, BatteryThresholdMin, BatteryThresholdMax)
		}
		payload := []byte{
			byte(v.IdleSeconds & 0xff),
			byte(v.IdleSeconds >> 8),
			byte(v.BatteryThreshold),
		}
		f, err := protocol.Encode(protocol.OpSetPower, 0x00, payload)
		if err != nil {
			return nil, err
		}
		return []protocol.Frame{f}, nil

	case ProfileSave:
		if v.Profile < 1 || v.Profile > ProfileCount {
			return nil, fmt.Errorf("%w: profile %d not in 1..%d", ErrValueOutOfRange, v.Profile, ProfileCount)
		}
		f, err := protocol.Encode(protocol.OpSaveProfile, byte(v.Profile), nil)
		if err != nil {
			return nil, err
		}
		return []protocol.Frame{f}, nil

	default:
		if s == nil {
			return nil, ErrUnknownSettingKind
		}
		return nil, fmt.Errorf("%w: %T", ErrUnknownSettingKind, s)
	}
}

func dpiStageFrame(stage, value int) (protocol.Frame, error) {
	if stage < 1 || stage > DPIStageCount {
		return protocol.Frame{}, fmt.Errorf("%w: DPI stage %d not in 1..%d", ErrValueOutOfRange, stage, DPIStageCount)
	}
	if value < DPIMin || value > DPIMax {
		return protocol.Frame{}, fmt.Errorf("%w: DPI %d not in %d..%d", ErrValueOutOfRange, value, DPIMin, DPIMax)
	}
	if value%DPIStep != 0 {
		return protocol.Frame{}, fmt.Errorf("%w: DPI %d not aligned to step %d", ErrValueOutOfRange, value, DPIStep)
	}
	return protocol.Encode(protocol.OpSetDPI, byte(stage), []byte{byte(value >> 8), byte(value & 0xff)})
}

func buttonFrame(slot int, action Action) (protocol.Frame, error) {
	if slot < 1 || slot > ButtonSlotCount {
		return protocol.Frame{}, fmt.Errorf("%w: button slot %d not in 1..%d", ErrValueOutOfRange, slot, ButtonSlotCount)
	}
	if !action.Valid() {
		return protocol.Frame{}, fmt.Errorf("%w: action code 0x%02x", ErrValueOutOfRange, byte(action))
	}
	return protocol.Encode(protocol.OpSetButton, byte(slot), []byte{byte(action)})
}

// GetInfo builds the device information query.
func GetInfo() protocol.Frame {
	f, _ := protocol.Encode(protocol.OpGetInfo, 0x00, nil)
	return f
}

// GetSettings builds the current-settings query.
func GetSettings() protocol.Frame {
	f, _ := protocol.Encode(protocol.OpGetSettings, 0x00, nil)
	return f
}
