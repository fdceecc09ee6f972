// Package command maps high-level mouse settings onto protocol frames,
// validating each value against its domain and the dongle's capabilities
// before anything reaches the wire.
package command

import "fmt"

// Kind labels a setting family. The analyzer uses kinds to tag probe
// captures during inference.
type Kind int

const (
	KindDPIStage Kind = iota
	KindDPITable
	KindPollingRate
	KindLiftOffDistance
	KindMotionSync
	KindButtonBinding
	KindButtonMap
	KindPowerOptions
	KindProfileSave
)

func (k Kind) String() string {
	switch k {
	case KindDPIStage:
		return "dpi-stage"
	case KindDPITable:
		return "dpi-table"
	case KindPollingRate:
		return "polling-rate"
	case KindLiftOffDistance:
		return "lift-off-distance"
	case KindMotionSync:
		return "motion-sync"
	case KindButtonBinding:
		return "button-binding"
	case KindButtonMap:
		return "button-map"
	case KindPowerOptions:
		return "power-options"
	case KindProfileSave:
		return "profile-save"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Setting is the closed union of configurable values. Each variant carries
// its own domain; Build validates before encoding.
type Setting interface {
	Kind() Kind
}

// DPIStage sets one DPI stage. Stage is 1-based; Value must lie in
// [DPIMin, DPIMax] and align to DPIStep.
type DPIStage struct {
	Stage int
	Value int
}

func (DPIStage) Kind() Kind { return KindDPIStage }

// DPITable writes all six stages and then selects the active one. The
// device expects the stage writes in ascending order followed by the
// select frame; that ordering is part of the protocol.
type DPITable struct {
	Stages [DPIStageCount]int
	Active int
}

func (DPITable) Kind() Kind { return KindDPITable }

// PollingRate sets the report rate in Hz. Rates above 1000 need the 8K
// dongle.
type PollingRate struct {
	Hz int
}

func (PollingRate) Kind() Kind { return KindPollingRate }

// LiftOffDistance sets the sensor lift-off height in millimetres.
type LiftOffDistance struct {
	MM float64
}

func (LiftOffDistance) Kind() Kind { return KindLiftOffDistance }

// MotionSync toggles sensor/report clock alignment.
type MotionSync struct {
	Enabled bool
}

func (MotionSync) Kind() Kind { return KindMotionSync }

// ButtonBinding assigns an action to one button slot (1-based).
type ButtonBinding struct {
	Slot   int
	Action Action
}

func (ButtonBinding) Kind() Kind { return KindButtonBinding }

// ButtonMap assigns actions to several slots in one operation. Frames are
// emitted slot-ascending; partial maps are allowed.
type ButtonMap struct {
	Actions map[int]Action
}

func (ButtonMap) Kind() Kind { return KindButtonMap }

// PowerOptions sets the idle sleep time and the low-battery threshold.
type PowerOptions struct {
	IdleSeconds      int
	BatteryThreshold int
}

func (PowerOptions) Kind() Kind { return KindPowerOptions }

// ProfileSave commits the current settings to an on-device profile slot.
type ProfileSave struct {
	Profile int
}

func (ProfileSave) Kind() Kind { return KindProfileSave }
