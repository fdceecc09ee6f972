package command

import "sort"

// Setting domains for the X2 line (XS-1 sensor).
const (
	DPIMin        = 50
	DPIMax        = 32000
	DPIStep       = 10
	DPIStageCount = 6

	ButtonSlotCount = 5

	IdleSecondsMin = 30
	IdleSecondsMax = 900

	BatteryThresholdMin = 5
	BatteryThresholdMax = 20

	ProfileCount = 4
)

// pollingRateCodes maps Hz to the wire code carried in the subcommand byte.
var pollingRateCodes = map[int]byte{
	125:  0,
	250:  1,
	500:  2,
	1000: 3,
	2000: 4,
	4000: 5,
	8000: 6,
}

// liftOffCodes maps millimetres to the wire code. Only three heights exist.
var liftOffCodes = map[float64]byte{
	0.7: 0,
	1.0: 1,
	2.0: 2,
}

// Action is a button action code as the device encodes it.
type Action byte

const (
	ActionDisabled    Action = 0x00
	ActionLeftClick   Action = 0x01
	ActionRightClick  Action = 0x02
	ActionMiddleClick Action = 0x03
	ActionBack        Action = 0x04
	ActionForward     Action = 0x05
	ActionDPIUp       Action = 0x06
	ActionDPIDown     Action = 0x07
	ActionDPICycle    Action = 0x08
	ActionScrollUp    Action = 0x09
	ActionScrollDown  Action = 0x0A
	ActionDoubleClick Action = 0x0B
	ActionCtrl        Action = 0x10
	ActionShift       Action = 0x11
	ActionAlt         Action = 0x12
	ActionMeta        Action = 0x13
)

var actionNames = map[Action]string{
	ActionDisabled:    "disabled",
	ActionLeftClick:   "left-click",
	ActionRightClick:  "right-click",
	ActionMiddleClick: "middle-click",
	ActionBack:        "back",
	ActionForward:     "forward",
	ActionDPIUp:       "dpi-up",
	ActionDPIDown:     "dpi-down",
	ActionDPICycle:    "dpi-cycle",
	ActionScrollUp:    "scroll-up",
	ActionScrollDown:  "scroll-down",
	ActionDoubleClick: "double-click",
	ActionCtrl:        "ctrl",
	ActionShift:       "shift",
	ActionAlt:         "alt",
	ActionMeta:        "meta",
}

var actionsByName = func() map[string]Action {
	m := make(map[string]Action, len(actionNames))
	for a, n := range actionNames {
		m[n] = a
	}
	return m
}()

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// Valid reports whether the action code is one the device understands.
func (a Action) Valid() bool {
	_, ok := actionNames[a]
	return ok
}

// ActionByName resolves a CLI-facing action name to its code.
func ActionByName(name string) (Action, bool) {
	a, ok := actionsByName[name]
	return a, ok
}

// ActionNames returns all action names, for help output.
func ActionNames() []string {
	names := make([]string, 0, len(actionsByName))
	for n := range actionsByName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
