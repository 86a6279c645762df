package binding

import (
	"fmt"
	"strings"
)

// Mode selects the directions a property binding propagates.
type Mode uint8

const (
	// Default lets the target decide; it resolves to ToView unless the
	// target is a form value, which resolves to TwoWay.
	Default  Mode = 0
	OneTime  Mode = 1
	ToView   Mode = 2
	FromView Mode = 4
	TwoWay   Mode = ToView | FromView
)

func (m Mode) String() string {
	switch m {
	case Default:
		return "default"
	case OneTime:
		return "oneTime"
	case ToView:
		return "toView"
	case FromView:
		return "fromView"
	case TwoWay:
		return "twoWay"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// ParseMode maps a binding command such as "two-way" or "bind" to a mode.
func ParseMode(command string) (Mode, error) {
	switch strings.ToLower(strings.ReplaceAll(command, "-", "")) {
	case "onetime":
		return OneTime, nil
	case "toview":
		return ToView, nil
	case "fromview":
		return FromView, nil
	case "twoway":
		return TwoWay, nil
	case "bind", "default", "":
		return Default, nil
	}
	return Default, fmt.Errorf("binding: unknown binding command %q", command)
}

func (m Mode) toView() bool   { return m&(OneTime|ToView) != 0 }
func (m Mode) fromView() bool { return m&FromView != 0 }
