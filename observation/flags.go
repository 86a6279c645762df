package observation

import "strings"

// Flags travel with every value change and tell observers and bindings where
// the change came from and which direction it is flowing.
type Flags uint32

const (
	FlagsNone Flags = 0

	FromBind Flags = 1 << iota
	FromUnbind
	FromFlush
	UpdateTargetInstance
	UpdateSourceExpression
	MustEvaluate
	FromDirtyCheck
	IsCollectionMutation
)

var flagNames = []struct {
	f    Flags
	name string
}{
	{FromBind, "fromBind"},
	{FromUnbind, "fromUnbind"},
	{FromFlush, "fromFlush"},
	{UpdateTargetInstance, "updateTargetInstance"},
	{UpdateSourceExpression, "updateSourceExpression"},
	{MustEvaluate, "mustEvaluate"},
	{FromDirtyCheck, "fromDirtyCheck"},
	{IsCollectionMutation, "isCollectionMutation"},
}

func (f Flags) Has(other Flags) bool {
	return f&other != 0
}

func (f Flags) String() string {
	if f == FlagsNone {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f&fn.f != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}
