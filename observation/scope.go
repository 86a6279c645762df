package observation

// OverrideContext holds the contextual values of a scope level, such as
// $index inside a repeat or $event inside a listener.
type OverrideContext struct {
	values         *Record
	BindingContext any
	Parent         *OverrideContext
}

// Values is the record of contextual values at this level.
func (oc *OverrideContext) Values() *Record {
	if oc.values == nil {
		oc.values = NewRecord()
	}
	return oc.values
}

// Scope is the pair expressions resolve names against.
type Scope struct {
	BindingContext  any
	OverrideContext *OverrideContext
}

// CreateScope returns a root scope for bindingContext.
func CreateScope(bindingContext any) *Scope {
	return &Scope{
		BindingContext:  bindingContext,
		OverrideContext: &OverrideContext{BindingContext: bindingContext},
	}
}

// FromParent returns a child scope whose override context links to parent.
func FromParent(parent *Scope, bindingContext any) *Scope {
	oc := &OverrideContext{BindingContext: bindingContext}
	if parent != nil {
		oc.Parent = parent.OverrideContext
	}
	return &Scope{BindingContext: bindingContext, OverrideContext: oc}
}

// BindingContextFor resolves where name lives. With ancestor > 0 it skips
// that many levels and returns that level's binding context. Otherwise it
// walks outward and returns the first override values or binding context
// carrying name, falling back to the scope's own binding context.
func BindingContextFor(scope *Scope, name string, ancestor int) any {
	if scope == nil {
		return nil
	}
	oc := scope.OverrideContext
	if ancestor > 0 {
		for ; ancestor > 0 && oc != nil; ancestor-- {
			oc = oc.Parent
		}
		if oc == nil {
			return nil
		}
		if oc.values != nil && oc.values.Has(name) {
			return oc.values
		}
		return oc.BindingContext
	}
	for cur := oc; cur != nil; cur = cur.Parent {
		if cur.values != nil && cur.values.Has(name) {
			return cur.values
		}
		if cur.BindingContext != nil && HasProperty(cur.BindingContext, name) {
			return cur.BindingContext
		}
	}
	if oc != nil && oc.values != nil && scope.BindingContext == nil {
		return oc.values
	}
	return scope.BindingContext
}
