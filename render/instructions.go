package render

import (
	"fmt"

	"github.com/delaneyj/viewparty/binding"
)

// InstructionType is the discriminant the Renderer dispatches on.
type InstructionType uint8

const (
	TextBinding InstructionType = iota + 1
	PropertyBinding
	ListenerBinding
	CallBinding
	RefBinding
	StylePropertyBinding
	SetProperty
	SetAttribute
	HydrateElement
	HydrateAttribute
	HydrateTemplateController
	HydrateLetElement
)

var instructionNames = map[InstructionType]string{
	TextBinding:               "textBinding",
	PropertyBinding:           "propertyBinding",
	ListenerBinding:           "listenerBinding",
	CallBinding:               "callBinding",
	RefBinding:                "refBinding",
	StylePropertyBinding:      "stylePropertyBinding",
	SetProperty:               "setProperty",
	SetAttribute:              "setAttribute",
	HydrateElement:            "hydrateElement",
	HydrateAttribute:          "hydrateAttribute",
	HydrateTemplateController: "hydrateTemplateController",
	HydrateLetElement:         "hydrateLetElement",
}

func (t InstructionType) String() string {
	if s, ok := instructionNames[t]; ok {
		return s
	}
	return fmt.Sprintf("InstructionType(%d)", uint8(t))
}

// Instruction tells the Renderer what to do with one target.
type Instruction interface {
	Type() InstructionType
}

// TextBindingInstruction renders an interpolation as text. Its target is
// a marker comment, replaced by a text node.
type TextBindingInstruction struct {
	From string
}

// PropertyBindingInstruction binds From to the To property of the
// target. With Iterator set From is parsed as `item of items`. A From
// holding ${} is bound as an interpolation.
type PropertyBindingInstruction struct {
	From     string
	To       string
	Mode     binding.Mode
	Iterator bool
}

type ListenerInstruction struct {
	From           string
	To             string
	Strategy       binding.DelegationStrategy
	PreventDefault bool
}

type CallBindingInstruction struct {
	From string
	To   string
}

// RefBindingInstruction assigns the target into From. To selects what is
// assigned: "" or "element" for the node, otherwise the name of a custom
// element or attribute hydrated on it.
type RefBindingInstruction struct {
	From string
	To   string
}

type StylePropertyBindingInstruction struct {
	From string
	To   string
}

type SetPropertyInstruction struct {
	Value any
	To    string
}

type SetAttributeInstruction struct {
	Value string
	To    string
}

// HydrateElementInstruction creates the custom element Res on the target.
// Its instructions target the element's view model and bind in the
// enclosing scope.
type HydrateElementInstruction struct {
	Res          string
	Instructions []Instruction
}

type HydrateAttributeInstruction struct {
	Res          string
	Instructions []Instruction
}

// HydrateTemplateControllerInstruction creates the template controller
// Res at a marker comment and hands it a view factory for Def.
type HydrateTemplateControllerInstruction struct {
	Res          string
	Def          *Definition
	Instructions []Instruction
}

type LetBindingInstruction struct {
	From string
	To   string
}

// HydrateLetElementInstruction declares scope values. With
// ToBindingContext they land on the binding context instead of the
// override context.
type HydrateLetElementInstruction struct {
	Instructions     []LetBindingInstruction
	ToBindingContext bool
}

func (TextBindingInstruction) Type() InstructionType               { return TextBinding }
func (PropertyBindingInstruction) Type() InstructionType           { return PropertyBinding }
func (ListenerInstruction) Type() InstructionType                  { return ListenerBinding }
func (CallBindingInstruction) Type() InstructionType               { return CallBinding }
func (RefBindingInstruction) Type() InstructionType                { return RefBinding }
func (StylePropertyBindingInstruction) Type() InstructionType      { return StylePropertyBinding }
func (SetPropertyInstruction) Type() InstructionType               { return SetProperty }
func (SetAttributeInstruction) Type() InstructionType              { return SetAttribute }
func (HydrateElementInstruction) Type() InstructionType            { return HydrateElement }
func (HydrateAttributeInstruction) Type() InstructionType          { return HydrateAttribute }
func (HydrateTemplateControllerInstruction) Type() InstructionType { return HydrateTemplateController }
func (HydrateLetElementInstruction) Type() InstructionType         { return HydrateLetElement }
