// Package expression holds the binding expression tree, its parser and a
// parse cache.
package expression

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/delaneyj/viewparty/observation"
)

// ErrNotAssignable is returned by Assign on nodes that are not lvalues.
var ErrNotAssignable = errors.New("expression: not assignable")

// Expression is a node of a parsed binding expression. Evaluate has no
// side effects on observation state; only Connect registers dependencies.
type Expression interface {
	Evaluate(flags observation.Flags, scope *observation.Scope, r ResourceLocator) (any, error)
	Assign(flags observation.Flags, scope *observation.Scope, r ResourceLocator, value any) error
	Connect(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error
	fmt.Stringer
}

// Behaviorful is implemented by expressions carrying binding behaviors.
type Behaviorful interface {
	Bind(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error
	Unbind(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error
}

// IsAssignable reports whether Assign can succeed on e.
func IsAssignable(e Expression) bool {
	switch x := e.(type) {
	case *AccessScope, *AccessMember, *AccessKeyed, *Assign:
		return true
	case *ValueConverterExpression:
		return IsAssignable(x.Expression)
	case *BindingBehaviorExpression:
		return IsAssignable(x.Expression)
	}
	return false
}

type rvalue struct{}

func (rvalue) Assign(observation.Flags, *observation.Scope, ResourceLocator, any) error {
	return ErrNotAssignable
}

// AccessThis is $this (Ancestor 0) or a chain of $parent.
type AccessThis struct {
	rvalue
	Ancestor int
}

func (e *AccessThis) Evaluate(_ observation.Flags, scope *observation.Scope, _ ResourceLocator) (any, error) {
	if scope == nil {
		return nil, nil
	}
	if e.Ancestor == 0 {
		return scope.BindingContext, nil
	}
	oc := scope.OverrideContext
	for i := 0; i < e.Ancestor && oc != nil; i++ {
		oc = oc.Parent
	}
	if oc == nil {
		return nil, nil
	}
	return oc.BindingContext, nil
}

func (e *AccessThis) Connect(observation.Flags, *observation.Scope, ResourceLocator, Binding) error {
	return nil
}

func (e *AccessThis) String() string {
	if e.Ancestor == 0 {
		return "$this"
	}
	return strings.TrimSuffix(strings.Repeat("$parent.", e.Ancestor), ".")
}

// AccessScope reads a name from the scope chain.
type AccessScope struct {
	Name     string
	Ancestor int
}

func (e *AccessScope) Evaluate(_ observation.Flags, scope *observation.Scope, _ ResourceLocator) (any, error) {
	ctx := observation.BindingContextFor(scope, e.Name, e.Ancestor)
	return observation.GetProperty(ctx, e.Name), nil
}

func (e *AccessScope) Assign(_ observation.Flags, scope *observation.Scope, _ ResourceLocator, value any) error {
	ctx := observation.BindingContextFor(scope, e.Name, e.Ancestor)
	if ctx == nil {
		return fmt.Errorf("expression: no binding context for %s", e)
	}
	return observation.SetProperty(ctx, e.Name, value)
}

func (e *AccessScope) Connect(_ observation.Flags, scope *observation.Scope, _ ResourceLocator, b Binding) error {
	if ctx := observation.BindingContextFor(scope, e.Name, e.Ancestor); ctx != nil {
		b.ObserveProperty(ctx, e.Name)
	}
	return nil
}

func (e *AccessScope) String() string {
	if e.Ancestor == 0 {
		return e.Name
	}
	return strings.Repeat("$parent.", e.Ancestor) + e.Name
}

// AccessMember reads Name from the value of Object.
type AccessMember struct {
	Object Expression
	Name   string
}

func (e *AccessMember) Evaluate(flags observation.Flags, scope *observation.Scope, r ResourceLocator) (any, error) {
	obj, err := e.Object.Evaluate(flags, scope, r)
	if err != nil {
		return nil, err
	}
	return observation.GetProperty(obj, e.Name), nil
}

// Assign writes Name on the object, creating an empty record when the
// object is missing.
func (e *AccessMember) Assign(flags observation.Flags, scope *observation.Scope, r ResourceLocator, value any) error {
	obj, err := e.Object.Evaluate(flags, scope, r)
	if err != nil {
		return err
	}
	if obj == nil {
		rec := observation.NewRecord()
		if err := e.Object.Assign(flags, scope, r, rec); err != nil {
			return err
		}
		obj = rec
	}
	return observation.SetProperty(obj, e.Name, value)
}

func (e *AccessMember) Connect(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error {
	if err := e.Object.Connect(flags, scope, r, b); err != nil {
		return err
	}
	obj, err := e.Object.Evaluate(flags, scope, r)
	if err != nil {
		return err
	}
	if observable(obj) {
		b.ObserveProperty(obj, e.Name)
	}
	return nil
}

func (e *AccessMember) String() string {
	return e.Object.String() + "." + e.Name
}

// AccessKeyed reads Object[Key].
type AccessKeyed struct {
	Object Expression
	Key    Expression
}

func (e *AccessKeyed) Evaluate(flags observation.Flags, scope *observation.Scope, r ResourceLocator) (any, error) {
	obj, err := e.Object.Evaluate(flags, scope, r)
	if err != nil {
		return nil, err
	}
	key, err := e.Key.Evaluate(flags, scope, r)
	if err != nil {
		return nil, err
	}
	return observation.GetKeyed(obj, key), nil
}

func (e *AccessKeyed) Assign(flags observation.Flags, scope *observation.Scope, r ResourceLocator, value any) error {
	obj, err := e.Object.Evaluate(flags, scope, r)
	if err != nil {
		return err
	}
	key, err := e.Key.Evaluate(flags, scope, r)
	if err != nil {
		return err
	}
	return observation.SetKeyed(obj, key, value)
}

func (e *AccessKeyed) Connect(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error {
	if err := e.Object.Connect(flags, scope, r, b); err != nil {
		return err
	}
	obj, err := e.Object.Evaluate(flags, scope, r)
	if err != nil || !observable(obj) {
		return err
	}
	if err := e.Key.Connect(flags, scope, r, b); err != nil {
		return err
	}
	if c, ok := obj.(observation.Collection); ok {
		b.ObserveCollection(c)
		return nil
	}
	key, err := e.Key.Evaluate(flags, scope, r)
	if err != nil {
		return err
	}
	b.ObserveProperty(obj, keyString(key))
	return nil
}

func (e *AccessKeyed) String() string {
	return e.Object.String() + "[" + e.Key.String() + "]"
}

// CallScope calls a function found on the scope chain.
type CallScope struct {
	rvalue
	Name     string
	Args     []Expression
	Ancestor int
}

func (e *CallScope) Evaluate(flags observation.Flags, scope *observation.Scope, r ResourceLocator) (any, error) {
	args, err := evaluateAll(flags, scope, r, e.Args)
	if err != nil {
		return nil, err
	}
	ctx := observation.BindingContextFor(scope, e.Name, e.Ancestor)
	fn, ok := method(ctx, e.Name)
	if !ok {
		if flags.Has(observation.MustEvaluate) {
			return nil, fmt.Errorf("%w: %s", ErrNotFunction, e.Name)
		}
		return nil, nil
	}
	return call(fn, args)
}

func (e *CallScope) Connect(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error {
	return connectAll(flags, scope, r, b, e.Args)
}

func (e *CallScope) String() string {
	return (&AccessScope{Name: e.Name, Ancestor: e.Ancestor}).String() + "(" + joinExpressions(e.Args) + ")"
}

// CallMember calls a method of the value of Object.
type CallMember struct {
	rvalue
	Object Expression
	Name   string
	Args   []Expression
}

func (e *CallMember) Evaluate(flags observation.Flags, scope *observation.Scope, r ResourceLocator) (any, error) {
	obj, err := e.Object.Evaluate(flags, scope, r)
	if err != nil {
		return nil, err
	}
	args, err := evaluateAll(flags, scope, r, e.Args)
	if err != nil {
		return nil, err
	}
	fn, ok := method(obj, e.Name)
	if !ok {
		if flags.Has(observation.MustEvaluate) || obj != nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFunction, e)
		}
		return nil, nil
	}
	return call(fn, args)
}

// Connect observes the receiver as a whole when it is a collection, so
// calls like items.includes(x) refresh when items mutates.
func (e *CallMember) Connect(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error {
	if err := e.Object.Connect(flags, scope, r, b); err != nil {
		return err
	}
	obj, err := e.Object.Evaluate(flags, scope, r)
	if err != nil {
		return err
	}
	if c, ok := obj.(observation.Collection); ok {
		b.ObserveCollection(c)
	}
	return connectAll(flags, scope, r, b, e.Args)
}

func (e *CallMember) String() string {
	return e.Object.String() + "." + e.Name + "(" + joinExpressions(e.Args) + ")"
}

// CallFunction calls the value of Func.
type CallFunction struct {
	rvalue
	Func Expression
	Args []Expression
}

func (e *CallFunction) Evaluate(flags observation.Flags, scope *observation.Scope, r ResourceLocator) (any, error) {
	fn, err := e.Func.Evaluate(flags, scope, r)
	if err != nil {
		return nil, err
	}
	args, err := evaluateAll(flags, scope, r, e.Args)
	if err != nil {
		return nil, err
	}
	if fn == nil && !flags.Has(observation.MustEvaluate) {
		return nil, nil
	}
	return call(fn, args)
}

func (e *CallFunction) Connect(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error {
	if err := e.Func.Connect(flags, scope, r, b); err != nil {
		return err
	}
	return connectAll(flags, scope, r, b, e.Args)
}

func (e *CallFunction) String() string {
	return e.Func.String() + "(" + joinExpressions(e.Args) + ")"
}

// Binary applies a binary operator. && and || short-circuit, including
// when connecting.
type Binary struct {
	rvalue
	Operation string
	Left      Expression
	Right     Expression
}

func (e *Binary) Evaluate(flags observation.Flags, scope *observation.Scope, r ResourceLocator) (any, error) {
	left, err := e.Left.Evaluate(flags, scope, r)
	if err != nil {
		return nil, err
	}
	switch e.Operation {
	case "&&":
		if !Truthy(left) {
			return left, nil
		}
		return e.Right.Evaluate(flags, scope, r)
	case "||":
		if Truthy(left) {
			return left, nil
		}
		return e.Right.Evaluate(flags, scope, r)
	}
	right, err := e.Right.Evaluate(flags, scope, r)
	if err != nil {
		return nil, err
	}
	return binaryOp(e.Operation, left, right)
}

func binaryOp(op string, left, right any) (any, error) {
	switch op {
	case "==":
		return looseEqual(left, right), nil
	case "!=":
		return !looseEqual(left, right), nil
	case "===":
		return strictEqual(left, right), nil
	case "!==":
		return !strictEqual(left, right), nil
	case "+":
		_, ls := left.(string)
		_, rs := right.(string)
		if ls || rs {
			return ToString(left) + ToString(right), nil
		}
		return ToNumber(left) + ToNumber(right), nil
	case "-":
		return ToNumber(left) - ToNumber(right), nil
	case "*":
		return ToNumber(left) * ToNumber(right), nil
	case "/":
		return ToNumber(left) / ToNumber(right), nil
	case "%":
		return math.Mod(ToNumber(left), ToNumber(right)), nil
	case "<", ">", "<=", ">=":
		return compare(op, left, right), nil
	case "in":
		return observation.HasProperty(right, keyString(left)), nil
	case "instanceof":
		return fmt.Sprintf("%T", left) == fmt.Sprintf("%T", right), nil
	}
	return nil, fmt.Errorf("expression: unknown binary operator %q", op)
}

func compare(op string, left, right any) bool {
	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		switch op {
		case "<":
			return ls < rs
		case ">":
			return ls > rs
		case "<=":
			return ls <= rs
		default:
			return ls >= rs
		}
	}
	l, r := ToNumber(left), ToNumber(right)
	switch op {
	case "<":
		return l < r
	case ">":
		return l > r
	case "<=":
		return l <= r
	default:
		return l >= r
	}
}

func (e *Binary) Connect(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error {
	if err := e.Left.Connect(flags, scope, r, b); err != nil {
		return err
	}
	if e.Operation == "&&" || e.Operation == "||" {
		left, err := e.Left.Evaluate(flags, scope, r)
		if err != nil {
			return err
		}
		if Truthy(left) == (e.Operation == "||") {
			return nil
		}
	}
	return e.Right.Connect(flags, scope, r, b)
}

func (e *Binary) String() string {
	return "(" + e.Left.String() + " " + e.Operation + " " + e.Right.String() + ")"
}

// Unary applies a prefix operator.
type Unary struct {
	rvalue
	Operation  string
	Expression Expression
}

func (e *Unary) Evaluate(flags observation.Flags, scope *observation.Scope, r ResourceLocator) (any, error) {
	v, err := e.Expression.Evaluate(flags, scope, r)
	if err != nil {
		return nil, err
	}
	switch e.Operation {
	case "!":
		return !Truthy(v), nil
	case "-":
		return -ToNumber(v), nil
	case "+":
		return ToNumber(v), nil
	case "typeof":
		return typeOf(v), nil
	case "void":
		return nil, nil
	}
	return nil, fmt.Errorf("expression: unknown unary operator %q", e.Operation)
}

func (e *Unary) Connect(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error {
	return e.Expression.Connect(flags, scope, r, b)
}

func (e *Unary) String() string {
	if e.Operation == "typeof" || e.Operation == "void" {
		return e.Operation + " " + e.Expression.String()
	}
	return e.Operation + e.Expression.String()
}

// PrimitiveLiteral is a string, number, boolean or nil constant.
type PrimitiveLiteral struct {
	rvalue
	Value any
}

func (e *PrimitiveLiteral) Evaluate(observation.Flags, *observation.Scope, ResourceLocator) (any, error) {
	return e.Value, nil
}

func (e *PrimitiveLiteral) Connect(observation.Flags, *observation.Scope, ResourceLocator, Binding) error {
	return nil
}

func (e *PrimitiveLiteral) String() string {
	switch v := e.Value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	}
	return ToString(e.Value)
}

// ArrayLiteral evaluates to a new observable Array.
type ArrayLiteral struct {
	rvalue
	Elements []Expression
}

func (e *ArrayLiteral) Evaluate(flags observation.Flags, scope *observation.Scope, r ResourceLocator) (any, error) {
	vals, err := evaluateAll(flags, scope, r, e.Elements)
	if err != nil {
		return nil, err
	}
	return observation.NewArray(vals...), nil
}

func (e *ArrayLiteral) Connect(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error {
	return connectAll(flags, scope, r, b, e.Elements)
}

func (e *ArrayLiteral) String() string {
	return "[" + joinExpressions(e.Elements) + "]"
}

// ObjectLiteral evaluates to a new Record.
type ObjectLiteral struct {
	rvalue
	Keys   []string
	Values []Expression
}

func (e *ObjectLiteral) Evaluate(flags observation.Flags, scope *observation.Scope, r ResourceLocator) (any, error) {
	rec := observation.NewRecord()
	for i, k := range e.Keys {
		v, err := e.Values[i].Evaluate(flags, scope, r)
		if err != nil {
			return nil, err
		}
		rec.Set(k, v)
	}
	return rec, nil
}

func (e *ObjectLiteral) Connect(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error {
	return connectAll(flags, scope, r, b, e.Values)
}

func (e *ObjectLiteral) String() string {
	parts := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		parts[i] = k + ": " + e.Values[i].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Template is a backtick template literal. Cooked has one more element
// than Expressions.
type Template struct {
	rvalue
	Cooked      []string
	Expressions []Expression
}

func (e *Template) Evaluate(flags observation.Flags, scope *observation.Scope, r ResourceLocator) (any, error) {
	var sb strings.Builder
	sb.WriteString(e.Cooked[0])
	for i, x := range e.Expressions {
		v, err := x.Evaluate(flags, scope, r)
		if err != nil {
			return nil, err
		}
		sb.WriteString(ToString(v))
		sb.WriteString(e.Cooked[i+1])
	}
	return sb.String(), nil
}

func (e *Template) Connect(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error {
	return connectAll(flags, scope, r, b, e.Expressions)
}

func (e *Template) String() string {
	var sb strings.Builder
	sb.WriteByte('`')
	sb.WriteString(e.Cooked[0])
	for i, x := range e.Expressions {
		sb.WriteString("${" + x.String() + "}")
		sb.WriteString(e.Cooked[i+1])
	}
	sb.WriteByte('`')
	return sb.String()
}

// Conditional is the ternary operator. Only the taken branch is connected.
type Conditional struct {
	rvalue
	Condition Expression
	Yes       Expression
	No        Expression
}

func (e *Conditional) Evaluate(flags observation.Flags, scope *observation.Scope, r ResourceLocator) (any, error) {
	c, err := e.Condition.Evaluate(flags, scope, r)
	if err != nil {
		return nil, err
	}
	if Truthy(c) {
		return e.Yes.Evaluate(flags, scope, r)
	}
	return e.No.Evaluate(flags, scope, r)
}

func (e *Conditional) Connect(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error {
	if err := e.Condition.Connect(flags, scope, r, b); err != nil {
		return err
	}
	c, err := e.Condition.Evaluate(flags, scope, r)
	if err != nil {
		return err
	}
	if Truthy(c) {
		return e.Yes.Connect(flags, scope, r, b)
	}
	return e.No.Connect(flags, scope, r, b)
}

func (e *Conditional) String() string {
	return "(" + e.Condition.String() + " ? " + e.Yes.String() + " : " + e.No.String() + ")"
}

// Assign stores the value of Value into Target and yields it.
type Assign struct {
	Target Expression
	Value  Expression
}

func (e *Assign) Evaluate(flags observation.Flags, scope *observation.Scope, r ResourceLocator) (any, error) {
	v, err := e.Value.Evaluate(flags, scope, r)
	if err != nil {
		return nil, err
	}
	return v, e.Target.Assign(flags, scope, r, v)
}

func (e *Assign) Assign(flags observation.Flags, scope *observation.Scope, r ResourceLocator, value any) error {
	if err := e.Value.Assign(flags, scope, r, value); err != nil {
		return err
	}
	return e.Target.Assign(flags, scope, r, value)
}

func (e *Assign) Connect(observation.Flags, *observation.Scope, ResourceLocator, Binding) error {
	return nil
}

func (e *Assign) String() string {
	return e.Target.String() + " = " + e.Value.String()
}

// ValueConverterExpression pipes Expression through a named converter.
type ValueConverterExpression struct {
	Expression Expression
	Name       string
	Args       []Expression
}

func (e *ValueConverterExpression) converter(r ResourceLocator) (ValueConverter, error) {
	c, ok := lookupConverter(r, e.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConverter, e.Name)
	}
	return c, nil
}

func (e *ValueConverterExpression) Evaluate(flags observation.Flags, scope *observation.Scope, r ResourceLocator) (any, error) {
	c, err := e.converter(r)
	if err != nil {
		return nil, err
	}
	v, err := e.Expression.Evaluate(flags, scope, r)
	if err != nil {
		return nil, err
	}
	args, err := evaluateAll(flags, scope, r, e.Args)
	if err != nil {
		return nil, err
	}
	return c.ToView(v, args...)
}

func (e *ValueConverterExpression) Assign(flags observation.Flags, scope *observation.Scope, r ResourceLocator, value any) error {
	c, err := e.converter(r)
	if err != nil {
		return err
	}
	if fv, ok := c.(FromViewConverter); ok {
		args, err := evaluateAll(flags, scope, r, e.Args)
		if err != nil {
			return err
		}
		if value, err = fv.FromView(value, args...); err != nil {
			return err
		}
	}
	return e.Expression.Assign(flags, scope, r, value)
}

// Connect also observes a collection input, so converters over lists
// refresh on mutation.
func (e *ValueConverterExpression) Connect(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error {
	if _, err := e.converter(r); err != nil {
		return err
	}
	if err := e.Expression.Connect(flags, scope, r, b); err != nil {
		return err
	}
	v, err := e.Expression.Evaluate(flags, scope, r)
	if err != nil {
		return err
	}
	if c, ok := v.(observation.Collection); ok {
		b.ObserveCollection(c)
	}
	return connectAll(flags, scope, r, b, e.Args)
}

func (e *ValueConverterExpression) String() string {
	return e.Expression.String() + " | " + e.Name + argSuffix(e.Args)
}

// BindingBehaviorExpression attaches a named behavior to the binding of Expression.
type BindingBehaviorExpression struct {
	Expression Expression
	Name       string
	Args       []Expression
}

func (e *BindingBehaviorExpression) Evaluate(flags observation.Flags, scope *observation.Scope, r ResourceLocator) (any, error) {
	return e.Expression.Evaluate(flags, scope, r)
}

func (e *BindingBehaviorExpression) Assign(flags observation.Flags, scope *observation.Scope, r ResourceLocator, value any) error {
	return e.Expression.Assign(flags, scope, r, value)
}

func (e *BindingBehaviorExpression) Connect(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error {
	return e.Expression.Connect(flags, scope, r, b)
}

// Bind applies inner behaviors first, then this one.
func (e *BindingBehaviorExpression) Bind(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error {
	if inner, ok := e.Expression.(Behaviorful); ok {
		if err := inner.Bind(flags, scope, r, b); err != nil {
			return err
		}
	}
	behavior, ok := lookupBehavior(r, e.Name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBehavior, e.Name)
	}
	args, err := evaluateAll(flags, scope, r, e.Args)
	if err != nil {
		return err
	}
	return behavior.Bind(flags, scope, b, args...)
}

// Unbind removes this behavior, then the inner ones.
func (e *BindingBehaviorExpression) Unbind(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error {
	var errs []error
	if behavior, ok := lookupBehavior(r, e.Name); ok {
		errs = append(errs, behavior.Unbind(flags, scope, b))
	}
	if inner, ok := e.Expression.(Behaviorful); ok {
		errs = append(errs, inner.Unbind(flags, scope, r, b))
	}
	return errors.Join(errs...)
}

func (e *BindingBehaviorExpression) String() string {
	return e.Expression.String() + " & " + e.Name + argSuffix(e.Args)
}

// Interpolation renders literal parts joined with expression results.
// Parts has one more element than Expressions.
type Interpolation struct {
	rvalue
	Parts       []string
	Expressions []Expression
}

func (e *Interpolation) Evaluate(flags observation.Flags, scope *observation.Scope, r ResourceLocator) (any, error) {
	var sb strings.Builder
	sb.WriteString(e.Parts[0])
	for i, x := range e.Expressions {
		v, err := x.Evaluate(flags, scope, r)
		if err != nil {
			return nil, err
		}
		sb.WriteString(ToString(v))
		sb.WriteString(e.Parts[i+1])
	}
	return sb.String(), nil
}

func (e *Interpolation) Connect(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error {
	return connectAll(flags, scope, r, b, e.Expressions)
}

func (e *Interpolation) String() string {
	var sb strings.Builder
	sb.WriteString(e.Parts[0])
	for i, x := range e.Expressions {
		sb.WriteString("${" + x.String() + "}")
		sb.WriteString(e.Parts[i+1])
	}
	return sb.String()
}

// BindingIdentifier is the declaration side of an iterator expression.
type BindingIdentifier struct {
	rvalue
	Name string
}

func (e *BindingIdentifier) Evaluate(observation.Flags, *observation.Scope, ResourceLocator) (any, error) {
	return e.Name, nil
}

func (e *BindingIdentifier) Connect(observation.Flags, *observation.Scope, ResourceLocator, Binding) error {
	return nil
}

func (e *BindingIdentifier) String() string { return e.Name }

// ForOf is `item of items`. Evaluate yields the iterable.
type ForOf struct {
	rvalue
	Declaration *BindingIdentifier
	Iterable    Expression
}

func (e *ForOf) Evaluate(flags observation.Flags, scope *observation.Scope, r ResourceLocator) (any, error) {
	return e.Iterable.Evaluate(flags, scope, r)
}

func (e *ForOf) Connect(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding) error {
	return e.Iterable.Connect(flags, scope, r, b)
}

func (e *ForOf) String() string {
	return e.Declaration.String() + " of " + e.Iterable.String()
}

// Custom carries a raw attribute value through untouched.
type Custom struct {
	rvalue
	Value string
}

func (e *Custom) Evaluate(observation.Flags, *observation.Scope, ResourceLocator) (any, error) {
	return e.Value, nil
}

func (e *Custom) Connect(observation.Flags, *observation.Scope, ResourceLocator, Binding) error {
	return nil
}

func (e *Custom) String() string { return e.Value }

func evaluateAll(flags observation.Flags, scope *observation.Scope, r ResourceLocator, exprs []Expression) ([]any, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	out := make([]any, len(exprs))
	for i, x := range exprs {
		v, err := x.Evaluate(flags, scope, r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func connectAll(flags observation.Flags, scope *observation.Scope, r ResourceLocator, b Binding, exprs []Expression) error {
	for _, x := range exprs {
		if err := x.Connect(flags, scope, r, b); err != nil {
			return err
		}
	}
	return nil
}

func joinExpressions(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, x := range exprs {
		parts[i] = x.String()
	}
	return strings.Join(parts, ", ")
}

func argSuffix(args []Expression) string {
	var sb strings.Builder
	for _, a := range args {
		sb.WriteByte(':')
		sb.WriteString(a.String())
	}
	return sb.String()
}

func keyString(key any) string {
	if s, ok := key.(string); ok {
		return s
	}
	return ToString(key)
}

func observable(obj any) bool {
	switch obj.(type) {
	case nil, string, bool, float64, float32, int, int64, int32, uint:
		return false
	}
	return true
}
