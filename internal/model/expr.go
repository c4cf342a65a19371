// Copyright 2026 Canonical.

package model

// An ExprType tags the node kind of a derived expression.
type ExprType string

const (
	ExprAdd     ExprType = "add"
	ExprSub     ExprType = "sub"
	ExprMul     ExprType = "mul"
	ExprDiv     ExprType = "div"
	ExprLiteral ExprType = "literal"
	ExprProp    ExprType = "prop"
	ExprSum     ExprType = "sum"
	ExprCount   ExprType = "count"
	ExprMax     ExprType = "max"
	ExprMin     ExprType = "min"
)

// An Expr is a node in a derived expression tree. The Type field
// determines which of the remaining fields are meaningful: arithmetic
// nodes use Left and Right, literal nodes use Value, prop nodes use
// Prop, and aggregate nodes use Over together with Prop (except count,
// which needs no property).
type Expr struct {
	Type  ExprType    `json:"type"`
	Left  *Expr       `json:"left,omitempty"`
	Right *Expr       `json:"right,omitempty"`
	Value interface{} `json:"value,omitempty"`
	Prop  string      `json:"prop,omitempty"`
	Over  string      `json:"over,omitempty"`
}

// Lit returns a literal expression node.
func Lit(v interface{}) Expr {
	return Expr{Type: ExprLiteral, Value: v}
}

// Prop returns a property reference expression node.
func Prop(name string) Expr {
	return Expr{Type: ExprProp, Prop: name}
}

// Sum returns an aggregate sum node over the named relationship.
func Sum(over, prop string) Expr {
	return Expr{Type: ExprSum, Over: over, Prop: prop}
}

// Count returns an aggregate count node over the named relationship.
func Count(over string) Expr {
	return Expr{Type: ExprCount, Over: over}
}

// Add returns an addition node.
func Add(left, right Expr) Expr {
	return Expr{Type: ExprAdd, Left: &left, Right: &right}
}
