// Package evaluator compiles guard expressions used on transitions and
// gateway branches into evaluable form. The grammar is deliberately small:
// comparisons between variables and literals, optional negation and the &&
// conjunction, with an optional ${...} wrapper kept for compatibility with
// the declarative definition files.
package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/parsly"

	"github.com/samrum/doorflow/model/state"
)

// Guard is a compiled guard expression. Compile once at registration, Eval
// per drive-loop decision.
type Guard struct {
	Source string
	root   node
}

// Compile parses the expression; an empty expression is invalid.
func Compile(expr string) (*Guard, error) {
	trimmed := strings.TrimSpace(expr)
	if strings.HasPrefix(trimmed, "${") && strings.HasSuffix(trimmed, "}") {
		trimmed = trimmed[2 : len(trimmed)-1]
	}
	if strings.TrimSpace(trimmed) == "" {
		return nil, fmt.Errorf("empty guard expression")
	}
	cursor := parsly.NewCursor("", []byte(trimmed), 0)
	root, err := parseConjunction(cursor)
	if err != nil {
		return nil, fmt.Errorf("guard %q: %w", expr, err)
	}
	cursor.MatchOne(whitespaceToken)
	if cursor.Pos < cursor.InputSize {
		return nil, fmt.Errorf("guard %q: unexpected input at offset %d", expr, cursor.Pos)
	}
	return &Guard{Source: expr, root: root}, nil
}

// Eval evaluates the guard against the supplied variables. Absent variables
// read as null; a guard whose outcome is not a boolean is an error rather
// than a silent false.
func (g *Guard) Eval(vars state.Variables) (bool, error) {
	value, err := g.root.eval(vars)
	if err != nil {
		return false, fmt.Errorf("guard %q: %w", g.Source, err)
	}
	switch value.Kind() {
	case state.KindBool:
		ok, _ := value.Truth()
		return ok, nil
	case state.KindNull:
		return false, nil
	}
	return false, fmt.Errorf("guard %q evaluated to %v, expected boolean", g.Source, value.Kind())
}

type node interface {
	eval(vars state.Variables) (state.Value, error)
}

type literal struct{ value state.Value }

func (n *literal) eval(state.Variables) (state.Value, error) { return n.value, nil }

type ident struct{ name string }

func (n *ident) eval(vars state.Variables) (state.Value, error) {
	return vars.Lookup(n.name), nil
}

type negation struct{ operand node }

func (n *negation) eval(vars state.Variables) (state.Value, error) {
	value, err := n.operand.eval(vars)
	if err != nil {
		return state.Null(), err
	}
	switch value.Kind() {
	case state.KindBool:
		ok, _ := value.Truth()
		return state.Bool(!ok), nil
	case state.KindNull:
		return state.Bool(true), nil
	}
	return state.Null(), fmt.Errorf("cannot negate %v value", value.Kind())
}

type conjunction struct{ terms []node }

func (n *conjunction) eval(vars state.Variables) (state.Value, error) {
	for _, term := range n.terms {
		value, err := term.eval(vars)
		if err != nil {
			return state.Null(), err
		}
		ok, err := value.Truth()
		if err != nil {
			return state.Null(), fmt.Errorf("conjunction term is not boolean: %w", err)
		}
		if !ok {
			return state.Bool(false), nil
		}
	}
	return state.Bool(true), nil
}

type comparison struct {
	op          string
	left, right node
}

func (n *comparison) eval(vars state.Variables) (state.Value, error) {
	left, err := n.left.eval(vars)
	if err != nil {
		return state.Null(), err
	}
	right, err := n.right.eval(vars)
	if err != nil {
		return state.Null(), err
	}
	switch n.op {
	case "==":
		return state.Bool(left.Equal(right)), nil
	case "!=":
		return state.Bool(!left.Equal(right)), nil
	}
	ordering, err := compare(left, right)
	if err != nil {
		return state.Null(), err
	}
	switch n.op {
	case ">":
		return state.Bool(ordering > 0), nil
	case ">=":
		return state.Bool(ordering >= 0), nil
	case "<":
		return state.Bool(ordering < 0), nil
	case "<=":
		return state.Bool(ordering <= 0), nil
	}
	return state.Null(), fmt.Errorf("unsupported operator %q", n.op)
}

func compare(left, right state.Value) (int, error) {
	if left.Kind() != right.Kind() {
		return 0, fmt.Errorf("cannot order %v against %v", left.Kind(), right.Kind())
	}
	switch left.Kind() {
	case state.KindNumber:
		l, _ := left.Float()
		r, _ := right.Float()
		switch {
		case l < r:
			return -1, nil
		case l > r:
			return 1, nil
		}
		return 0, nil
	case state.KindString:
		l, _ := left.Text()
		r, _ := right.Text()
		return strings.Compare(l, r), nil
	case state.KindTime:
		l, _ := left.Timestamp()
		r, _ := right.Timestamp()
		switch {
		case l.Before(r):
			return -1, nil
		case l.After(r):
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot order %v values", left.Kind())
}

func parseConjunction(cursor *parsly.Cursor) (node, error) {
	first, err := parseUnary(cursor)
	if err != nil {
		return nil, err
	}
	terms := []node{first}
	for {
		matched := cursor.MatchAfterOptional(whitespaceToken, andToken)
		if matched.Code != andToken.Code {
			break
		}
		next, err := parseUnary(cursor)
		if err != nil {
			return nil, err
		}
		terms = append(terms, next)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return &conjunction{terms: terms}, nil
}

func parseUnary(cursor *parsly.Cursor) (node, error) {
	matched := cursor.MatchAfterOptional(whitespaceToken, notToken)
	if matched.Code == notToken.Code {
		operand, err := parseUnary(cursor)
		if err != nil {
			return nil, err
		}
		return &negation{operand: operand}, nil
	}
	return parseComparison(cursor)
}

func parseComparison(cursor *parsly.Cursor) (node, error) {
	left, err := parseOperand(cursor)
	if err != nil {
		return nil, err
	}
	matched := cursor.MatchAfterOptional(whitespaceToken, compareToken)
	if matched.Code != compareToken.Code {
		return left, nil
	}
	op := matched.Text(cursor)
	right, err := parseOperand(cursor)
	if err != nil {
		return nil, err
	}
	return &comparison{op: op, left: left, right: right}, nil
}

func parseOperand(cursor *parsly.Cursor) (node, error) {
	matched := cursor.MatchAfterOptional(whitespaceToken, stringToken, numberToken, identifierToken)
	switch matched.Code {
	case stringToken.Code:
		text := matched.Text(cursor)
		return &literal{value: state.String(text[1 : len(text)-1])}, nil
	case numberToken.Code:
		num, err := strconv.ParseFloat(matched.Text(cursor), 64)
		if err != nil {
			return nil, err
		}
		return &literal{value: state.Number(num)}, nil
	case identifierToken.Code:
		switch text := matched.Text(cursor); text {
		case "true":
			return &literal{value: state.Bool(true)}, nil
		case "false":
			return &literal{value: state.Bool(false)}, nil
		case "null":
			return &literal{value: state.Null()}, nil
		default:
			return &ident{name: text}, nil
		}
	}
	return nil, cursor.NewError(identifierToken)
}
