package tempo

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Scope resolves bare identifiers while an expression is evaluated.
type Scope interface {
	Lookup(name string) (interface{}, bool)
}

// ItemScope exposes the top-level fields of a data item as identifiers.
type ItemScope struct {
	Item interface{}
}

// Lookup implements Scope.
func (s ItemScope) Lookup(name string) (interface{}, bool) {
	return accessField(s.Item, name)
}

// ExpressionNode represents a node in the expression AST
type ExpressionNode interface {
	String() string
	Evaluate(scope Scope) (interface{}, error)
}

// LiteralNode represents a literal value (string, number, boolean, null)
type LiteralNode struct {
	Value interface{}
}

func (n *LiteralNode) String() string {
	if str, ok := n.Value.(string); ok {
		return fmt.Sprintf("Literal(%q)", str)
	}
	return fmt.Sprintf("Literal(%v)", n.Value)
}

func (n *LiteralNode) Evaluate(Scope) (interface{}, error) {
	return n.Value, nil
}

// IdentifierNode references a field of the item in scope
type IdentifierNode struct {
	Name string
}

func (n *IdentifierNode) String() string {
	return fmt.Sprintf("Identifier(%s)", n.Name)
}

func (n *IdentifierNode) Evaluate(scope Scope) (interface{}, error) {
	if scope == nil {
		return nil, fmt.Errorf("%s is not defined", n.Name)
	}
	val, ok := scope.Lookup(n.Name)
	if !ok {
		return nil, fmt.Errorf("%s is not defined", n.Name)
	}
	return val, nil
}

// FieldAccessNode represents field access (obj.field)
type FieldAccessNode struct {
	Object ExpressionNode
	Field  string
}

func (n *FieldAccessNode) String() string {
	return fmt.Sprintf("FieldAccess(%s.%s)", n.Object.String(), n.Field)
}

func (n *FieldAccessNode) Evaluate(scope Scope) (interface{}, error) {
	obj, err := n.Object.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	val, _ := accessField(obj, n.Field)
	return val, nil
}

// IndexAccessNode represents index access (obj[index])
type IndexAccessNode struct {
	Object ExpressionNode
	Index  ExpressionNode
}

func (n *IndexAccessNode) String() string {
	return fmt.Sprintf("IndexAccess(%s[%s])", n.Object.String(), n.Index.String())
}

func (n *IndexAccessNode) Evaluate(scope Scope) (interface{}, error) {
	obj, err := n.Object.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	indexVal, err := n.Index.Evaluate(scope)
	if err != nil {
		return nil, err
	}

	if idx, ok := toInt(indexVal); ok {
		val, _ := accessIndex(obj, idx)
		return val, nil
	}
	if key, ok := indexVal.(string); ok {
		val, _ := accessField(obj, key)
		return val, nil
	}
	return nil, fmt.Errorf("invalid index type: %T", indexVal)
}

// UnaryOpNode represents a unary operation
type UnaryOpNode struct {
	Operator string
	Operand  ExpressionNode
}

func (n *UnaryOpNode) String() string {
	return fmt.Sprintf("UnaryOp(%s %s)", n.Operator, n.Operand.String())
}

func (n *UnaryOpNode) Evaluate(scope Scope) (interface{}, error) {
	operand, err := n.Operand.Evaluate(scope)
	if err != nil {
		return nil, err
	}

	switch n.Operator {
	case "!":
		return !isTruthy(operand), nil
	case "-", "+":
		num, ok := toFloat64(operand)
		if !ok {
			return nil, fmt.Errorf("cannot apply unary %s to %T", n.Operator, operand)
		}
		if n.Operator == "-" {
			num = -num
		}
		if isInteger(operand) {
			return int(num), nil
		}
		return num, nil
	default:
		return nil, fmt.Errorf("unknown unary operator: %s", n.Operator)
	}
}

// BinaryOpNode represents a binary operation
type BinaryOpNode struct {
	Left     ExpressionNode
	Operator string
	Right    ExpressionNode
}

func (n *BinaryOpNode) String() string {
	return fmt.Sprintf("BinaryOp(%s %s %s)", n.Left.String(), n.Operator, n.Right.String())
}

func (n *BinaryOpNode) Evaluate(scope Scope) (interface{}, error) {
	leftVal, err := n.Left.Evaluate(scope)
	if err != nil {
		return nil, err
	}

	// && and || short-circuit, so the right side may reference absent fields.
	switch n.Operator {
	case "&&", "&":
		if !isTruthy(leftVal) {
			return false, nil
		}
		rightVal, err := n.Right.Evaluate(scope)
		if err != nil {
			return nil, err
		}
		return isTruthy(rightVal), nil
	case "||", "|":
		if isTruthy(leftVal) {
			return true, nil
		}
		rightVal, err := n.Right.Evaluate(scope)
		if err != nil {
			return nil, err
		}
		return isTruthy(rightVal), nil
	}

	rightVal, err := n.Right.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	return EvaluateBinaryOperation(leftVal, n.Operator, rightVal)
}

// ExpressionToken represents a token in an expression
type ExpressionToken struct {
	Type  ExpressionTokenType
	Value string
	Pos   int
}

type ExpressionTokenType int

const (
	ExprTokenIdentifier ExpressionTokenType = iota
	ExprTokenNumber
	ExprTokenString
	ExprTokenOperator
	ExprTokenLeftParen
	ExprTokenRightParen
	ExprTokenEOF
)

// operators are matched longest first.
var operators = []string{
	"===", "!==",
	"==", "!=", "<=", ">=", "&&", "||",
	"+", "-", "*", "/", "%", "&", "|", "!", "<", ">", ".", "[", "]",
}

// TokenizeExpression tokenizes an expression string
func TokenizeExpression(expr string) ([]ExpressionToken, error) {
	var tokens []ExpressionToken
	pos := 0

	for pos < len(expr) {
		c := expr[pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			pos++
			continue

		case isIdentStart(c):
			start := pos
			for pos < len(expr) && isIdentPart(expr[pos]) {
				pos++
			}
			tokens = append(tokens, ExpressionToken{Type: ExprTokenIdentifier, Value: expr[start:pos], Pos: start})
			continue

		case isDigit(c) || (c == '.' && pos+1 < len(expr) && isDigit(expr[pos+1]) && !afterOperand(tokens)):
			start := pos
			seenDot := false
			for pos < len(expr) && (isDigit(expr[pos]) || (expr[pos] == '.' && !seenDot && pos+1 < len(expr) && isDigit(expr[pos+1]))) {
				if expr[pos] == '.' {
					seenDot = true
				}
				pos++
			}
			value := expr[start:pos]
			if strings.HasPrefix(value, ".") {
				value = "0" + value
			}
			tokens = append(tokens, ExpressionToken{Type: ExprTokenNumber, Value: value, Pos: start})
			continue

		case c == '"' || c == '\'':
			value, end, err := scanQuoted(expr, pos)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, ExpressionToken{Type: ExprTokenString, Value: value, Pos: pos})
			pos = end
			continue

		case c == '(':
			tokens = append(tokens, ExpressionToken{Type: ExprTokenLeftParen, Value: "(", Pos: pos})
			pos++
			continue

		case c == ')':
			tokens = append(tokens, ExpressionToken{Type: ExprTokenRightParen, Value: ")", Pos: pos})
			pos++
			continue
		}

		matched := false
		for _, op := range operators {
			if strings.HasPrefix(expr[pos:], op) {
				tokens = append(tokens, ExpressionToken{Type: ExprTokenOperator, Value: op, Pos: pos})
				pos += len(op)
				matched = true
				break
			}
		}
		if !matched {
			return nil, NewParseError("unexpected character", string(c), pos)
		}
	}

	tokens = append(tokens, ExpressionToken{Type: ExprTokenEOF, Pos: pos})
	return tokens, nil
}

// scanQuoted reads a quoted string starting at pos, returning its unescaped value and the
// position after the closing quote.
func scanQuoted(expr string, pos int) (string, int, error) {
	quote := expr[pos]
	var sb strings.Builder
	i := pos + 1
	for i < len(expr) {
		c := expr[i]
		if c == '\\' && i+1 < len(expr) {
			sb.WriteByte(expr[i+1])
			i += 2
			continue
		}
		if c == quote {
			return sb.String(), i + 1, nil
		}
		sb.WriteByte(c)
		i++
	}
	return "", 0, NewParseError("unterminated string", expr[pos:], pos)
}

func afterOperand(tokens []ExpressionToken) bool {
	if len(tokens) == 0 {
		return false
	}
	last := tokens[len(tokens)-1]
	switch last.Type {
	case ExprTokenIdentifier, ExprTokenNumber, ExprTokenString, ExprTokenRightParen:
		return true
	case ExprTokenOperator:
		return last.Value == "]"
	}
	return false
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// ParseExpression parses an expression string into an AST and requires every token to be
// consumed.
func ParseExpression(expr string) (ExpressionNode, error) {
	tokens, err := TokenizeExpression(expr)
	if err != nil {
		return nil, err
	}

	parser := &ExpressionParser{tokens: tokens}
	node, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}

	if tok := parser.current(); tok.Type != ExprTokenEOF {
		return nil, NewParseError("unexpected trailing token", tok.Value, tok.Pos)
	}
	return node, nil
}

// ExpressionParser parses expressions into AST nodes
type ExpressionParser struct {
	tokens []ExpressionToken
	pos    int
}

func (p *ExpressionParser) current() ExpressionToken {
	if p.pos >= len(p.tokens) {
		return ExpressionToken{Type: ExprTokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *ExpressionParser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *ExpressionParser) atOperator(ops ...string) (string, bool) {
	tok := p.current()
	if tok.Type != ExprTokenOperator {
		return "", false
	}
	for _, op := range ops {
		if tok.Value == op {
			return op, true
		}
	}
	return "", false
}

// binaryLevel parses one left-associative precedence level.
func (p *ExpressionParser) binaryLevel(next func() (ExpressionNode, error), ops ...string) (ExpressionNode, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.atOperator(ops...)
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &BinaryOpNode{Left: left, Operator: op, Right: right}
	}
}

func (p *ExpressionParser) parseExpression() (ExpressionNode, error) {
	return p.parseLogicalOr()
}

func (p *ExpressionParser) parseLogicalOr() (ExpressionNode, error) {
	return p.binaryLevel(p.parseLogicalAnd, "||", "|")
}

func (p *ExpressionParser) parseLogicalAnd() (ExpressionNode, error) {
	return p.binaryLevel(p.parseEquality, "&&", "&")
}

func (p *ExpressionParser) parseEquality() (ExpressionNode, error) {
	return p.binaryLevel(p.parseComparison, "===", "!==", "==", "!=")
}

func (p *ExpressionParser) parseComparison() (ExpressionNode, error) {
	return p.binaryLevel(p.parseTerm, "<", ">", "<=", ">=")
}

func (p *ExpressionParser) parseTerm() (ExpressionNode, error) {
	return p.binaryLevel(p.parseFactor, "+", "-")
}

func (p *ExpressionParser) parseFactor() (ExpressionNode, error) {
	return p.binaryLevel(p.parseUnary, "*", "/", "%")
}

func (p *ExpressionParser) parseUnary() (ExpressionNode, error) {
	if op, ok := p.atOperator("!", "-", "+"); ok {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOpNode{Operator: op, Operand: operand}, nil
	}
	return p.parseFieldAccess()
}

// parseFieldAccess parses field access expressions (obj.field, obj[key])
func (p *ExpressionParser) parseFieldAccess() (ExpressionNode, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		if _, ok := p.atOperator("."); ok {
			p.advance()
			tok := p.current()
			if tok.Type != ExprTokenIdentifier {
				return nil, NewParseError("expected identifier after '.'", tok.Value, tok.Pos)
			}
			p.advance()
			left = &FieldAccessNode{Object: left, Field: tok.Value}
			continue
		}
		if _, ok := p.atOperator("["); ok {
			p.advance()
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, ok := p.atOperator("]"); !ok {
				tok := p.current()
				return nil, NewParseError("expected ']' after index", tok.Value, tok.Pos)
			}
			p.advance()
			left = &IndexAccessNode{Object: left, Index: index}
			continue
		}
		return left, nil
	}
}

// parsePrimary parses literals, identifiers and parenthesized expressions
func (p *ExpressionParser) parsePrimary() (ExpressionNode, error) {
	token := p.current()

	switch token.Type {
	case ExprTokenNumber:
		p.advance()
		if intVal, err := strconv.Atoi(token.Value); err == nil {
			return &LiteralNode{Value: intVal}, nil
		}
		if floatVal, err := strconv.ParseFloat(token.Value, 64); err == nil {
			return &LiteralNode{Value: floatVal}, nil
		}
		return nil, NewParseError("invalid number", token.Value, token.Pos)

	case ExprTokenString:
		p.advance()
		return &LiteralNode{Value: token.Value}, nil

	case ExprTokenIdentifier:
		p.advance()
		switch token.Value {
		case "true":
			return &LiteralNode{Value: true}, nil
		case "false":
			return &LiteralNode{Value: false}, nil
		case "null", "nil", "undefined":
			return &LiteralNode{Value: nil}, nil
		}
		if p.current().Type == ExprTokenLeftParen {
			return nil, NewParseError("function calls are not supported", token.Value, token.Pos)
		}
		return &IdentifierNode{Name: token.Value}, nil

	case ExprTokenLeftParen:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.current().Type != ExprTokenRightParen {
			tok := p.current()
			return nil, NewParseError("expected ')' after expression", tok.Value, tok.Pos)
		}
		p.advance()
		return expr, nil

	case ExprTokenEOF:
		return nil, NewParseError("unexpected end of expression", "", token.Pos)

	default:
		return nil, NewParseError("unexpected token", token.Value, token.Pos)
	}
}

// EvaluateBinaryOperation evaluates a non-logical binary operation between two values
func EvaluateBinaryOperation(left interface{}, operator string, right interface{}) (interface{}, error) {
	switch operator {
	case "==", "===":
		return looseEquals(left, right), nil
	case "!=", "!==":
		return !looseEquals(left, right), nil
	case "<", ">", "<=", ">=":
		return compare(left, operator, right)
	case "+":
		if ls, ok := left.(string); ok {
			return ls + FormatValue(right), nil
		}
		if rs, ok := right.(string); ok {
			return FormatValue(left) + rs, nil
		}
		return arithmetic(left, operator, right)
	case "-", "*", "/", "%":
		return arithmetic(left, operator, right)
	case "&&", "&":
		return isTruthy(left) && isTruthy(right), nil
	case "||", "|":
		return isTruthy(left) || isTruthy(right), nil
	default:
		return nil, fmt.Errorf("unknown binary operator: %s", operator)
	}
}

func arithmetic(left interface{}, operator string, right interface{}) (interface{}, error) {
	l, lok := toFloat64(left)
	r, rok := toFloat64(right)
	if !lok || !rok {
		return nil, fmt.Errorf("cannot apply %s to %T and %T", operator, left, right)
	}

	var result float64
	switch operator {
	case "+":
		result = l + r
	case "-":
		result = l - r
	case "*":
		result = l * r
	case "/":
		if r == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		result = l / r
	case "%":
		if r == 0 {
			return nil, fmt.Errorf("modulo by zero")
		}
		result = math.Mod(l, r)
	}

	if isInteger(left) && isInteger(right) && result == math.Trunc(result) {
		return int(result), nil
	}
	return result, nil
}

func compare(left interface{}, operator string, right interface{}) (interface{}, error) {
	if ls, ok := left.(string); ok {
		if rs, ok := right.(string); ok {
			c := strings.Compare(ls, rs)
			return compareResult(float64(c), 0, operator), nil
		}
	}
	l, lok := toNumber(left)
	r, rok := toNumber(right)
	if !lok || !rok {
		return nil, fmt.Errorf("cannot compare %T and %T", left, right)
	}
	return compareResult(l, r, operator), nil
}

func compareResult(l, r float64, operator string) bool {
	switch operator {
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

// looseEquals compares numbers numerically (numeric strings included) and everything else
// by value.
func looseEquals(left, right interface{}) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}

	if l, ok := toNumber(left); ok {
		if r, ok := toNumber(right); ok {
			_, ls := left.(string)
			_, rs := right.(string)
			if !(ls && rs) {
				return l == r
			}
		}
	}

	lt, rt := reflect.TypeOf(left), reflect.TypeOf(right)
	if lt == rt && lt.Comparable() {
		return left == right
	}
	return reflect.DeepEqual(left, right)
}

// toNumber extends toFloat64 to numeric strings.
func toNumber(val interface{}) (float64, bool) {
	if f, ok := toFloat64(val); ok {
		return f, true
	}
	if s, ok := val.(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func toFloat64(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func toInt(val interface{}) (int, bool) {
	f, ok := toFloat64(val)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func isInteger(val interface{}) bool {
	switch val.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

func isTruthy(val interface{}) bool {
	if val == nil {
		return false
	}

	switch v := val.(type) {
	case bool:
		return v
	case string:
		return v != ""
	}
	if f, ok := toFloat64(val); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}
