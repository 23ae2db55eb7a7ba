package tempo

import (
	"html"
	"strings"
)

// EvaluateCondition evaluates expr against item and reports whether it is truthy. The text
// is HTML-unescaped first, since conditions are read back out of serialized markup.
//
// Bare identifiers resolve to the item's top-level fields. Any failure (syntax, an
// identifier the item does not carry, a type mismatch) returns false together with an
// *ExpressionError.
func EvaluateCondition(expr string, item interface{}) (bool, error) {
	source := strings.TrimSpace(html.UnescapeString(expr))

	node, err := ParseExpression(source)
	if err != nil {
		return false, NewExpressionError(source, fieldNames(item), err)
	}

	val, err := node.Evaluate(ItemScope{Item: item})
	if err != nil {
		return false, NewExpressionError(source, fieldNames(item), err)
	}
	return isTruthy(val), nil
}
