package dice

import "math"

// Evaluation is the outcome of evaluating an AST.
type Evaluation struct {
	Final  float64
	Type   ResultType
	Traces []TermTrace
}

type evaluator struct {
	source Source
	limits Limits
	input  string
	traces []TermTrace
}

// Evaluate walks node post-order, rolling each dice term through its
// modifier pipeline. Traces are recorded in left-to-right order.
func Evaluate(node Node, source Source, limits Limits, input string) (Evaluation, error) {
	e := &evaluator{source: source, limits: limits.orDefault(), input: input}
	final, err := e.eval(node)
	if err != nil {
		return Evaluation{}, err
	}

	resultType := TypeSum
	// Only a bare success-counting term keeps its type; combined with
	// anything else it is treated as a number.
	if _, bare := node.(*DiceTerm); bare && len(e.traces) == 1 {
		resultType = e.traces[0].Type
	}
	return Evaluation{Final: final, Type: resultType, Traces: e.traces}, nil
}

func (e *evaluator) eval(node Node) (float64, error) {
	switch n := node.(type) {
	case *Literal:
		return float64(n.Value), nil
	case *UnaryMinus:
		value, err := e.eval(n.Operand)
		if err != nil {
			return 0, err
		}
		return -value, nil
	case *BinaryOp:
		left, err := e.eval(n.Left)
		if err != nil {
			return 0, err
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return 0, err
		}
		return e.apply(n, left, right)
	case *DiceTerm:
		trace, err := evaluateTerm(n, e.source, e.limits, e.input)
		if err != nil {
			return 0, err
		}
		e.traces = append(e.traces, trace)
		return float64(trace.Value()), nil
	default:
		return 0, runtimeErrorf(e.input, node.Offset(), "unknown node %T", node)
	}
}

func (e *evaluator) apply(n *BinaryOp, left, right float64) (float64, error) {
	var result float64
	switch n.Op {
	case '+':
		result = left + right
	case '-':
		result = left - right
	case '*':
		result = left * right
	case '/':
		if right == 0 {
			return 0, runtimeErrorf(e.input, n.Pos, "division by zero")
		}
		result = left / right
	default:
		return 0, runtimeErrorf(e.input, n.Pos, "unknown operator %q", string(n.Op))
	}
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return 0, runtimeErrorf(e.input, n.Pos, "result of %q is not a finite number", string(n.Op))
	}
	return result, nil
}
