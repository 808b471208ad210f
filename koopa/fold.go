package koopa

// Fold applies op to two i32 values with wrapping arithmetic. Div and Mod
// truncate toward zero; the caller rules out a zero divisor.
func Fold(op Op, x, y int32) int32 {
	switch op {
	case Add:
		return x + y
	case Sub:
		return x - y
	case Mul:
		return x * y
	case Div:
		return x / y
	case Mod:
		return x % y
	case Lt:
		return b2i(x < y)
	case Gt:
		return b2i(x > y)
	case Le:
		return b2i(x <= y)
	case Ge:
		return b2i(x >= y)
	case Eq:
		return b2i(x == y)
	case Ne:
		return b2i(x != y)
	case And:
		return x & y
	case Or:
		return x | y
	}

	panic("unexpected operator " + op.String())
}

func b2i(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
