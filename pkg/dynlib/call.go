package dynlib

import "fmt"

// MaxInt32Args is the largest arity Int32Func can bind.
const MaxInt32Args = 4

// Int32Func binds symbol as a C function taking arity int32 arguments and
// returning int32. The returned func panics if called with a different
// number of arguments.
func (l *Library) Int32Func(symbol string, arity int) (func(args ...int32) int32, error) {
	switch arity {
	case 0:
		var fn func() int32
		if err := l.Bind(&fn, symbol); err != nil {
			return nil, err
		}
		return func(args ...int32) int32 {
			mustArity(symbol, args, 0)
			return fn()
		}, nil
	case 1:
		var fn func(int32) int32
		if err := l.Bind(&fn, symbol); err != nil {
			return nil, err
		}
		return func(args ...int32) int32 {
			mustArity(symbol, args, 1)
			return fn(args[0])
		}, nil
	case 2:
		var fn func(int32, int32) int32
		if err := l.Bind(&fn, symbol); err != nil {
			return nil, err
		}
		return func(args ...int32) int32 {
			mustArity(symbol, args, 2)
			return fn(args[0], args[1])
		}, nil
	case 3:
		var fn func(int32, int32, int32) int32
		if err := l.Bind(&fn, symbol); err != nil {
			return nil, err
		}
		return func(args ...int32) int32 {
			mustArity(symbol, args, 3)
			return fn(args[0], args[1], args[2])
		}, nil
	case 4:
		var fn func(int32, int32, int32, int32) int32
		if err := l.Bind(&fn, symbol); err != nil {
			return nil, err
		}
		return func(args ...int32) int32 {
			mustArity(symbol, args, 4)
			return fn(args[0], args[1], args[2], args[3])
		}, nil
	}
	return nil, fmt.Errorf("%w: %s takes %d arguments, at most %d supported",
		ErrInvalidBinding, symbol, arity, MaxInt32Args)
}

func mustArity(symbol string, args []int32, n int) {
	if len(args) != n {
		panic(fmt.Sprintf("%s called with %d arguments, bound with %d", symbol, len(args), n))
	}
}
