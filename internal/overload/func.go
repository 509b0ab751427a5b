package overload

// The FuncN helpers bind a typed handler to a parameter list. Arguments
// arrive already normalized by the matchers, so the type assertions below
// only fail for optional parameters whose default is nil; those yield the
// zero value of the handler's parameter type.

func arg[T any](args []any, i int) T {
	v, _ := args[i].(T)
	return v
}

// Func0 builds a candidate that accepts no arguments.
func Func0[R any](name string, fn func() (R, error)) Candidate[R] {
	return Candidate[R]{
		Name: name,
		Call: func([]any) (R, error) { return fn() },
	}
}

// Func1 builds a one-parameter candidate.
func Func1[A, R any](name string, pa Param, fn func(A) (R, error)) Candidate[R] {
	return Candidate[R]{
		Name:   name,
		Params: []Param{pa},
		Call: func(args []any) (R, error) {
			return fn(arg[A](args, 0))
		},
	}
}

// Func2 builds a two-parameter candidate.
func Func2[A, B, R any](name string, pa, pb Param, fn func(A, B) (R, error)) Candidate[R] {
	return Candidate[R]{
		Name:   name,
		Params: []Param{pa, pb},
		Call: func(args []any) (R, error) {
			return fn(arg[A](args, 0), arg[B](args, 1))
		},
	}
}

// Func3 builds a three-parameter candidate.
func Func3[A, B, C, R any](name string, pa, pb, pc Param, fn func(A, B, C) (R, error)) Candidate[R] {
	return Candidate[R]{
		Name:   name,
		Params: []Param{pa, pb, pc},
		Call: func(args []any) (R, error) {
			return fn(arg[A](args, 0), arg[B](args, 1), arg[C](args, 2))
		},
	}
}

// Func4 builds a four-parameter candidate.
func Func4[A, B, C, D, R any](name string, pa, pb, pc, pd Param, fn func(A, B, C, D) (R, error)) Candidate[R] {
	return Candidate[R]{
		Name:   name,
		Params: []Param{pa, pb, pc, pd},
		Call: func(args []any) (R, error) {
			return fn(arg[A](args, 0), arg[B](args, 1), arg[C](args, 2), arg[D](args, 3))
		},
	}
}
