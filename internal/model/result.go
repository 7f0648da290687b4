package model

// Result is what a lenient client boundary hands back. Failures there are
// logged and absorbed: Err records what went wrong, Value is the zero value.
// A zero Result means the call was never made.
type Result[T any] struct {
	Value     T
	Err       error
	Attempted bool
}

func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v, Attempted: true}
}

func Failed[T any](err error) Result[T] {
	return Result[T]{Err: err, Attempted: true}
}

// OK reports whether the call was made and succeeded.
func (r Result[T]) OK() bool {
	return r.Attempted && r.Err == nil
}
