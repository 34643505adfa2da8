package errors

// Result carries either a value or the reason it could not be produced
type Result[T any] struct {
	Value  T
	Reason error
}

// Ok wraps a successful value
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps a failure reason
func Fail[T any](reason error) Result[T] {
	return Result[T]{Reason: reason}
}

// Try runs fn and captures its outcome
func Try[T any](fn func() (T, error)) Result[T] {
	v, err := fn()
	if err != nil {
		return Fail[T](err)
	}
	return Ok(v)
}

// OK reports whether the result holds a value
func (r Result[T]) OK() bool {
	return r.Reason == nil
}

// Collapse returns the value, or fallback when the result failed. Each
// onFailure hook sees the reason first, typically to log the degrade.
func Collapse[T any](r Result[T], fallback T, onFailure ...func(error)) T {
	if r.Reason == nil {
		return r.Value
	}
	for _, hook := range onFailure {
		hook(r.Reason)
	}
	return fallback
}
