package processing

// Source sends items on the channel. The channel is closed by the caller after Read returns.
type Source[T any] interface {
	Read(chan<- T) error
}

// Target consumes items until the channel is closed.
type Target[U any] interface {
	Write(<-chan U) error
}

// ProcessFunc turns one input item into zero or more output items.
type ProcessFunc[T, U any] func(T) ([]U, error)
