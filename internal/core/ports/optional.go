package ports

// Optional carries a patch field. Set=false means the caller did not send the
// field and the stored value must stay as is. Set=true with a zero Value means
// the caller cleared it.
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}
