package helpers

// ConfigOption changes one setting of a T. Constructors take options as a variadic list and
// pass them to ApplyOptions.
type ConfigOption[T any] interface {
	Configure(*T) error
}

// ConfigOptionFunc adapts a plain function to ConfigOption.
type ConfigOptionFunc[T any] func(*T) error

func (f ConfigOptionFunc[T]) Configure(target *T) error { return f(target) }

// ApplyOptions applies options to target in order and stops at the first error. The separate
// type parameter O lets callers pass a slice of their own named option type.
func ApplyOptions[T any, O ConfigOption[T]](target *T, options ...O) error {
	for i := range options {
		if err := options[i].Configure(target); err != nil {
			return err
		}
	}
	return nil
}
