package helpers

import (
	"fmt"
	"io"
)

// MustFprintln writes to a console-type writer, panicking only if the writer itself fails.
// Command output that cannot be written is not recoverable anyway.
func MustFprintln(w io.Writer, a ...any) {
	if _, err := fmt.Fprintln(w, a...); err != nil {
		panic(err)
	}
}

// MustFprintf is the formatted equivalent of MustFprintln.
func MustFprintf(w io.Writer, format string, a ...any) {
	if _, err := fmt.Fprintf(w, format, a...); err != nil {
		panic(err)
	}
}
