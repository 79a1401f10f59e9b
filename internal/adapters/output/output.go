package output

// Printer renders a CLI result to stdout. Implementations receive the
// result structs from internal/core and choose the presentation.
type Printer interface {
	Print(v any) error
}
