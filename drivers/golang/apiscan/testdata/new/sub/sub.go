package sub

import "fmt"

// SubFunc no longer returns anything.
func SubFunc(x int) {}

// SubType no longer embeds io.Reader.
type SubType struct {
	fmt.Stringer

	Value string
}
