package discovery

// TestGroup is one test file and the tests it declares, in declaration order.
type TestGroup struct {
	// Path is the path of the test file.
	Path string

	// Tests holds the test function names.
	Tests []string
}
