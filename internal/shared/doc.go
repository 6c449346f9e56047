// Package shared holds helpers used across opsdash packages that belong to no
// single layer.
//
// The testutil subpackage provides a capturing slog handler for asserting
// log output and CSV fixtures for the six operational datasets:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    dir := testutil.WriteDatasetDir(t, nil)
//	    ...
//	    testutil.AssertNoErrors(t, logs)
//	}
package shared
