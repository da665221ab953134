// Package proc wraps one supervised child process.
//
// Full process-group termination is only guaranteed on Linux, where the child
// runs in its own process group and signals reach every member. On macOS the
// same mechanism is best-effort; on Windows only the direct child is
// terminated, and any grandchildren it spawned must be cleaned up separately
// by the caller.
package proc
