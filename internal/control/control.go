// Package control manages the control file used to signal a running
// supervisor from other rstrtr invocations. The file is a mailbox: its
// content never matters, only writes to it and its removal.
package control

import (
	"fmt"
	"os"
)

// payload is what every write leaves in the control file. Watchers react to
// the write itself, not the content.
const payload = "\n"

// Init creates or truncates the control file at path. The supervisor calls
// this once at startup so that restart/quit invocations have something to
// write to or delete. A missing or unwritable parent directory is a fatal
// configuration error for the run.
func Init(path string) error {
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		return fmt.Errorf("create control file %s: %w", path, err)
	}
	return nil
}

// Signal overwrites the control file, which a watching supervisor interprets
// as a restart request. It fails if the file's directory does not exist,
// which usually means no supervisor ever ran here.
func Signal(path string) error {
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		return fmt.Errorf("signal control file %s: %w", path, err)
	}
	return nil
}

// Remove deletes the control file, which a watching supervisor interprets as
// a quit request. Deleting a file that does not exist is an error: there is
// nothing to quit.
func Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove control file %s: %w", path, err)
	}
	return nil
}
