package monitors

import (
	"fmt"
	"os"
)

// CheckUploadDir verifies that dir exists and accepts new files.
func CheckUploadDir(dir string) error {
	info, err := os.Stat(dir)

	if err != nil {
		return fmt.Errorf("upload directory unavailable: %v", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("upload path %s is not a directory", dir)
	}

	probe, err := os.CreateTemp(dir, ".ready-*")

	if err != nil {
		return fmt.Errorf("upload directory not writable: %v", err)
	}

	name := probe.Name()
	probe.Close()

	return os.Remove(name)
}
