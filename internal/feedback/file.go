package feedback

import (
	"os"
	"path/filepath"
)

// WriteFile encodes the artifact and publishes it atomically: the bytes go
// to a temporary file in the target directory, are synced, and only then
// renamed over the final path. A reader can never observe a half-written
// artifact, and a failed encode leaves no file behind.
func WriteFile(path string, a *Artifact) error {
	data, err := Encode(a)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".apfb-*")
	if err != nil {
		return &IoError{Op: "write", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	// Any failure past this point removes the temporary so nothing partial
	// survives at any path.
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &IoError{Op: "write", Path: path, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &IoError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &IoError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// ReadFile reads and decodes an artifact. Filesystem failures surface as
// IoError; decode failures pass through unchanged.
func ReadFile(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IoError{Op: "read", Path: path, Err: err}
	}
	return Decode(data)
}
