// Package stagecache decides whether an artifact-producing stage has to run.
//
// The presence of the output file is the only signal: an existing artifact is
// trusted as-is unless an overwrite was requested, in which case it is removed
// and produced again. Each artifact is judged on its own; regenerating an
// upstream artifact never invalidates a downstream one.
package stagecache

import (
	"errors"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// Action is the outcome of resolving an artifact path
type Action int

const (
	Generate   Action = iota // Artifact is absent, produce it
	Skip                     // Artifact is present, keep it
	Regenerate               // Artifact is present but overwrite was requested
)

func (a Action) String() string {
	switch a {
	case Generate:
		return "generate"
	case Skip:
		return "skip"
	case Regenerate:
		return "regenerate"
	}
	return "unknown"
}

// Resolve returns the action for the artifact at path.
func Resolve(path string, overwrite bool) (Action, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Generate, nil
	}
	if err != nil {
		return Generate, eris.Wrapf(err, "stat %s", path)
	}
	if info.IsDir() {
		return Generate, eris.Errorf("%s is a directory, not an artifact", path)
	}
	if overwrite {
		return Regenerate, nil
	}
	return Skip, nil
}

// Prepare resolves path and applies the action: a Regenerate deletes the
// existing file. It reports whether the stage has to produce the artifact.
func Prepare(path string, overwrite bool, log logrus.FieldLogger) (bool, error) {
	action, err := Resolve(path, overwrite)
	if err != nil {
		return false, err
	}

	switch action {
	case Skip:
		if log != nil {
			log.Debugf("%s exists, skipping", path)
		}
		return false, nil
	case Regenerate:
		if err := os.Remove(path); err != nil {
			return false, eris.Wrapf(err, "remove %s", path)
		}
		if log != nil {
			log.Debugf("%s exists and we are deleting it.", path)
		}
	}
	return true, nil
}
