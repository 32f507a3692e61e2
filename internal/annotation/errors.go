package annotation

import "errors"

// ErrAnnotationAborted is returned when the annotator failed and the run is
// configured to stop instead of degrading to local results.
var ErrAnnotationAborted = errors.New("annotation step failed and abort on failure is enabled")
