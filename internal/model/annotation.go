package model

// AnnotationStatus tags the outcome of the text-generation step.
type AnnotationStatus int

const (
	AnnotationOk AnnotationStatus = iota
	AnnotationMalformed
	AnnotationUnavailable
)

func (s AnnotationStatus) String() string {
	switch s {
	case AnnotationOk:
		return "ok"
	case AnnotationMalformed:
		return "malformed"
	case AnnotationUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// Annotation is the untrusted narrative text proposed for one signature.
type Annotation struct {
	ProbableRootCause string `json:"probable_root_cause"`
	Recommendation    string `json:"recommendation"`
}

// AnnotationResult is one of Ok(Annotations), Malformed(RawText) or Unavailable(Err).
type AnnotationResult struct {
	Status      AnnotationStatus
	Annotations map[string]Annotation
	Commentary  string
	RawText     string
	Err         error
}

func AnnotationsOk(annotations map[string]Annotation, commentary string) AnnotationResult {
	if annotations == nil {
		annotations = map[string]Annotation{}
	}
	return AnnotationResult{Status: AnnotationOk, Annotations: annotations, Commentary: commentary}
}

func AnnotationsMalformed(raw string, err error) AnnotationResult {
	return AnnotationResult{Status: AnnotationMalformed, RawText: raw, Err: err}
}

func AnnotationsUnavailable(err error) AnnotationResult {
	return AnnotationResult{Status: AnnotationUnavailable, Err: err}
}
