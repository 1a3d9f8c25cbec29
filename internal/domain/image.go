package domain

// MaxReferenceImagesPerRole caps how many references a caller may attach for
// each role (subject, environment, style).
const MaxReferenceImagesPerRole = 3

// ReferenceImage is a user-supplied image steering the model. The optimizer
// returns a new value rather than mutating the original.
type ReferenceImage struct {
	Data        []byte `json:"-"`
	MIMEType    string `json:"mime_type"`
	Description string `json:"description,omitempty"`
}
