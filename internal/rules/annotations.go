package rules

// Annotations supplies knowledge the comment text cannot: whether a method
// returns a newly constructed instance. name is the entity's full name, such
// as "Array#dup" or "File.open". known is false when nothing is recorded, and
// the check that needs the answer is skipped.
type Annotations interface {
	ConstructsNew(name string) (value, known bool)
}

// NoAnnotations knows nothing.
type NoAnnotations struct{}

func (NoAnnotations) ConstructsNew(string) (bool, bool) { return false, false }

// AnnotationMap is an in-memory Annotations.
type AnnotationMap map[string]bool

func (m AnnotationMap) ConstructsNew(name string) (bool, bool) {
	v, ok := m[name]
	return v, ok
}
