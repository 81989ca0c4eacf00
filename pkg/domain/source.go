package domain

type SourceKind string

const (
	SourceKindIndividual SourceKind = "individual"
	SourceKindGroup      SourceKind = "group"
)

// Source is a conversation identity. All session state is namespaced by ID.
type Source struct {
	ID   string
	Kind SourceKind
}

func (s Source) IsGroup() bool {
	return s.Kind == SourceKindGroup
}
