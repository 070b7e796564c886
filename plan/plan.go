package plan

// Descriptor is the validator's output (spec.md §3): the database, table,
// requested projection (wildcard preserved as the literal token "*"), and
// an optional compiled predicate. Once produced, a Descriptor is immutable.
type Descriptor struct {
	DB         string
	Table      string
	Projection []string
	Predicate  *Predicate
}
