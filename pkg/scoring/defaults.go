package scoring

// DefaultEngine returns an engine with default weights and the built-in
// reference price table.
func DefaultEngine() *Engine {
	e, err := NewEngine(Defaults(), DefaultReferenceTable())
	if err != nil {
		panic("default scoring configuration is invalid: " + err.Error())
	}
	return e
}
