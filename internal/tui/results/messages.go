package results

// SetEditorQueryMsg puts Query in the editor. Run executes it as well, which
// is what the cell filter asks for.
type SetEditorQueryMsg struct {
	Query string
	Run   bool
}

// StatusNotifyMsg is a one-line outcome of a background export.
type StatusNotifyMsg struct {
	Message string
	Failed  bool
}
