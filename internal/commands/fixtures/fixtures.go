package fixtures

// RecordingRegistry captures command handlers passed to RegisterCommand.
type RecordingRegistry struct {
	Handlers []any
	Err      error
}

func NewRecordingRegistry() *RecordingRegistry {
	return &RecordingRegistry{
		Handlers: make([]any, 0),
	}
}

// RegisterCommand records the handler, or fails with Err when set.
func (r *RecordingRegistry) RegisterCommand(handler any) error {
	if r.Err != nil {
		return r.Err
	}
	r.Handlers = append(r.Handlers, handler)
	return nil
}
