package stack

type functionID string

func (id functionID) FunctionID() string {
	return string(id)
}

func (id functionID) Record(...recordOption) string {
	return string(id)
}

// FunctionID returns a Caller with predefined id. Empty id means the caller of FunctionID.
func FunctionID(id string) Caller {
	if id != "" {
		return functionID(id)
	}

	return Call(1)
}
