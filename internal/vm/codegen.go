package vm

// Render walks a Module in emission order and asks every operation to produce its own
// VM text line. Each Operation already validates and formats itself (see vm.go), so
// there is nothing left here to dispatch on a type switch: a new operation kind only
// needs an 'emit' method, never a matching case in this function.
func Render(m Module) ([]string, error) {
	lines := make([]string, 0, len(m))
	for _, op := range m {
		line, err := op.emit()
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}
