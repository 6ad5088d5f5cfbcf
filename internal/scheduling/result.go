// Package scheduling orchestrates the four scheduling use-cases (spec
// §4.I): single-machine schedule, all-machine schedule, prioritize, and
// recalculate dates.
package scheduling

// Result is the uniform result envelope every use-case returns
// (spec §7): exceptions inside the core are caught at the use-case
// boundary and converted to Success=false with a descriptive message.
// Warnings are logged but never set Success=false.
type Result struct {
	Success bool
	Message string
	Action  string
	Data    map[string]interface{}
}

func ok(action, message string, data map[string]interface{}) Result {
	return Result{Success: true, Message: message, Action: action, Data: data}
}

func fail(action, message string) Result {
	return Result{Success: false, Message: message, Action: action}
}
