package entities

import "fmt"

// Call is the unit of cross-context work exchanged over the bridge.
// ModuleID and MethodID reference entries of the module configuration
// document installed at session startup; Args is an ordered argument list.
// CallbackID, when present, names a script-side callback the receiving
// capability module may invoke exactly once.
type Call struct {
	ModuleID   int   `json:"moduleId"`
	MethodID   int   `json:"methodId"`
	Args       []any `json:"args"`
	CallbackID *int  `json:"callbackId,omitempty"`
}

// String renders a compact diagnostic form used in log output.
func (c Call) String() string {
	if c.CallbackID != nil {
		return fmt.Sprintf("call(module=%d method=%d args=%d cb=%d)", c.ModuleID, c.MethodID, len(c.Args), *c.CallbackID)
	}
	return fmt.Sprintf("call(module=%d method=%d args=%d)", c.ModuleID, c.MethodID, len(c.Args))
}

// CallBatch is an ordered group of calls executed together. The inbound
// direction terminates every batch with a distinguished batch-complete
// signal that carries no payload.
type CallBatch []Call
