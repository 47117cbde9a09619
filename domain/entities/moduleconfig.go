package entities

// ConfigGlobalName is the well-known global under which the module
// configuration document is installed into the script runtime. It must be
// set before any bundle code runs; bundles may reference module ids from it
// at load time.
const ConfigGlobalName = "__hostBridgeConfig"

// MethodDescriptor names a single invocable method and its wire id.
type MethodDescriptor struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ModuleDescriptor describes one module (capability or script side) in the
// module configuration document. IDs are assigned in registration order,
// zero-based, and are stable for the lifetime of the session.
type ModuleDescriptor struct {
	ID      int                `json:"id"`
	Name    string             `json:"name"`
	Methods []MethodDescriptor `json:"methods"`
}

// ModuleConfig is the module configuration document exchanged with the
// script runtime at session startup. RemoteModuleConfig lists the native
// capability modules callable from script; LocalModulesConfig lists the
// script modules the host may invoke.
type ModuleConfig struct {
	RemoteModuleConfig []ModuleDescriptor `json:"remoteModuleConfig"`
	LocalModulesConfig []ModuleDescriptor `json:"localModulesConfig"`
}
