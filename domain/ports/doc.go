// Package ports defines the interfaces through which the bridge core talks
// to its collaborators: the embedded script runtime, bundle loaders,
// capability packages and the embedding application's callbacks. The core
// depends only on these interfaces; concrete implementations live in their
// own packages.
package ports
