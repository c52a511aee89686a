// Package app is the operations surface consumed by a shell.
//
// A shell (desktop UI or CLI) renders state and dispatches events; every
// data operation goes through App so that each mutation is immediately
// durable in the store. App composes the store, the config document, the
// open project aggregate, the tagging machine, and the export engine.
package app
