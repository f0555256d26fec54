// Package core defines the shared leaf types of the deskmesh delegation
// machinery: conversation messages, oracle routing decisions, delegation
// results, the request-scoped context threaded through a traversal, and the
// error types raised when a delegation is rejected.
//
// Higher layers (worker, router, orchestrator) depend on core; core depends
// on nothing else in this module.
package core
