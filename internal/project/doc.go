// Package project maintains an in-memory mirror of the current user's
// projects and applies mutations against the remote gateway.
//
// # Consistency policy
//
//   - Load replaces the mirror wholesale and filters to the owner.
//   - CreateProject writes remotely first; the mirror only changes on
//     acknowledgement, so a failed create can never leave a phantom project.
//   - DeleteProject is remote-durable before the local removal, so a deleted
//     project cannot resurrect on the next load.
//   - AddExperiment prepends the returned experiment behind an id-based
//     idempotency guard; duplicate delivery of the same experiment is a
//     no-op.
//
// Every failed gateway call leaves the mirror exactly as it was; there are
// no partially applied mutations. Mutations are serialized per Store
// instance. Observers registered with Subscribe are notified after each
// mirror change.
package project
