// Package session implements editing sessions over one item of an API
// definition.
//
// A [Session] edits an item of a list-backed container (an endpoint inside a
// group, or a group inside the proxy):
//
//   - Open resolves the item by key, first match wins. A miss opens the
//     session in creation mode on a deep copy of the supplied defaults.
//   - The session keeps a deep snapshot of the item and of its sibling list.
//   - Commit inserts a new item into the container before persisting the
//     whole API, then adopts the definition returned by the Persister.
//   - Revert restores both the item and the sibling list from the snapshots.
//
// A [TemplateSession] edits the response templates of one template key. Its
// rows are derived from the API and rebuilt into the API on commit; an empty
// set of rows removes the key.
//
// Persist failures are returned to the caller unchanged. An item inserted
// before the failing call stays in the container. Only one commit may be in
// flight per session.
package session
