// Package treestore persists forests as content addressed tree files plus a
// small manifest, the way the massif layout persists merklelog: fixed width
// digests in append order, written once and never rewritten.
//
// Each perfect tree becomes two artifacts named by its root digest: a body
// file holding the post order digest sequence behind a fixed header, and an
// element file holding the canonical leaf encodings in leaf order. The body
// alone reproduces and verifies every hash in the tree; the element file is
// what makes element order queries (and therefore exclusion proofs) possible
// after a restart. On load the two are cross checked by recomputing the leaf
// digests.
//
// The manifest enumerates the forest's subtrees in canonical order together
// with the cached forest root. Manifest updates are atomic, write to a
// temporary name then rename, so a crashed writer leaves the previous forest
// fully intact and authoritative. Tree files referenced by no manifest are
// reclaimed by Sweep.
package treestore
