// Package factgraph implements a declarative fact graph: a frozen
// Dictionary of writable and derived facts, evaluated lazily against a
// mutable Store through a closed, typed Expression algebra.
//
// Typical use is as follows:
//
//  1. Declare a Dictionary of FactDefinitions describing every writable
//     and derived fact your domain needs.
//  2. Freeze the Dictionary.
//  3. Build a Graph from the frozen Dictionary and a Store.
//  4. Set writable facts, or Load a previously serialized Store.
//  5. Get or GetVector derived and writable facts; the Graph evaluates
//     and memoizes lazily.
//  6. Save the Store back to JSON when the caller is done mutating it.
//
// # Completeness
//
// Every evaluated fact carries not just a value but one of three
// completeness states: Complete, Placeholder, or Incomplete. A derived
// fact whose inputs are all present is Complete; a writable fact with no
// stored value but a declared Placeholder expression yields a Placeholder
// value, and facts derived from it are Placeholder too; a fact with no
// way to produce even a best guess is Incomplete. This tri-state propagates through every operator in the
// expression algebra so that "we don't know yet" is never confused with
// "we know the answer is zero" or "we know the answer is false".
//
// # Dictionary Ownership and Modification
//
// A Dictionary must be frozen before it can back a Graph, and once
// frozen it never changes: adding, removing, or redefining a fact means
// building a new Dictionary generation and moving existing Stores to it
// through the Migration mechanism, never mutating a live Dictionary in
// place. This mirrors why the migration registry insists on a
// contiguous, gapless numbering — a Store's migration level is the only
// record of which Dictionary generation it was last consistent with.
//
// # Collections and Wildcards
//
// Facts under a repeating group are declared once, at an abstract path
// containing a wildcard segment, and evaluated once per concrete member.
// Expressions that read across a wildcard vectorize automatically: an
// operator applied to a Multiple(...) input produces a Multiple(...)
// output of the same shape, and combining two vectors of different
// shapes not related by one being Single is a ShapeMismatch, never a
// silent truncation.
package factgraph
