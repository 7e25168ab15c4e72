// Package translate turns a query tree over one entity source into remote
// filter sets plus a residual query the caller runs over the fetched items.
//
// A translation is a pipeline over the call chain:
// 1. Plan which Where, Select, ordering and paging calls fold into remote
//    directives (CallManager tracks runs of same-kind calls)
// 2. Read the columns of the first pushed Select
// 3. Legalize the combined predicate: push negations to the leaves, drop
//    what the remote grammar cannot express
// 4. Reduce the legal tree into one set plus overflow expressions, and
//    recurse on each overflow
// 5. Let the Helper shape the sets, then validate every record
// 6. Fold orderings and paging when the result is a single set
//
// The union of the produced sets is always a superset of the true result.
// When it is not exact, Result.Illegal is set and the predicate stays in
// Result.Residual for local re-evaluation.
//
// Strict mode turns every silent drop into an *Error; NOT_A_QUERY is
// raised in every mode.
package translate
