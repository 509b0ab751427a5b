// Package query implements the filter expression model and the fluent
// builder that produces restq wire envelopes.
//
// A Builder accumulates clauses into an Expression, an ordered mapping from
// clause kind to the clauses registered under that kind. Kinds appear in the
// serialized output in the order they were first used, and clauses of one
// kind keep their append order.
//
// Clause variants:
//   - Comparison: [column, operator, value] under where/orwhere/wheredate/orwheredate
//   - SubQuery: {"method": "query", "params": {...}} for nested groups
//   - Membership: [column, [values...]] under in/notin
//   - Existence: "relation" or {"column": relation, "match": SubQuery} under the has family
//   - ColumnRef: bare column names under the null checks and groupby
//   - Range: [column, [low, high]] under between
//   - JoinClause: [table, first, operator, second] under join
//
// Sort and limit are single records; the latest call overwrites them.
//
// The builder never validates what callers pass it, with one exception:
// Aggregate rejects methods outside count, min, max, sum and avg. Values are
// forwarded verbatim and the backend is trusted to interpret them.
//
// Envelope serializes a builder into the request body shape
//
//	{"_query": "<expression JSON>", "_hidden": [...], "_columns": [...]}
//
// where _query is itself a JSON string. ParseExpression reverses the _query
// encoding.
package query
