// Package folio defines the canonical records shared by every stage of the
// statement consolidation pipeline.
//
// Broker statements come in heterogeneous layouts. Each layout is handled by
// an adapter (see package broker) that turns the statement text into a
// Statement: one Account, its Positions, its Transactions and the
// Valuations reported by the broker. Statements from all documents are then
// merged by package reconcile into a single Portfolio, valued in one base
// currency, and reshaped for presentation by package report.
//
// Amounts are exact: Money and Quantity wrap decimal numbers and Money
// always carries an explicit ISO 4217 currency.
//
// Issues found along the way never abort a run. They are collected as
// Warning values, whose Kind tells whether the document could contribute to
// the portfolio or not.
package folio
