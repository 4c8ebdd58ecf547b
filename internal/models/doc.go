// Package models defines the persisted records of tripsplit.
//
// # Records
//
//   - Trip: a shared budget with one base currency
//   - Participant: a user, guest or group that can hold a balance in a trip
//   - Expense / ExpenseSplit: money one participant paid, and who owes it
//   - Settlement: a manually recorded payment between two participants
//
// Balances and suggested settlements are never stored. They are derived on
// demand from a TripSnapshot by the calculator package.
//
// # Design Principles
//
//  1. Use ID strings instead of pointers for relationships
//  2. Monetary values are decimal.Decimal and stored as exact text
//  3. A participant is identified by (ID, Kind); a group is one balance line,
//     its member names are informational only
package models
