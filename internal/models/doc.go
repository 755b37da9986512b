// Package models defines the core domain records for Tabsplit.
//
// # Models
//
//   - Session: one bill being split, with its items, participants and global settings
//   - Item: a priced line of the bill with per-participant assignments
//   - Participant: a person sharing the bill, identified by a generated ID
//   - User: a registered account that owns sessions
//
// # Design Principles
//
//  1. **Explicit records**: every field is typed; nothing is carried in open maps
//  2. **IDs over pointers**: relationships use ID strings, never pointers between records
//  3. **Ordered assignments**: an item's assignments keep insertion order so that
//     anything summed over them is reproducible bit for bit
//  4. **No behaviour**: mutation rules live in the session package, arithmetic in calculator
package models
