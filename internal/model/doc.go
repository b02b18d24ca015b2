// Package model provides the value types shared by every tagrel package.
//
// This package contains type definitions and small value helpers only. All
// other internal packages import model; model imports nothing internal.
//
// Key design constraints:
//   - Tags are compared by ID, never by name
//   - TagSet and GroupSet are immutable sorted values; "mutating" helpers
//     return a new set
//   - All JSON tags use snake_case
package model
