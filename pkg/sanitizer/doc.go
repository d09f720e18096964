// Package sanitizer normalizes free-text form input before it is validated
// and sent to the scheduling API.
//
// All functions are idempotent and never fail: invalid input yields an empty
// string, which the validators downstream then reject.
//
// Normalization includes:
//   - Names and free text: collapse whitespace, trim leading/trailing spaces
//   - Emails: trim and lowercase
//   - Phone numbers: E.164 format (+[country][number])
//   - Insurance identifiers: collapse whitespace, uppercase
package sanitizer
