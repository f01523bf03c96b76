// Package sanitizer normalizes user-submitted agency data before validation and storage.
//
// All normalization functions are idempotent - applying them multiple times produces
// the same result. Invalid input is handled gracefully, typically by returning an
// empty string or an empty slice rather than an error; validation decides what is
// required.
//
// Normalization includes:
//   - Phone numbers: E.164 format (+[country][number]) when the number is possible
//   - URLs: HTTPS, lowercase host, path preserved
//   - Strings: collapse whitespace, trim leading/trailing spaces
//   - Emails: trimmed and lower-cased
//   - Genres and amenities: lower-cased, deduplicated
//   - Slugs: lowercase ASCII words joined by hyphens ("DJ Nova!" becomes "dj-nova")
package sanitizer
