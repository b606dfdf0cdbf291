// SPDX-License-Identifier: MPL-2.0

// Package issue provides structured, user-facing error types and a catalog
// of known failure classes with rendered remediation cards.
package issue
