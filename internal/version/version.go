// ABOUTME: Version information for Resonate DAW
// ABOUTME: Single source of truth for version strings
package version

const (
	// Version is the current version of Resonate DAW
	Version = "0.1.0"

	// Product is the product name
	Product = "Resonate DAW"
)
