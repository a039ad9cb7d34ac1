// Package registry loads navigation specifications from providers once at startup
// and serves them read-only afterwards.
package registry
