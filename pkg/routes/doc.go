// Package routes implements ports.Router over a static table of URL patterns.
package routes
