// Package specfile loads declarative specifications from YAML files.
//
// A file describes one specification:
//
//	name: orientation
//	title: Orientation
//	nodes:
//	  - name: START
//	    path: home
//	    edges:
//	      - event: next
//	        to: UNIT
//	  - name: UNIT
//	    path: unit
//	    behavior: unit-picker
//
// Nodes and edges are plain records unless they name a behavior registered
// with WithBehavior.
package specfile
