/*
Package dsl provides a fluent builder for navigation specifications.

Example usage:

	spec, err := dsl.New("test").
		Title("try it out").
		Add("START").Title("Start here").Path("home").On("next", "MID", "Go on").
		Add("MID").Path("about").On("next", "END", "Finish").
		Add("END").Path("home").
		Build()
*/
package dsl
