// Package viz renders simulations and stored runs for the terminal.
//
//   - [ObjectTree]: the object graph as a tree, optionally with variables
//   - [Plot]: one component of a stored trajectory as a line chart
//   - [Progress]: a simulator observer drawing a progress bar
//   - [Theme]: color schemes shared by the renderers
//
// Output is styled with lipgloss and degrades to plain text when the writer
// is not a terminal.
package viz
