// Package dispatch composes one trajectory optimizer with a set of named
// reward forecasters and drives the receding-horizon loop: gather one horizon
// of forecasts, solve, commit the first step, feed the committed state back
// into the next step.
package dispatch
