// Package optimize defines the trajectory-optimization contract of the
// receding-horizon loop and its built-in optimizers.
//
// An Optimizer solves one horizon-length problem per NextDispatch call and
// reports the decision for the step immediately after the supplied initial
// state. Variable orderings are fixed at construction, so callers can zip
// names to values without re-querying.
package optimize
