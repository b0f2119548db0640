// Package forecast defines the reward/price forecasting contract of the
// receding-horizon loop and its built-in implementations.
//
// A Forecaster serves one horizon worth of samples per GenReward call and
// counts how many horizons it has served. Replay-based forecasters use that
// counter to window their underlying data, which keeps the contract
// argument-free: no clock or step index has to be threaded through callers.
package forecast
