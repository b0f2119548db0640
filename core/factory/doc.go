// Package factory provides a small generic registry used to instantiate
// modules from configuration. A module is declared by a type tag and a map of
// raw settings; factories decode the settings into typed structs and return
// the concrete implementation. Registries are populated at process startup,
// so composition is an explicit lookup rather than a directory scan.
package factory
