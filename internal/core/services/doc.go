// Package services implements the application core: building corpus
// snapshots and answering queries against them.
//
// Services depend only on domain types, driven ports, and the pure
// chunking/normalising/index packages. All I/O goes through ports.
package services
