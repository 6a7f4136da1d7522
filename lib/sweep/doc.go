// Package sweep provides the maintenance sweep over the reserved table of a store.
//
// A Scheduler waits for a ready signal, runs its Handler once and then every interval
// (one hour by default) until it is stopped. The default handler ExpiredResidue removes
// leftover bookkeeping rows, i.e. objects in the reserved table whose "expiresAt"
// (unix milliseconds) has passed.
//
// Sweep errors are logged and never stop the loop.
package sweep
