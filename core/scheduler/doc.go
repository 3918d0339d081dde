// Package scheduler assigns rakes to routes with a single-pass greedy
// heuristic and computes fleet performance metrics.
//
// Every operation takes the Constraints it applies as an explicit argument.
// A Scheduler only carries collaborators (clock, ID generator, logger), so
// one value can be shared across goroutines. The operations never fail: they
// return safe defaults on degenerate input. Callers own the rake and
// schedule slices and must serialize concurrent mutations of them.
package scheduler
