// Package layla is the client orchestration layer for the Layla OCR
// service. It reconciles "submit now, result later" semantics over the
// service's asynchronous job API: SubmitJob blocks until a terminal
// outcome, SubmitJobAsync returns immediately and reports the outcome
// through a completion callback from a background goroutine. Both paths
// share one poll loop with timeout enforcement, progress surfacing, and
// a closed error taxonomy.
package layla
