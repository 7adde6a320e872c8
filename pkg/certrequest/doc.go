// Package certrequest tracks a user's certificate request across HTTP
// requests and background work.
//
// State lives in the user's session. A request moves from no pending
// request to pending, then to completed or error. The outcome slot is read
// and cleared once by the status endpoint.
//
// Background tasks report with the RequestID they were started for. Results
// for a superseded request are dropped, so an old task finishing late cannot
// overwrite a newer request.
package certrequest
