// Package classify maps errors returned by an LLM API call into a
// category with a retry recommendation and a suggested wait time.
//
// Classification is a pure function of the error's status code and
// message text. It performs no I/O and holds no state, so it is safe
// to call from any goroutine.
package classify
