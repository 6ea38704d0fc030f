// Package remote provides the HTTP client for the collection store.
//
// The store exposes three endpoints under a configurable collection path:
//
//	GET    /collection       JSON array of {id, name, ownerId?}
//	POST   /collection       JSON body {id, name, ownerId}
//	DELETE /collection/{id}
//
// Any status outside 2xx is reported as a *StatusError. Read responses are
// checked against ItemListSchema before decoding; a body that does not match
// yields an error wrapping ErrMalformedPayload, so loosely typed payloads never
// reach the caller as items.
//
// Requests optionally pass through a token bucket limiter (RateLimit/RateBurst).
// The client never retries.
package remote
