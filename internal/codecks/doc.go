// Package codecks provides an HTTP client for the Codecks API.
//
// # Overview
//
// This package issues the three read operations the project cache depends on
// and maps transport and HTTP outcomes to a small, typed failure. It holds no
// state between calls.
//
//   - FetchProject: every deck and card of the account (bootstrap only)
//   - FetchHistory: activities created strictly after a timestamp
//   - FetchCards: current fields for a set of card ids
//
// # Request Handling
//
// All requests share one pipeline:
//
//  1. Build the query document ({"query": {"_root": [{"account": [...]}]}})
//  2. POST it to the API base URL (https://api.codecks.io/ by default)
//  3. Attach X-Account (subdomain) and X-Auth-Token headers
//  4. Enforce a 10 second timeout on the http.Client
//  5. Classify the status; decode the body only on 200
//
// The history window is expressed as a server-side filter,
// activities({"createdAt":{"op":"gt","value":"..."}}), so the payload stays
// bounded by the window rather than the account's lifetime.
//
// # Error Handling
//
// Every failure is returned as a *FetchError whose Kind is one of:
//
//   - KindTimeout: client deadline, context deadline, or HTTP 408
//   - KindTransport: connection-level failure
//   - KindUnauthorized: HTTP 401 or 403
//   - KindNotFound: HTTP 404
//   - KindServerError: HTTP 5xx
//   - KindUnexpected: any other status, malformed JSON, or encoding failures
//
// Use KindOf to classify an error without a type assertion.
//
// The client never retries. The caller (the project cache) owns retry policy,
// which in practice is "try again on the next refresh cycle".
//
// # Logging and Metrics
//
// Each call logs its classified outcome through log/slog; the full query is
// logged at debug level. When a Recorder is configured the outcome and latency
// are also reported there.
//
// # Testing Considerations
//
// Use httptest.Server and pass its URL as Options.BaseURL. Code that depends on
// the client should accept the Fetcher interface so tests can supply canned
// payloads.
package codecks
