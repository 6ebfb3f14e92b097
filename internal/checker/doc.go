// Package checker implements the reconnaissance engine.
//
// Architecture overview:
//
//   - Engine exposes three read-only probes: CheckWebsite (one HTTP GET, no
//     redirects), CheckPort (TCP connect) and GrabBanner (connect, send a
//     minimal HTTP request, read once).
//   - Every probe is bounded by its own timeout and always releases its
//     connection. Failures never surface as Go errors; they are classified
//     into stable Message/Status/Error fields on the result.
//   - The optional destination guard rejects dials whose resolved address is
//     loopback or private, so a public name that resolves inward is refused
//     at connect time.
//   - Runner fans CheckPort out over many ports with a worker semaphore and a
//     shared rate limiter, for the CLI's batch scan.
//
// The engine holds no per-request state; one Engine value is shared by all
// concurrent requests.
package checker
