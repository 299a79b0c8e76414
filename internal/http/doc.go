// Package http provides HTTP handlers and middleware for the booking API.
//
// The router exposes the following endpoints:
//   - POST /login: issues a session token. Body: {"email","password"}.
//     Response: {"token","expires_at","user"} with the token also surfaced via
//     the `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the current session token extracted
//     from the Authorization header or session cookie. Returns 204 and clears
//     the cookie.
//   - GET /associations: the authenticated member's associations, each paired
//     with the role held in it.
//   - GET /associations/{id}/rooms: the rooms of one association.
//   - GET /rooms/{id}: one room with its weekly slot templates.
//   - GET /rooms/{id}/availability?week=YYYY-MM-DD: the weekly availability
//     calendar, recomputed from the templates and reservation state on every
//     request. The week parameter defaults to the current week.
//   - GET /reservations, POST /reservations: the member's own reservations
//     and new reservation requests.
//   - GET /reservations/pending: the pending requests the member can decide
//     as an association admin.
//   - POST /reservations/{id}/decision: applies {"decision":"BOOKED"} or
//     {"decision":"REJECTED"} to a pending request.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
