// Package http exposes the reservation engine over a JSON API.
//
// Every route except GET /healthz requires the X-User-ID header, resolved by
// RequireIdentity. Responses are localized by Localize from Accept-Language;
// English and Simplified Chinese are supported.
//
// The router exposes the following endpoints:
//   - POST /reservations: requests a reservation. Body: {"campus_id","date",
//     "start_hour","end_hour","student_id","name","contact"}. Accepted requests
//     return 201 {"id","reservation"}. Invalid input, including a field of
//     the wrong JSON type, returns 422 with error_code INVALID and per field
//     "errors". Blocked, conflicting and over
//     quota requests return 409 with error_code BLOCKED, CONFLICTED or
//     QUOTA_EXCEEDED.
//   - GET /reservations/mine: the caller's active reservations, newest slot first.
//   - GET /reservations?campus_id=&date=: active reservations of one campus day.
//   - GET /reservations/weekly?campus_id=&date=: reservations and expanded
//     blackout occurrences for the Monday to Sunday week containing date.
//   - POST /reservations/{id}/cancel, POST /reservations/{id}/key/pickup,
//     POST /reservations/{id}/key/return: owner scoped lifecycle transitions.
//   - GET /campuses, GET /campuses/{id}/key-pickups,
//     GET /campuses/{id}/key-managers: campus catalog, the latest key pickups
//     of active reservations and the key managers on duty.
//   - GET /admin/reservations?campus_id=&start_date=&end_date=&page=&page_size=:
//     paginated reservation history with a total count.
//   - GET /admin/blackouts?campus_id=, POST /admin/blackouts,
//     DELETE /admin/blackouts/{id}: blackout rule administration.
//   - GET /admin/key-managers?campus_id=&include_inactive=,
//     POST /admin/key-managers, PATCH /admin/key-managers/{id},
//     DELETE /admin/key-managers/{id}: key manager administration.
//   - GET /healthz: store reachability.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
