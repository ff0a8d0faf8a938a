// Package http provides HTTP handlers and middleware for the homestay API.
//
// The router exposes the following endpoints:
//   - POST /auth/register: creates a non-admin account. Body: {"username","email",
//     "password","phone_number","country","town"}. Response: {"user": userDTO}.
//   - POST /auth/login: verifies credentials and emails a six-digit code. Body:
//     {"email","password"}. Response is a confirmation message only; no token is
//     issued until the code is verified.
//   - POST /auth/verify-2fa: redeems a login code. Body: {"email","code"}.
//     Response: {"access_token","expires_at","user": userDTO}.
//   - POST /auth/forgot-password: emails a password reset code to a registered
//     address. Body: {"email"}.
//   - POST /auth/reset-password: redeems a reset code, stores a new password, and
//     signs the caller in. Body: {"email","code","new_password"}. Response:
//     {"access_token","expires_at","user": userDTO}.
//   - GET /users, POST /users, GET/PUT/DELETE /users/{id}: account management
//     endpoints exchanging the `userDTO` payload defined in user_handler.go.
//     Creation is administrator controlled; users may edit or delete themselves.
//   - GET /places, POST /places, GET/PUT/DELETE /places/{id}: listing endpoints
//     exchanging the `placeDTO` payload defined in place_handler.go. Listing
//     accepts an optional `owner_id` query parameter. Mutations are restricted to
//     the owner or an administrator.
//   - GET /amenities, POST /amenities, GET/PUT/DELETE /amenities/{id}: amenity
//     catalog endpoints exchanging the `amenityDTO` payload defined in
//     amenity_handler.go. Catalog writes require admin privileges.
//   - GET /reviews?place_id=..., POST /reviews, GET/PUT/DELETE /reviews/{id}:
//     review endpoints exchanging the `reviewDTO` payload defined in
//     review_handler.go. Mutations are restricted to the author or an
//     administrator.
//   - GET /reservations, POST /reservations, GET/PUT/DELETE /reservations/{id}:
//     booking endpoints exchanging the `reservationDTO` payload defined in
//     reservation_handler.go. Listing accepts `user_id`, `place_id`,
//     `starts_after`, and `ends_before` query parameters; non-admin callers only
//     see their own bookings. Conflicting windows answer 409.
//   - GET /reservations/availability?place_id=...&start=...&end=...: advisory
//     check reporting whether a [start, end) window is currently free.
//
// All endpoints outside /auth/ require a Bearer access token obtained from
// /auth/verify-2fa. Request/response DTOs live alongside their respective
// handlers so tests and documentation share the same ground truth.
package http
