// Package services implements the domain rules of accounts, playlists, and songs over a [models.Store].
//
// # Accounts
//
// [AccountService] registers users (bcrypt hashes via [auth.HashPassword]), checks
// logins, and issues session tokens. A failed login reports the same error for an
// unknown email and a wrong password.
//
// # Playlists
//
// [PlaylistService] enforces per-owner name uniqueness (case-insensitive), picks
// Untitled<N> names for blank creates, and tries "<name> (Copy)", "<name> (Copy 1)", ...
// for copies. Only the owner may update or delete. Song membership counters are
// adjusted by set difference on every song list change.
//
// # Songs
//
// [SongService] rejects a second song with the same (title, artist, year) and years
// outside [1900, current year]. Only the user who added a song may edit or delete it;
// deletion removes the song from every playlist first.
//
// # Errors
//
// Failures wrap the sentinels in the shared package with github.com/cockroachdb/errors,
// so callers match them with errors.Is:
//   - [shared.ErrValidation] : malformed or missing input
//   - [shared.ErrUnauthorized] : no acting identity, or bad credentials
//   - [shared.ErrForbidden] : caller does not own the entity
//   - [shared.ErrNotFound] : entity does not exist (checked before ownership)
//   - [shared.ErrDuplicateName], [shared.ErrDuplicateSong] : uniqueness violations
//
// Nothing retries. Cascades span several store calls and are not atomic.
package services
