/*
Package confhall implements the core of the conference website backend:
passwordless, email-token authentication and the request gate that fronts
every page.

The login flow is the following:

 1. A visitor submits their email on the login page.
 2. If an account exists, a short-lived entry token is generated by
    TokenIssuer.Issue and emailed to them through a Notifier.
 3. The visitor submits the token (or follows the emailed link, which
    pre-fills it) and a session is opened for them.
 4. On every subsequent request the gate middleware re-verifies the
    session token against the persisted user record through
    SessionResolver.Resolve. The session is never trusted on its own.

A user holds at most one live token; issuing a new one supersedes the
previous one. Tokens expire 48 hours after issuance by default.

The stored email address is encrypted at rest by Cryptographer, which
also provides the URL-safe encoding used to embed credentials in the
sign-in link.

Persistence is a MongoDB document store behind the UserStore interface,
and mail delivery sits behind the Notifier interface; both are wired in
cmd/server.
*/
package confhall
