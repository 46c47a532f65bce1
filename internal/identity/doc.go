// Package identity signs users in with Firebase Authentication.
//
// Client talks to the Identity Toolkit REST API through the generated
// google.golang.org/api/identitytoolkit/v3 client and returns User records
// shaped like the serialized users of the Firebase client SDKs. It supports
// email/password sign-in and sign-up, profile updates, federated sign-in
// (Google, Facebook) through a browser consent flow on a loopback listener,
// phone sign-in with a one-time code, and password reset emails.
//
// Failures are reported as *Error values with stable codes such as
// auth/email-already-in-use; compare them with errors.Is against the
// exported sentinels.
package identity
