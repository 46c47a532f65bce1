// Package bridge connects identity provider sign-ins to backend sessions.
//
// Each operation signs the user in with the identity provider, then posts the
// resulting user record once to the backend endpoint for the provider
// (/auths/google, /auths/facebook, /auths/email, /auths/phone) and returns
// the backend's JSON response. Identity provider errors are returned
// unchanged; backend failures are returned as *backend.Error. Nothing is
// retried or rolled back.
package bridge
