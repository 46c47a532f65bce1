// Package backend registers authenticated identities with the session API.
//
// Every sign-in ends with a single POST to {base}/auths/{provider} carrying
// {"user": <identity record>}. Cookies set by the backend are kept in a
// shared jar; the decoded JSON response is returned as a Session.
package backend
