// Package config loads authbridge settings.
//
// Values are resolved in this order: environment variables prefixed with
// AUTHBRIDGE_ (nested keys joined by underscores, for example
// AUTHBRIDGE_FIREBASE_API_KEY), the YAML file given with --config or found as
// authbridge.yaml in the working directory or $HOME/.config/authbridge, and
// built-in defaults.
//
// Example authbridge.yaml:
//
//	firebase:
//	  api_key: AIza...
//	  auth_domain: my-app.firebaseapp.com
//	  project_id: my-app
//	google:
//	  client_id: 1234.apps.googleusercontent.com
//	  client_secret: ...
//	facebook:
//	  client_id: "1234567890"
//	backend:
//	  base_url: https://chat.example.com/api/v1
package config
