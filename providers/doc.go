// Package providers defines the provider-polymorphic core of the console
// login engine: the Provider interface, the normalized Identity record, and
// the plumbing every provider family shares.
//
// Implementations live in subpackages:
//   - providers/google: Google
//   - providers/github: GitHub and GitHub Enterprise (REST v3 or GraphQL v4)
//   - providers/gitlab: GitLab (self-hosted or gitlab.com)
//   - providers/bitbucket: Bitbucket Cloud
//   - providers/keycloak: KeyCloak realms
//   - providers/mock: configurable fake for tests
//
// Every variant performs the same three-step authorization-code dance:
//   - build the authorization redirect URL (LoginURL)
//   - exchange the callback code for an access token (ExchangeCode)
//   - fetch and normalize the visitor's profile (FetchIdentity)
//
// The shared pieces here are the Flow type (endpoint set, credentials,
// authorize-URL construction, token exchange), the Gateway (JSON over HTTP
// with the engine's error taxonomy), the Secret/SecretResolver pair for
// credentials that live in a secrets backend, and the state codec that
// round-trips the post-login redirect target through the provider.
//
// Example usage:
//
//	provider, err := github.NewProvider(&github.Config{
//	    ClientID:     providers.Literal("client-id"),
//	    ClientSecret: providers.Reference("github-secret"),
//	    BaseURL:      "https://ci.example.com/",
//	    Resolver:     providers.EnvResolver{Prefix: "CONSOLEAUTH_"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
package providers
