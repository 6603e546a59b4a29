package github

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/TheRakeshPurohit/consoleauth/providers"
)

// viewerQuery retrieves the token owner's login, email, display name, and
// organization memberships in one round trip. Organization order in the
// response is the discovery order the groups list preserves.
const viewerQuery = `query { viewer { organizations(first: 100) { edges { node { login } } } login email name } }`

// graphqlRequest is the POST body of a GraphQL call.
type graphqlRequest struct {
	Query string `json:"query"`
}

// teamNode is one team edge: GitHub exposes both a display name and a
// URL-safe slug, and console configuration may reference either.
type teamNode struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// queryGraphQL posts one query and unmarshals the data payload into dst.
// A GraphQL-level error array counts as a malformed response: the transport
// succeeded but the contract was not served.
func (p *Provider) queryGraphQL(ctx context.Context, accessToken, query string, dst any) error {
	var res struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := p.Gateway().PostJSON(ctx, p.graphqlURL, authHeader(accessToken), graphqlRequest{Query: query}, &res); err != nil {
		return err
	}
	if len(res.Errors) > 0 {
		return &providers.MalformedResponseError{URL: p.graphqlURL, Reason: "graphql: " + res.Errors[0].Message}
	}
	if len(res.Data) == 0 || string(res.Data) == "null" {
		return &providers.MalformedResponseError{URL: p.graphqlURL, Reason: "graphql response has no data"}
	}
	if err := json.Unmarshal(res.Data, dst); err != nil {
		return &providers.MalformedResponseError{URL: p.graphqlURL, Reason: "graphql data", Err: err}
	}
	return nil
}

// fetchIdentityV4 is the GraphQL strategy: discover the viewer and their
// organizations first, then batch-fetch the team edges of every organization
// in a second query (only when team membership is enabled and organizations
// exist). The second query's input depends on the first's output, so the two
// phases are explicit and sequential.
func (p *Provider) fetchIdentityV4(ctx context.Context, accessToken string) (*providers.Identity, error) {
	var res struct {
		Viewer struct {
			Organizations struct {
				Edges []struct {
					Node struct {
						Login string `json:"login"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"organizations"`
			Login string `json:"login"`
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"viewer"`
	}
	if err := p.queryGraphQL(ctx, accessToken, viewerQuery, &res); err != nil {
		return nil, fmt.Errorf("github: fetch viewer: %w", err)
	}
	if res.Viewer.Login == "" {
		return nil, &providers.MalformedResponseError{URL: p.graphqlURL, Reason: "viewer has no login"}
	}

	orgs := make([]string, 0, len(res.Viewer.Organizations.Edges))
	for _, edge := range res.Viewer.Organizations.Edges {
		orgs = append(orgs, edge.Node.Login)
	}

	identity := &providers.Identity{
		Username: res.Viewer.Login,
		FullName: res.Viewer.Name,
		Email:    res.Viewer.Email,
		Groups:   orgs,
	}

	if p.teamMembership && len(orgs) > 0 {
		teams, err := p.fetchTeams(ctx, accessToken, orgs, identity.Username)
		if err != nil {
			return nil, fmt.Errorf("github: fetch teams: %w", err)
		}
		identity.Groups = flattenTeams(orgs, teams)
	}

	return identity, nil
}

// fetchTeams retrieves the viewer's team memberships for all organizations
// with one batched query.
func (p *Provider) fetchTeams(ctx context.Context, accessToken string, orgs []string, login string) (map[string][]teamNode, error) {
	query, aliases := teamsQuery(orgs, login)

	var res map[string]struct {
		Teams struct {
			Edges []struct {
				Node teamNode `json:"node"`
			} `json:"edges"`
		} `json:"teams"`
	}
	if err := p.queryGraphQL(ctx, accessToken, query, &res); err != nil {
		return nil, err
	}

	teams := make(map[string][]teamNode, len(res))
	for alias, payload := range res {
		org, ok := aliases[alias]
		if !ok {
			continue
		}
		for _, edge := range payload.Teams.Edges {
			teams[org] = append(teams[org], edge.Node)
		}
	}
	return teams, nil
}

// teamsQuery builds one query batching a teams sub-query per organization.
// Each sub-query is aliased by the sanitized organization login so the
// response keys map back to organizations; userLogins narrows the edges to
// teams the viewer belongs to. Returns the query and the alias→login map.
func teamsQuery(orgs []string, login string) (string, map[string]string) {
	var b strings.Builder
	aliases := make(map[string]string, len(orgs))

	b.WriteString("query {")
	for _, org := range orgs {
		alias := sanitizeAlias(org)
		aliases[alias] = org
		fmt.Fprintf(&b,
			" %s: organization(login: %q) { teams(first: 100, userLogins: [%q]) { edges { node { name slug } } } }",
			alias, org, login)
	}
	b.WriteString(" }")

	return b.String(), aliases
}

// sanitizeAlias rewrites an organization login into the GraphQL alias
// grammar [_A-Za-z][_A-Za-z0-9]*: invalid runes become underscores and a
// leading digit gets an underscore prefix.
func sanitizeAlias(org string) string {
	var b strings.Builder
	b.Grow(len(org) + 1)
	for i, r := range org {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// flattenTeams produces the deterministic groups sequence downstream
// permission matching depends on: the organization logins in discovery
// order, followed by one "<org>/<team>" path per team spelling. Teams
// contribute both their display name and their slug, since configuration
// may reference either, and the combined path set is deduplicated and
// sorted lexicographically before being appended.
func flattenTeams(orgs []string, teams map[string][]teamNode) []string {
	groups := make([]string, 0, len(orgs))
	groups = append(groups, orgs...)

	seen := make(map[string]struct{})
	for _, org := range orgs {
		for _, team := range teams[org] {
			seen[org+"/"+team.Name] = struct{}{}
			seen[org+"/"+team.Slug] = struct{}{}
		}
	}

	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	return append(groups, paths...)
}
