// Package linkedin wraps the LinkedIn OAuth2 endpoint and the small part of
// the REST API used for sharing: the OIDC userinfo call and UGC posts.
package linkedin

import (
	"golang.org/x/oauth2"
	lioauth "golang.org/x/oauth2/linkedin"
)

// Scopes requested at sign-in: posting on the member's behalf plus the OIDC
// claims used to build the author URN.
var Scopes = []string{"w_member_social", "openid", "profile"}

// OAuthConfig returns the authorization-code flow configuration.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     lioauth.Endpoint,
	}
}
