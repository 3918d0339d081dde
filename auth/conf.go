package auth

import "golang.org/x/oauth2/clientcredentials"

// Conf holds the OAuth2 client credentials of the fleet data endpoint.
type Conf struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	TokenURL     string   `json:"token_url"`
	Scopes       []string `json:"scopes"`
}

// Enabled reports whether credentials are configured.
func (c Conf) Enabled() bool { return c.ClientID != "" && c.TokenURL != "" }

func (c Conf) toOauth2Config() clientcredentials.Config {
	return clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
		Scopes:       c.Scopes,
	}
}
