package etrade

// Endpoints groups the provider URLs one environment talks to.
type Endpoints struct {
	RequestTokenURL string
	AuthorizeURL    string
	AccessTokenURL  string
	RenewTokenURL   string
	APIBaseURL      string
}

// Sandbox returns the sandbox environment. The OAuth handshake itself always
// runs against the production hosts; only the renewal and REST endpoints
// move to the sandbox host.
func Sandbox() Endpoints {
	return Endpoints{
		RequestTokenURL: "https://api.etrade.com/oauth/request_token",
		AuthorizeURL:    "https://us.etrade.com/oauth/authorize",
		AccessTokenURL:  "https://api.etrade.com/oauth/access_token",
		RenewTokenURL:   "https://apisb.etrade.com/oauth/renew_access_token",
		APIBaseURL:      "https://apisb.etrade.com/v1",
	}
}

func Production() Endpoints {
	return Endpoints{
		RequestTokenURL: "https://api.etrade.com/oauth/request_token",
		AuthorizeURL:    "https://us.etrade.com/oauth/authorize",
		AccessTokenURL:  "https://api.etrade.com/oauth/access_token",
		RenewTokenURL:   "https://api.etrade.com/oauth/renew_access_token",
		APIBaseURL:      "https://api.etrade.com/v1",
	}
}

// ForEnvironment maps a config environment name to its endpoint set.
// Anything that is not LIVE gets the sandbox.
func ForEnvironment(env string) Endpoints {
	if env == "LIVE" {
		return Production()
	}
	return Sandbox()
}
