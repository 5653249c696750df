package etrade

import (
	"context"
	"fmt"
)

// AccountResolver fetches the brokerage account list and picks the default.
type AccountResolver struct{}

func NewAccountResolver() *AccountResolver { return &AccountResolver{} }

type accountListResponse struct {
	AccountListResponse struct {
		Accounts struct {
			Account []struct {
				AccountID   string `json:"accountId"`
				AccountDesc string `json:"accountDesc"`
				AccountMode string `json:"accountMode"`
			} `json:"Account"`
		} `json:"Accounts"`
	} `json:"AccountListResponse"`
}

// Resolve returns the first account id the provider lists, in provider
// order. An empty list yields ("", nil): callers treat a missing account as
// non-fatal since market data and analysis do not need one.
func (r *AccountResolver) Resolve(ctx context.Context, session *Session) (string, error) {
	var out accountListResponse
	resp, err := session.Rest().R().
		SetContext(ctx).
		SetResult(&out).
		Get("/accounts/list.json")
	if err != nil {
		return "", fmt.Errorf("account list: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("account list: http %d", resp.StatusCode())
	}

	accounts := out.AccountListResponse.Accounts.Account
	if len(accounts) == 0 {
		return "", nil
	}
	return accounts[0].AccountID, nil
}
