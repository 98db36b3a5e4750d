package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/hitoshi/mindjournal/internal/model"
)

const (
	defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	maxUserInfoBytes         = 1 << 20
)

var googleScopes = []string{"openid", "email", "profile"}

// GoogleOAuthConfig はGoogle OAuthプロバイダーの設定。
// AuthURL・TokenURL・UserInfoURLは空ならGoogleの本番エンドポイントを使う。
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// GoogleOAuthProvider はGoogleの認可コードフローでOAuthProviderを実装する。
type GoogleOAuthProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
}

var _ OAuthProvider = (*GoogleOAuthProvider)(nil)

func NewGoogleOAuthProvider(config GoogleOAuthConfig) *GoogleOAuthProvider {
	endpoint := endpoints.Google
	endpoint.AuthURL = orDefault(config.AuthURL, endpoint.AuthURL)
	endpoint.TokenURL = orDefault(config.TokenURL, endpoint.TokenURL)

	return &GoogleOAuthProvider{
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       googleScopes,
		},
		userInfoURL: orDefault(config.UserInfoURL, defaultGoogleUserInfoURL),
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// GetLoginURL はstateを付けた同意画面のURLを返す。
func (p *GoogleOAuthProvider) GetLoginURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeCode は認可コードをトークンに交換し、userinfoエンドポイントからユーザーを引く。
func (p *GoogleOAuthProvider) ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	claims, err := p.userInfo(ctx, p.oauth.Client(ctx, token))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	return &OAuthUserInfo{
		ProviderUserID: claims.Sub,
		Email:          claims.Email,
		Name:           claims.Name,
		Provider:       model.ProviderGoogle,
	}, nil
}

type googleClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (p *GoogleOAuthProvider) userInfo(ctx context.Context, client *http.Client) (*googleClaims, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxUserInfoBytes)
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(body, 512))
		return nil, fmt.Errorf("userinfo returned status %d: %s", resp.StatusCode, snippet)
	}

	var claims googleClaims
	if err := json.NewDecoder(body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if claims.Sub == "" {
		return nil, errors.New("userinfo has no sub")
	}
	return &claims, nil
}
