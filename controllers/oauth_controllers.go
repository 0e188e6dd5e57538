package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

const (
	ProviderGoogle = "google-oauth2"
	ProviderGitHub = "github"

	oauthStateCookie = "oauth_state"
	githubAPI        = "https://api.github.com"
)

var ErrUnknownProvider = errors.New("unknown social auth provider")

// SocialProfile is what a provider tells us about the user.
type SocialProfile struct {
	Email string
	Name  string
}

// OAuthSettings configures social login.
type OAuthSettings struct {
	RedirectBase       string // public URL of this API, used for the callback
	LoginRedirectURL   string // frontend page that receives ?token=
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string
	Salt               string
	Iterations         int
}

type OAuthController struct {
	DB               *gorm.DB
	Providers        map[string]*oauth2.Config
	LoginRedirectURL string
	Salt             string
	Iterations       int

	// FetchProfile is replaced in tests.
	FetchProfile func(ctx context.Context, provider string, cfg *oauth2.Config, token *oauth2.Token) (*SocialProfile, error)
}

func NewOAuthController(db *gorm.DB, s OAuthSettings) *OAuthController {
	base := strings.TrimRight(s.RedirectBase, "/")
	providers := map[string]*oauth2.Config{}
	if s.GoogleClientID != "" {
		providers[ProviderGoogle] = &oauth2.Config{
			ClientID:     s.GoogleClientID,
			ClientSecret: s.GoogleClientSecret,
			RedirectURL:  base + "/api/oauth/complete/" + ProviderGoogle + "/",
			Scopes:       []string{googleoauth.OpenIDScope, googleoauth.UserinfoEmailScope, googleoauth.UserinfoProfileScope},
			Endpoint:     google.Endpoint,
		}
	}
	if s.GitHubClientID != "" {
		providers[ProviderGitHub] = &oauth2.Config{
			ClientID:     s.GitHubClientID,
			ClientSecret: s.GitHubClientSecret,
			RedirectURL:  base + "/api/oauth/complete/" + ProviderGitHub + "/",
			Scopes:       []string{"user:email"},
			Endpoint:     github.Endpoint,
		}
	}
	return &OAuthController{
		DB:               db,
		Providers:        providers,
		LoginRedirectURL: s.LoginRedirectURL,
		Salt:             s.Salt,
		Iterations:       s.Iterations,
		FetchProfile:     fetchProfile,
	}
}

// Login redirects to the provider's consent page.
func (oc *OAuthController) Login(c *gin.Context) {
	cfg, ok := oc.Providers[c.Param("provider")]
	if !ok {
		utils.RespondError(c, http.StatusNotFound, ErrUnknownProvider)
		return
	}

	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/api/oauth", "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusFound, cfg.AuthCodeURL(state))
}

// Complete handles the provider callback, signs the user in and redirects
// to the frontend with a token.
func (oc *OAuthController) Complete(c *gin.Context) {
	provider := c.Param("provider")
	cfg, ok := oc.Providers[provider]
	if !ok {
		utils.RespondError(c, http.StatusNotFound, ErrUnknownProvider)
		return
	}

	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid oauth state"))
		return
	}
	code := c.Query("code")
	if code == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("authorization code required"))
		return
	}

	ctx := c.Request.Context()
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		utils.ErrorLogger.Printf("OAuth exchange with %s failed: %v", provider, err)
		utils.RespondError(c, http.StatusBadRequest, errors.New("failed to exchange code for token"))
		return
	}

	info, err := oc.FetchProfile(ctx, provider, cfg, token)
	if err != nil {
		utils.ErrorLogger.Printf("OAuth profile from %s failed: %v", provider, err)
		utils.RespondError(c, http.StatusBadGateway, errors.New("failed to load social profile"))
		return
	}

	user, err := oc.findOrCreateUser(info)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	jwt, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	c.SetCookie(oauthStateCookie, "", -1, "/api/oauth", "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusFound, withToken(oc.LoginRedirectURL, jwt))
}

// findOrCreateUser signs in an existing account by email or creates one
// with a password derived from the email.
func (oc *OAuthController) findOrCreateUser(info *SocialProfile) (*models.User, error) {
	email := utils.NormalizeEmail(info.Email)
	if email == "" {
		return nil, errors.New("social profile has no email")
	}

	var user models.User
	err := oc.DB.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	password := utils.CreatePassword(email, oc.Salt, oc.Iterations, utils.PasswordMinCycles)
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user = models.User{
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleCustomer,
	}
	if name := strings.TrimSpace(info.Name); utils.ValidUsername(name) {
		user.Username = &name
	}
	if err := oc.DB.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create social user: %w", err)
	}
	utils.InfoLogger.Printf("New user registered via social login: %s", user.Email)
	return &user, nil
}

func withToken(redirect, token string) string {
	u, err := url.Parse(redirect)
	if err != nil {
		return redirect + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func fetchProfile(ctx context.Context, provider string, cfg *oauth2.Config, token *oauth2.Token) (*SocialProfile, error) {
	client := cfg.Client(ctx, token)
	switch provider {
	case ProviderGoogle:
		srv, err := googleoauth.NewService(ctx, option.WithHTTPClient(client))
		if err != nil {
			return nil, err
		}
		info, err := srv.Userinfo.Get().Do()
		if err != nil {
			return nil, err
		}
		return &SocialProfile{Email: info.Email, Name: info.Name}, nil
	case ProviderGitHub:
		return fetchGitHubProfile(client)
	default:
		return nil, ErrUnknownProvider
	}
}

func fetchGitHubProfile(client *http.Client) (*SocialProfile, error) {
	var user struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Login string `json:"login"`
	}
	if err := getJSON(client, githubAPI+"/user", &user); err != nil {
		return nil, err
	}
	out := &SocialProfile{Email: user.Email, Name: user.Name}
	if out.Name == "" {
		out.Name = user.Login
	}
	if out.Email != "" {
		return out, nil
	}

	// Private emails are only listed by /user/emails.
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(client, githubAPI+"/user/emails", &emails); err != nil {
		return nil, err
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			out.Email = e.Email
			break
		}
	}
	return out, nil
}

func getJSON(client *http.Client, endpoint string, dst interface{}) error {
	resp, err := client.Get(endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", endpoint, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
