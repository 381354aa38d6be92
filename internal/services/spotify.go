// Spotify API implementation of [Player]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ixacik/vibe-dj/internal/models"
	"github.com/ixacik/vibe-dj/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifyQueue represents the player queue response.
type SpotifyQueue struct {
	CurrentlyPlaying *SpotifyTrack  `json:"currently_playing"`
	Queue            []SpotifyTrack `json:"queue"`
}

// SpotifyPlaybackState represents the player state response.
type SpotifyPlaybackState struct {
	IsPlaying  bool          `json:"is_playing"`
	ProgressMS int           `json:"progress_ms"`
	Item       *SpotifyTrack `json:"item"`
}

// SpotifySavedTrack represents a track saved in the user's library.
type SpotifySavedTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

type spotifySavedTracksPage struct {
	Items []SpotifySavedTrack `json:"items"`
	Total int                 `json:"total"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyPlayer implements the Player interface for Spotify API interactions.
// Uses [oauth2] for authentication.
type SpotifyPlayer struct {
	config         *oauth2.Config
	token          *oauth2.Token
	httpClient     *http.Client
	baseURL        string
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyPlayer creates a new Spotify player with the given OAuth2 credentials.
func NewSpotifyPlayer(credentials map[string]string) (*SpotifyPlayer, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-playback-state",
			"user-modify-playback-state",
			"user-read-currently-playing",
			"user-library-read",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyPlayer{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
	}, nil
}

func (s *SpotifyPlayer) Name() string {
	return "Spotify"
}

// OAuthConfig exposes the OAuth2 config for the auth callback server.
func (s *SpotifyPlayer) OAuthConfig() *oauth2.Config {
	return s.config
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyPlayer) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// SetTokenRefreshCallback registers a callback invoked whenever the
// underlying token source produces a new token, so callers can persist it.
func (s *SpotifyPlayer) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// SetToken installs a previously obtained token and builds the refreshing
// HTTP client around it.
func (s *SpotifyPlayer) SetToken(ctx context.Context, token *oauth2.Token) {
	s.token = token
	source := &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: s.onTokenRefresh,
	}
	s.httpClient = oauth2.NewClient(ctx, source)
}

// Authenticate installs a bare access token without refresh support.
// Used when the caller manages token lifetime itself (and in tests).
func (s *SpotifyPlayer) Authenticate(accessToken string) error {
	if accessToken == "" {
		return fmt.Errorf("%w: missing access_token", shared.ErrMissingCredentials)
	}
	s.token = &oauth2.Token{AccessToken: accessToken}
	return nil
}

// SetBaseURL overrides the API base URL. Test hook.
func (s *SpotifyPlayer) SetBaseURL(u string) { s.baseURL = u }

// SetHTTPClient overrides the HTTP client. Test hook.
func (s *SpotifyPlayer) SetHTTPClient(c *http.Client) { s.httpClient = c }

// Exchange trades an authorization code for a token and installs it.
func (s *SpotifyPlayer) Exchange(ctx context.Context, code string) error {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	s.SetToken(ctx, token)
	return nil
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and notifies a
// callback when the access token changes.
type refreshableTokenSource struct {
	source    oauth2.TokenSource
	callback  func(*oauth2.Token)
	lastToken string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken != r.lastToken {
		r.lastToken = token.AccessToken
		if r.callback != nil {
			func() {
				defer func() { _ = recover() }()
				r.callback(token)
			}()
		}
	}
	return token, nil
}

// doRequest performs an authenticated HTTP request to the Spotify API.
//
// A 401 maps to [shared.ErrCredentialExpired] and a 404 from the player
// endpoints maps to [shared.ErrNoActiveDevice]; both are distinct,
// non-retriable signals for the engine.
func (s *SpotifyPlayer) doRequest(ctx context.Context, method, endpoint string, result any) error {
	if s.token == nil {
		return shared.ErrNotAuthenticated
	}

	apiURL := s.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return shared.ErrCredentialExpired
	case resp.StatusCode == http.StatusNotFound:
		return shared.ErrNoActiveDevice
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// GetQueue retrieves the player queue and currently playing track.
func (s *SpotifyPlayer) GetQueue(ctx context.Context) (*models.QueueSnapshot, error) {
	var q SpotifyQueue
	if err := s.doRequest(ctx, http.MethodGet, "/me/player/queue", &q); err != nil {
		return nil, err
	}

	snapshot := &models.QueueSnapshot{Queue: make([]models.Track, 0, len(q.Queue))}
	if q.CurrentlyPlaying != nil {
		np := convertSpotifyTrack(*q.CurrentlyPlaying)
		if np.Valid() {
			snapshot.NowPlaying = &np
		}
	}
	for _, st := range q.Queue {
		track := convertSpotifyTrack(st)
		if track.Valid() {
			snapshot.Queue = append(snapshot.Queue, track)
		}
	}

	return snapshot, nil
}

// GetPlaybackState retrieves the current transport state.
//
// Spotify returns 204 with an empty body when no device is active; that is
// reported as a stopped state, not an error.
func (s *SpotifyPlayer) GetPlaybackState(ctx context.Context) (*models.PlaybackState, error) {
	var st SpotifyPlaybackState
	if err := s.doRequest(ctx, http.MethodGet, "/me/player", &st); err != nil {
		return nil, err
	}

	state := &models.PlaybackState{IsPlaying: st.IsPlaying, ProgressMS: st.ProgressMS}
	if st.Item != nil {
		item := convertSpotifyTrack(*st.Item)
		if item.Valid() {
			state.Item = &item
		}
	}

	return state, nil
}

// SkipNext advances playback by one position.
func (s *SpotifyPlayer) SkipNext(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPost, "/me/player/next", nil)
}

// SkipPrevious moves playback back one position.
func (s *SpotifyPlayer) SkipPrevious(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPost, "/me/player/previous", nil)
}

// Seek moves the playhead of the current track.
func (s *SpotifyPlayer) Seek(ctx context.Context, positionMS int) error {
	endpoint := "/me/player/seek?position_ms=" + strconv.Itoa(positionMS)
	return s.doRequest(ctx, http.MethodPut, endpoint, nil)
}

// Enqueue appends a track to the user's queue by identifier.
func (s *SpotifyPlayer) Enqueue(ctx context.Context, trackID string) error {
	uri := "spotify:track:" + trackID
	endpoint := "/me/player/queue?uri=" + url.QueryEscape(uri)
	return s.doRequest(ctx, http.MethodPost, endpoint, nil)
}

// StartPlayback resumes playback on the active device.
func (s *SpotifyPlayer) StartPlayback(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPut, "/me/player/play", nil)
}

// Search queries the track catalog. Results keep the service's relevance order.
func (s *SpotifyPlayer) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if limit <= 0 {
		limit = 5
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	var response spotifySearchResponse
	if err := s.doRequest(ctx, http.MethodGet, endpoint, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Tracks.Items))
	for _, st := range response.Tracks.Items {
		track := convertSpotifyTrack(st)
		if track.Valid() {
			tracks = append(tracks, track)
		}
	}

	return tracks, nil
}

// GetLikedTracks retrieves a page of the user's saved tracks.
func (s *SpotifyPlayer) GetLikedTracks(ctx context.Context, limit, offset int) ([]models.Track, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)

	var page spotifySavedTracksPage
	if err := s.doRequest(ctx, http.MethodGet, endpoint, &page); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(page.Items))
	for _, item := range page.Items {
		track := convertSpotifyTrack(item.Track)
		if track.Valid() {
			tracks = append(tracks, track)
		}
	}

	return tracks, nil
}

func convertSpotifyTrack(st SpotifyTrack) models.Track {
	track := models.Track{
		ID:         st.ID,
		Title:      st.Name,
		DurationMS: st.DurationMS,
	}
	if len(st.Artists) > 0 {
		track.Artist = st.Artists[0].Name
	}
	if len(st.Album.Images) > 0 {
		track.ArtworkURL = st.Album.Images[0].URL
	}
	return track
}
