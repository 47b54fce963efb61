package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/SebastianMoseres/Praxable/internal/models"
)

const (
	// DefaultCalendarID selects the account's primary calendar
	DefaultCalendarID = "primary"

	googleAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
	calendarScope  = gcal.CalendarScope
)

// GoogleConfig configures the Google Calendar adapter. BaseURL overrides the
// API endpoint and is empty in production.
type GoogleConfig struct {
	CalendarID string
	TokenFile  string
	BaseURL    string
	Location   *time.Location
	Timeout    time.Duration
}

// authorizedUser is the token file written by Google's installed-app OAuth flow
type authorizedUser struct {
	Token        string    `json:"token"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	TokenURI     string    `json:"token_uri"`
	Scopes       []string  `json:"scopes"`
	Expiry       time.Time `json:"expiry"`
}

// Google reads and writes events through the Google Calendar API
type Google struct {
	service    *gcal.Service
	calendarID string
	location   *time.Location
	logger     *zap.Logger
}

var _ Calendar = (*Google)(nil)

// NewGoogle loads OAuth credentials from cfg.TokenFile and returns an adapter
// whose HTTP client refreshes the access token as needed.
func NewGoogle(ctx context.Context, cfg GoogleConfig, logger *zap.Logger) (*Google, error) {
	data, err := os.ReadFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar token file: %w", err)
	}

	var creds authorizedUser
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse calendar token file: %w", err)
	}
	if creds.RefreshToken == "" && creds.Token == "" && creds.AccessToken == "" {
		return nil, fmt.Errorf("calendar token file %s has no usable token", cfg.TokenFile)
	}

	tokenURL := creds.TokenURI
	if tokenURL == "" {
		tokenURL = googleTokenURL
	}
	scopes := creds.Scopes
	if len(scopes) == 0 {
		scopes = []string{calendarScope}
	}

	oauthConfig := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  googleAuthURL,
			TokenURL: tokenURL,
		},
	}

	access := creds.Token
	if access == "" {
		access = creds.AccessToken
	}
	token := &oauth2.Token{
		AccessToken:  access,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       creds.Expiry,
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	// The oauth2 package picks up the base client for refresh calls from the context.
	base := &http.Client{Timeout: timeout}
	client := oauthConfig.Client(context.WithValue(ctx, oauth2.HTTPClient, base), token)
	client.Timeout = timeout

	return NewGoogleWithClient(ctx, client, cfg, logger)
}

// NewGoogleWithClient builds an adapter around an already authorized client
func NewGoogleWithClient(ctx context.Context, client *http.Client, cfg GoogleConfig, logger *zap.Logger) (*Google, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	service, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Google{
		service:    service,
		calendarID: calendarID,
		location:   loc,
		logger:     logger,
	}, nil
}

// BusyIntervals lists the timed events of day. All-day events are skipped.
func (g *Google) BusyIntervals(ctx context.Context, day time.Time) ([]models.BusyInterval, error) {
	day = day.In(g.location)
	start, end := DayBounds(day)

	var intervals []models.BusyInterval
	err := g.service.Events.List(g.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Pages(ctx, func(page *gcal.Events) error {
			for _, ev := range page.Items {
				if ev.Start == nil || ev.End == nil || ev.Start.DateTime == "" || ev.End.DateTime == "" {
					continue
				}
				iv, err := g.toInterval(ev)
				if err != nil {
					g.logger.Warn("calendar_event_skipped",
						zap.String("event_id", ev.Id),
						zap.Error(err))
					continue
				}
				intervals = append(intervals, iv)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}

	g.logger.Debug("calendar_events_fetched",
		zap.String("calendar_id", g.calendarID),
		zap.String("day", day.Format(time.DateOnly)),
		zap.Int("intervals", len(intervals)))
	return intervals, nil
}

func (g *Google) toInterval(ev *gcal.Event) (models.BusyInterval, error) {
	start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
	if err != nil {
		return models.BusyInterval{}, fmt.Errorf("invalid start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, ev.End.DateTime)
	if err != nil {
		return models.BusyInterval{}, fmt.Errorf("invalid end: %w", err)
	}
	label := ev.Summary
	if label == "" {
		label = DefaultSummary
	}
	return models.BusyInterval{
		Start: start.In(g.location),
		End:   end.In(g.location),
		Label: label,
	}, nil
}

// AddEvent creates an event on the configured calendar
func (g *Google) AddEvent(ctx context.Context, event models.CalendarEvent) (*models.CalendarEvent, error) {
	created, err := g.service.Events.Insert(g.calendarID, &gcal.Event{
		Summary: event.Summary,
		Start:   &gcal.EventDateTime{DateTime: event.Start, TimeZone: g.location.String()},
		End:     &gcal.EventDateTime{DateTime: event.End, TimeZone: g.location.String()},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to insert calendar event: %w", err)
	}

	g.logger.Info("calendar_event_created",
		zap.String("event_id", created.Id),
		zap.String("calendar_id", g.calendarID))

	out := &models.CalendarEvent{
		ID:       created.Id,
		Summary:  created.Summary,
		HTMLLink: created.HtmlLink,
	}
	if created.Start != nil {
		out.Start = created.Start.DateTime
	}
	if created.End != nil {
		out.End = created.End.DateTime
	}
	return out, nil
}
