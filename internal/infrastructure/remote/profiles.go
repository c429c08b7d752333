package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hardwerkerz/werk/internal/core/domain"
)

const profilesResource = "profiles"

type profileClient struct {
	c *Client
}

func profilePath(profileID string) string { return "/api/profiles/" + url.PathEscape(profileID) }

func (p *profileClient) Get(ctx context.Context, profileID string) (*domain.Profile, error) {
	var out domain.Profile
	if err := p.c.do(ctx, call{resource: profilesResource, op: "get", method: http.MethodGet, path: profilePath(profileID), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *profileClient) CreateLog(ctx context.Context, profileID string, log domain.Log) (*domain.Profile, error) {
	var out domain.Profile
	path := profilePath(profileID) + "/logs"
	if err := p.c.do(ctx, call{resource: profilesResource, op: "create_log", method: http.MethodPost, path: path, body: log, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *profileClient) DeleteLog(ctx context.Context, profileID, logID string) (*domain.Profile, error) {
	var out domain.Profile
	path := profilePath(profileID) + "/logs/" + url.PathEscape(logID)
	if err := p.c.do(ctx, call{resource: profilesResource, op: "delete_log", method: http.MethodDelete, path: path, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}
