package web

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/teslashibe/go-turret/internal/httpc"
	"github.com/teslashibe/go-turret/pkg/tracking"
)

// Remote drives a running dashboard over its REST API.
type Remote struct {
	base   string
	client *http.Client
}

// NewRemote returns a client for the dashboard at base ("http://host:8181").
func NewRemote(base string) (*Remote, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse dashboard url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return &Remote{
		base:   strings.TrimSuffix(u.String(), "/"),
		client: httpc.Client,
	}, nil
}

func (r *Remote) url(path string) string {
	return r.base + "/api/" + path
}

// Status fetches the latest tick snapshot.
func (r *Remote) Status(ctx context.Context) (tracking.Status, error) {
	var st tracking.Status
	err := httpc.GetJSON(ctx, r.client, r.url("status"), &st)
	return st, err
}

// Key sends a key press: an arrow or direction name jogs, "f" fires.
func (r *Remote) Key(ctx context.Context, key string) error {
	return httpc.PostJSON(ctx, r.client, r.url("key/"+url.PathEscape(key)), nil, nil)
}

// Fire queues a manual shot.
func (r *Remote) Fire(ctx context.Context) error {
	return httpc.PostJSON(ctx, r.client, r.url("fire"), nil, nil)
}

// Tuning returns the current controller tuning.
func (r *Remote) Tuning(ctx context.Context) (tracking.TuningParams, error) {
	var p tracking.TuningParams
	err := httpc.GetJSON(ctx, r.client, r.url("tuning"), &p)
	return p, err
}

// SetTuning applies the non-zero fields of p and returns the result.
func (r *Remote) SetTuning(ctx context.Context, p tracking.TuningParams) (tracking.TuningParams, error) {
	var out tracking.TuningParams
	err := httpc.PostJSON(ctx, r.client, r.url("tuning"), p, &out)
	return out, err
}
