package mockgeo

import (
	"context"
	"time"

	"github.com/OpenZilia/parsemap-test-harness/geoclient"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"
)

// Client implements geoclient.Operations by calling a Store in-process.
type Client struct {
	Store *Store

	// Latency is added before every call.
	Latency time.Duration

	// Hold, if not nil, blocks every call until the channel is closed or the context is done.
	Hold <-chan struct{}
}

var _ geoclient.Operations = (*Client)(nil)

// NewClient creates a Client for a Store.
func NewClient(store *Store) *Client {
	return &Client{Store: store}
}

func (c *Client) wait(ctx context.Context, operation string) error {
	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return &geoclient.RequestError{Operation: operation, Message: ctx.Err().Error(), Err: ctx.Err()}
		}
	}
	if c.Hold != nil {
		select {
		case <-c.Hold:
		case <-ctx.Done():
			return &geoclient.RequestError{Operation: operation, Message: ctx.Err().Error(), Err: ctx.Err()}
		}
	}
	return nil
}

func toRequestError(operation string, err *ServiceError) error {
	if err == nil {
		return nil
	}
	return &geoclient.RequestError{Operation: operation, Status: err.Status, Message: err.Message}
}

func (c *Client) CreateList(ctx context.Context, params servicedef.ListParams) (servicedef.EntityRef, error) {
	if err := c.wait(ctx, geoclient.OpCreateList); err != nil {
		return "", err
	}
	id, err := c.Store.createList(geoclient.OpCreateList, listRequest{
		Name: params.Name,
		Icon: params.Icon.OrElse(""),
		Tags: params.Tags,
	})
	return servicedef.EntityRef(id), toRequestError(geoclient.OpCreateList, err)
}

func (c *Client) CreatePoint(ctx context.Context, params servicedef.PointParams) (servicedef.EntityRef, error) {
	if err := c.wait(ctx, geoclient.OpCreatePoint); err != nil {
		return "", err
	}
	lat, lon := params.Latitude, params.Longitude
	id, err := c.Store.createPoint(geoclient.OpCreatePoint, pointRequest{
		Name:       params.Name.OrElse(""),
		Latitude:   &lat,
		Longitude:  &lon,
		Provider:   params.Provider,
		ProviderID: params.ProviderID,
	})
	return servicedef.EntityRef(id), toRequestError(geoclient.OpCreatePoint, err)
}

func (c *Client) AttachPointToList(ctx context.Context, list, point servicedef.EntityRef) error {
	if err := c.wait(ctx, geoclient.OpAttachPointToList); err != nil {
		return err
	}
	return toRequestError(geoclient.OpAttachPointToList,
		c.Store.attachPointToList(geoclient.OpAttachPointToList, list.String(), point.String()))
}

func (c *Client) SetPointMeta(ctx context.Context, params servicedef.PointMetaParams) (servicedef.EntityRef, error) {
	if err := c.wait(ctx, geoclient.OpSetPointMeta); err != nil {
		return "", err
	}
	content := params.Content.JSONString()
	id, err := c.Store.setPointMeta(geoclient.OpSetPointMeta, pointMetaRequest{
		Point:   params.Point.String(),
		List:    params.List.String(),
		UID:     params.UID,
		Action:  string(params.Action),
		Content: &content,
		NoEvent: params.NoEvent,
	})
	return servicedef.EntityRef(id), toRequestError(geoclient.OpSetPointMeta, err)
}

func (c *Client) SetListMeta(ctx context.Context, params servicedef.ListMetaParams) (servicedef.EntityRef, error) {
	if err := c.wait(ctx, geoclient.OpSetListMeta); err != nil {
		return "", err
	}
	content := params.Content.JSONString()
	id, err := c.Store.setListMeta(geoclient.OpSetListMeta, listMetaRequest{
		List:    params.List.String(),
		UID:     params.UID,
		Action:  string(params.Action),
		Content: &content,
	})
	return servicedef.EntityRef(id), toRequestError(geoclient.OpSetListMeta, err)
}

func (c *Client) QueryListPoints(
	ctx context.Context,
	list servicedef.EntityRef,
	query servicedef.PointsQuery,
) ([]servicedef.PointView, error) {
	if err := c.wait(ctx, geoclient.OpQueryListPoints); err != nil {
		return nil, err
	}
	views, err := c.Store.queryListPoints(geoclient.OpQueryListPoints, pointsRequest{
		list:          list.String(),
		geohash:       query.Geohash,
		limit:         query.Limit.OrElse(0),
		lastPointDate: query.LastPointDate,
	})
	if err != nil {
		return nil, toRequestError(geoclient.OpQueryListPoints, err)
	}
	return views, nil
}

func (c *Client) DeletePoint(ctx context.Context, point servicedef.EntityRef) error {
	if err := c.wait(ctx, geoclient.OpDeletePoint); err != nil {
		return err
	}
	return toRequestError(geoclient.OpDeletePoint, c.Store.deletePoint(geoclient.OpDeletePoint, point.String()))
}
