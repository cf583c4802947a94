package geoclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/OpenZilia/parsemap-test-harness/framework/helpers"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/tidwall/gjson"
	"resty.dev/v3"
)

const defaultRequestTimeout = 30 * time.Second

// HTTPClient implements Operations by making REST calls to a running instance of the service.
// It is safe for concurrent use.
type HTTPClient struct {
	baseURL string
	resty   *resty.Client
}

type httpClientConfig struct {
	appKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// HTTPClientOption is an option for NewHTTPClient.
type HTTPClientOption helpers.ConfigOption[httpClientConfig]

// WithAppKey sets the credential sent in the app key header. The default is
// servicedef.DefaultAppKey. An empty string means no header is sent.
func WithAppKey(appKey string) HTTPClientOption {
	return helpers.ConfigOptionFunc[httpClientConfig](func(c *httpClientConfig) error {
		c.appKey = appKey
		return nil
	})
}

// WithTimeout sets the timeout of each request.
func WithTimeout(timeout time.Duration) HTTPClientOption {
	return helpers.ConfigOptionFunc[httpClientConfig](func(c *httpClientConfig) error {
		if timeout <= 0 {
			return fmt.Errorf("request timeout must be positive, got %s", timeout)
		}
		c.timeout = timeout
		return nil
	})
}

// WithHTTPClient sets the underlying HTTP client, for instance to use a custom transport.
func WithHTTPClient(httpClient *http.Client) HTTPClientOption {
	return helpers.ConfigOptionFunc[httpClientConfig](func(c *httpClientConfig) error {
		c.httpClient = httpClient
		return nil
	})
}

// NewHTTPClient creates a client for the service at baseURL. The API version path is appended
// unless baseURL already ends with it.
func NewHTTPClient(baseURL string, options ...HTTPClientOption) (*HTTPClient, error) {
	config := httpClientConfig{
		appKey:  servicedef.DefaultAppKey,
		timeout: defaultRequestTimeout,
	}
	if err := helpers.ApplyOptions(&config, options...); err != nil {
		return nil, err
	}
	if baseURL == "" {
		return nil, errors.New("base URL must not be empty")
	}

	client := resty.New()
	if config.httpClient != nil {
		client = resty.NewWithClient(config.httpClient)
	}
	client.SetTimeout(config.timeout)
	client.SetHeader("Accept", "application/json")
	if config.appKey != "" {
		client.SetHeader(servicedef.AppKeyHeader, config.appKey)
	}

	baseURL = strings.TrimSuffix(baseURL, "/")
	if !strings.HasSuffix(baseURL, servicedef.APIVersionPath) {
		baseURL += servicedef.APIVersionPath
	}
	return &HTTPClient{baseURL: baseURL, resty: client}, nil
}

// BaseURL returns the URL that request paths are appended to.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	return c.resty.Close()
}

func (c *HTTPClient) CreateList(ctx context.Context, params servicedef.ListParams) (servicedef.EntityRef, error) {
	return c.create(ctx, OpCreateList, servicedef.ListsPath, params.Body())
}

func (c *HTTPClient) CreatePoint(ctx context.Context, params servicedef.PointParams) (servicedef.EntityRef, error) {
	if err := params.Validate(); err != nil {
		return "", invalidRequest(OpCreatePoint, err)
	}
	return c.create(ctx, OpCreatePoint, servicedef.PointsPath, params.Body())
}

func (c *HTTPClient) AttachPointToList(ctx context.Context, list, point servicedef.EntityRef) error {
	if !list.IsDefined() || !point.IsDefined() {
		return invalidRequest(OpAttachPointToList, errors.New("list and point references are required"))
	}
	_, err := c.send(ctx, OpAttachPointToList, http.MethodPost, servicedef.ListPointPath(list, point),
		nil, "", http.StatusCreated)
	return err
}

func (c *HTTPClient) SetPointMeta(ctx context.Context, params servicedef.PointMetaParams) (servicedef.EntityRef, error) {
	if err := params.Action.Validate(); err != nil {
		return "", invalidRequest(OpSetPointMeta, err)
	}
	return c.create(ctx, OpSetPointMeta, servicedef.PointMetasPath, params.Body())
}

func (c *HTTPClient) SetListMeta(ctx context.Context, params servicedef.ListMetaParams) (servicedef.EntityRef, error) {
	if err := params.Action.Validate(); err != nil {
		return "", invalidRequest(OpSetListMeta, err)
	}
	return c.create(ctx, OpSetListMeta, servicedef.ListMetasPath, params.Body())
}

func (c *HTTPClient) QueryListPoints(
	ctx context.Context,
	list servicedef.EntityRef,
	query servicedef.PointsQuery,
) ([]servicedef.PointView, error) {
	if len(query.Geohash) > servicedef.MaxGeohashLength {
		return nil, invalidRequest(OpQueryListPoints,
			fmt.Errorf("geohash %q is longer than %d characters", query.Geohash, servicedef.MaxGeohashLength))
	}
	body, err := c.send(ctx, OpQueryListPoints, http.MethodGet, servicedef.ListPointsPath(list),
		nil, query.Values().Encode(), http.StatusOK)
	if err != nil {
		return nil, err
	}
	views, err := servicedef.ParsePointViews(body)
	if err != nil {
		return nil, &RequestError{Operation: OpQueryListPoints, Status: http.StatusOK, Message: err.Error(), Err: err}
	}
	return views, nil
}

func (c *HTTPClient) DeletePoint(ctx context.Context, point servicedef.EntityRef) error {
	_, err := c.send(ctx, OpDeletePoint, http.MethodDelete, servicedef.PointPath(point),
		nil, "", http.StatusAccepted)
	return err
}

func (c *HTTPClient) create(
	ctx context.Context,
	operation, path string,
	body ldvalue.Value,
) (servicedef.EntityRef, error) {
	data, err := c.send(ctx, operation, http.MethodPost, path, []byte(body.JSONString()), "", http.StatusCreated)
	if err != nil {
		return "", err
	}
	identifier := gjson.GetBytes(data, "identifier")
	if identifier.Type != gjson.String || identifier.Str == "" {
		return "", &RequestError{
			Operation: operation,
			Status:    http.StatusCreated,
			Message:   fmt.Sprintf("response has no identifier: %s", string(data)),
		}
	}
	return servicedef.EntityRef(identifier.Str), nil
}

// send makes one request and returns the response body if the status is the expected one. If
// the expected status is 201 with a body, the response must also be JSON.
func (c *HTTPClient) send(
	ctx context.Context,
	operation, method, path string,
	body []byte,
	query string,
	expectedStatus int,
) ([]byte, error) {
	req := c.resty.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if query != "" {
		req.SetQueryString(query)
	}

	resp, err := req.Execute(method, c.baseURL+path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &RequestError{Operation: operation, Message: err.Error(), Err: err}
	}

	//nolint:errcheck
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Operation: operation, Status: resp.StatusCode(), Message: err.Error(), Err: err}
	}

	if resp.StatusCode() != expectedStatus {
		return nil, &RequestError{
			Operation: operation,
			Status:    resp.StatusCode(),
			Message:   errorMessage(data),
		}
	}
	if body != nil && expectedStatus == http.StatusCreated && !isJSONContentType(resp.Header().Get("Content-Type")) {
		return nil, &RequestError{
			Operation: operation,
			Status:    resp.StatusCode(),
			Message:   fmt.Sprintf("expected a JSON response, got content type %q", resp.Header().Get("Content-Type")),
		}
	}
	return data, nil
}

func invalidRequest(operation string, err error) *RequestError {
	return &RequestError{Operation: operation, Message: err.Error(), Err: err}
}

// errorMessage extracts the message from an error body, falling back to the raw body.
func errorMessage(data []byte) string {
	for _, key := range []string{"Message", "message"} {
		if m := gjson.GetBytes(data, key); m.Type == gjson.String {
			return m.Str
		}
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	return "(empty response body)"
}

func isJSONContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}
