package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"resty.dev/v3"

	"github.com/OpenZilia/parsemap-test-harness/framework"
	"github.com/OpenZilia/parsemap-test-harness/geoclient"
	"github.com/OpenZilia/parsemap-test-harness/journal"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"
)

const statusPollInterval = time.Millisecond * 100

// Config describes the service under test.
type Config struct {
	BaseURL string
	// AppKey is sent on every request. Empty means servicedef.DefaultAppKey.
	AppKey string
	// RequestTimeout bounds each request. Zero means the client default.
	RequestTimeout time.Duration
	// StatusQueryTimeout is how long to wait for the service to start answering.
	StatusQueryTimeout time.Duration
}

// ServiceInfo is what the harness learned about the service from its first response.
type ServiceInfo struct {
	BaseURL string
	// Status is the HTTP status returned for the base URL. Any status below 500 means the
	// service is up, since the service has no status resource.
	Status int
	// Server is the Server response header, if any.
	Server string
}

// TestHarness is the main component that manages communication with the service under test.
//
// It always communicates with a single service, which it verifies is alive on startup. It then
// hands out Operations for test scopes, logging to each scope's own logger, and records created
// points in a journal if one was set.
//
// It contains no domain-specific test logic, but only provides a general mechanism for test suites
// to build on.
type TestHarness struct {
	config   Config
	client   *geoclient.HTTPClient
	info     ServiceInfo
	logger   framework.Logger
	recorder *journal.Recorder
}

// NewTestHarness creates a TestHarness instance, and verifies that the service is responding by
// querying its base URL until it answers or StatusQueryTimeout expires.
func NewTestHarness(
	config Config,
	debugLogger framework.Logger,
	startupOutput io.Writer,
) (*TestHarness, error) {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	if config.AppKey == "" {
		config.AppKey = servicedef.DefaultAppKey
	}
	options := []geoclient.HTTPClientOption{geoclient.WithAppKey(config.AppKey)}
	if config.RequestTimeout > 0 {
		options = append(options, geoclient.WithTimeout(config.RequestTimeout))
	}
	client, err := geoclient.NewHTTPClient(config.BaseURL, options...)
	if err != nil {
		return nil, err
	}

	info, err := queryServiceStatus(config.BaseURL, config.StatusQueryTimeout, startupOutput)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &TestHarness{config: config, client: client, info: info, logger: debugLogger}, nil
}

// ServiceInfo returns the information received from the initial status query.
func (h *TestHarness) ServiceInfo() ServiceInfo {
	return h.info
}

// SetRecorder makes every Operations returned afterward record the points it creates.
func (h *TestHarness) SetRecorder(r *journal.Recorder) {
	h.recorder = r
}

// Operations returns the client for the service, logging each operation to the given logger.
// A nil logger means the harness's debug logger.
func (h *TestHarness) Operations(logger framework.Logger) geoclient.Operations {
	if logger == nil {
		logger = h.logger
	}
	return geoclient.Logging(journal.Tracking(h.client, h.recorder), logger)
}

// Close releases the connections to the service.
func (h *TestHarness) Close() error {
	return h.client.Close()
}

func queryServiceStatus(url string, timeout time.Duration, output io.Writer) (ServiceInfo, error) {
	if output == nil {
		output = io.Discard
	}
	fmt.Fprintf(output, "Connecting to service at %s", url)

	client := resty.New()
	defer client.Close() //nolint:errcheck
	client.SetTimeout(statusPollInterval * 10)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	var lastErr error
	for {
		fmt.Fprintf(output, ".")
		resp, err := client.R().SetContext(ctx).Get(url)
		if err == nil {
			status := resp.StatusCode()
			if resp.Body != nil {
				_ = resp.Body.Close()
			}
			if status < http.StatusInternalServerError {
				fmt.Fprintf(output, "\nService answered with status %d\n", status)
				return ServiceInfo{BaseURL: url, Status: status, Server: resp.Header().Get("Server")}, nil
			}
			err = fmt.Errorf("service returned status code %d", status)
		}
		lastErr = err
		select {
		case <-ctx.Done():
			fmt.Fprintln(output)
			return ServiceInfo{}, fmt.Errorf("timed out, result of last query was: %w", lastErr)
		case <-time.After(statusPollInterval):
		}
	}
}

// ErrNoService is returned by Probe when nothing answers at the URL.
var ErrNoService = errors.New("no service is answering")

// Probe makes a single status query.
func Probe(url string) (ServiceInfo, error) {
	info, err := queryServiceStatus(url, statusPollInterval, nil)
	if err != nil {
		return info, fmt.Errorf("%w at %s: %w", ErrNoService, url, err)
	}
	return info, nil
}
