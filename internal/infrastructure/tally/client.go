package tally

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/sync"
	"github.com/tallybridge/backend/internal/infrastructure/config"
)

// maxResponseSize is the maximum allowed response size from the gateway (10MB)
const maxResponseSize = 10 * 1024 * 1024

// httpReply is one raw exchange with the gateway
type httpReply struct {
	status int
	body   []byte
}

// Gateway talks to Tally's XML HTTP server: collection exports for
// existence answers, Import Data posts for master and voucher creation.
// A circuit breaker wraps the transport so a dead gateway answers
// instantly instead of burning a timeout per call.
type Gateway struct {
	cfg        config.TallyConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[httpReply]
	log        *zap.Logger
}

// NewGateway creates a gateway client from the Tally configuration
func NewGateway(cfg config.TallyConfig, log *zap.Logger) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:        "tally-gateway",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("tally gateway circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &Gateway{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    gobreaker.NewCircuitBreaker[httpReply](settings),
		log:        log,
	}
}

// Enabled reports whether the integration is switched on
func (g *Gateway) Enabled() bool {
	return g.cfg.Enabled
}

// Company returns the configured Tally company name
func (g *Gateway) Company() string {
	return g.cfg.Company
}

// ConnectivityStatus reports the outcome of the plain HTTP probe
type ConnectivityStatus struct {
	Version string
	URL     string
}

// Connectivity probes the gateway with a bare GET. Tally's HTTP server
// answers these with a signature banner that also reveals the product line.
func (g *Gateway) Connectivity(ctx context.Context) (*ConnectivityStatus, error) {
	if !g.cfg.Enabled {
		return nil, sync.ErrTallyDisabled
	}
	reply, err := g.get(ctx)
	if err != nil {
		return nil, err
	}
	if reply.status != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", sync.ErrTallyUnavailable, reply.status)
	}
	body := string(reply.body)
	switch {
	case strings.Contains(body, "TallyPrime Server is Running"):
		return &ConnectivityStatus{Version: "TallyPrime", URL: g.cfg.Endpoint}, nil
	case strings.Contains(body, "Tally"):
		return &ConnectivityStatus{Version: "Tally", URL: g.cfg.Endpoint}, nil
	}
	return nil, fmt.Errorf("%w: unexpected response %q", sync.ErrTallyUnavailable, truncate(body, 100))
}

// Ping reports whether the gateway is reachable at all
func (g *Gateway) Ping(ctx context.Context) error {
	_, err := g.Connectivity(ctx)
	return err
}

// CheckExists queries the gateway for a single master by name. The answer
// distinguishes "asked and absent" from "could not ask": transport
// failures return an error and a zero result, never a confident negative.
func (g *Gateway) CheckExists(ctx context.Context, kind master.Kind, name string) (master.ExistenceResult, error) {
	if !g.cfg.Enabled {
		return master.ExistenceResult{}, sync.ErrTallyDisabled
	}
	body, err := g.exportCollection(ctx, kind)
	if err != nil {
		return master.ExistenceResult{}, err
	}

	records, perr := parseCollectionNames(body, kind.Collection())
	if perr != nil && len(records) == 0 {
		// Some gateway builds emit exports no parser survives. Element
		// text can still be sliced out positionally; only a whole-text
		// match counts, a raw substring would confirm "Acme" off an
		// export that holds "Acme Traders". No match on an unreadable
		// export is "could not ask", never a confident negative.
		if containsElementText(body, name) {
			return master.ExistenceResult{Exists: true, Success: true}, nil
		}
		return master.ExistenceResult{}, fmt.Errorf("tally: %s export unreadable: %w", kind, perr)
	}
	for _, rec := range records {
		if master.NamesEqual(rec.Name, name) {
			return master.ExistenceResult{Exists: true, Success: true}, nil
		}
	}
	return master.ExistenceResult{Exists: false, Success: true}, nil
}

// containsElementText scans the raw body for text chunks between tag
// boundaries and compares each whole chunk against the wanted name
func containsElementText(body []byte, name string) bool {
	text := string(body)
	for len(text) > 0 {
		open := strings.IndexByte(text, '>')
		if open < 0 {
			return false
		}
		text = text[open+1:]
		end := strings.IndexByte(text, '<')
		chunk := text
		if end >= 0 {
			chunk = text[:end]
			text = text[end:]
		} else {
			text = ""
		}
		if master.NamesEqual(chunk, name) {
			return true
		}
	}
	return false
}

// FetchNames exports every name of a kind for cache refreshes. Unlike
// CheckExists there is no fuzzy fallback: a refresh built on a partial
// export would deactivate masters that still exist.
func (g *Gateway) FetchNames(ctx context.Context, kind master.Kind) ([]master.NameRecord, error) {
	if !g.cfg.Enabled {
		return nil, sync.ErrTallyDisabled
	}
	body, err := g.exportCollection(ctx, kind)
	if err != nil {
		return nil, err
	}
	records, err := parseCollectionNames(body, kind.Collection())
	if err != nil {
		return nil, fmt.Errorf("tally: %s export: %w", kind, err)
	}
	return records, nil
}

// CompanyCheck compares the company loaded in Tally against the configured
// one. Mismatches are warnings, not failures: operators routinely run
// checks against a test company.
type CompanyCheck struct {
	ActiveCompany     string
	ConfiguredCompany string
	Matches           bool
	Warning           string
}

// VerifyCompany asks the gateway which company is currently loaded.
// Every problem short of a disabled integration degrades to a warning.
func (g *Gateway) VerifyCompany(ctx context.Context) (*CompanyCheck, error) {
	if !g.cfg.Enabled {
		return nil, sync.ErrTallyDisabled
	}
	check := &CompanyCheck{ConfiguredCompany: g.cfg.Company, Matches: true}
	if g.cfg.Company == "" {
		check.ActiveCompany = "Not configured"
		return check, nil
	}
	reply, err := g.post(ctx, companyEnvelope())
	if err != nil {
		check.Warning = fmt.Sprintf("could not verify company: %v", err)
		return check, nil
	}
	if reply.status != http.StatusOK {
		check.Warning = fmt.Sprintf("could not verify company: HTTP %d", reply.status)
		return check, nil
	}
	if lineErr, ok := findElementText(reply.body, "LINEERROR"); ok && lineErr != "" {
		check.Warning = fmt.Sprintf("company check answered with an error: %s", lineErr)
		return check, nil
	}
	name, ok := findCompanyName(reply.body)
	if !ok {
		check.Warning = "no company name in gateway response"
		return check, nil
	}
	check.ActiveCompany = name
	check.Matches = strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(g.cfg.Company))
	if !check.Matches {
		check.Warning = fmt.Sprintf("expected company %q, gateway has %q loaded", g.cfg.Company, name)
	}
	return check, nil
}

// SendOutcome is the classified result of one Import round trip. Transport
// failures are outcomes too: they belong in the transmission log exactly
// like remote rejections.
type SendOutcome struct {
	Success       bool
	StatusCode    int
	Response      string
	Message       string
	ErrorType     sync.ErrorType
	Error         string
	VoucherNumber string
}

// Send posts an Import payload and classifies the reply. The caller owns
// the transmission log lifecycle; Send only reports what happened. An
// error return means the call never left the process.
func (g *Gateway) Send(ctx context.Context, payload string) (*SendOutcome, error) {
	if !g.cfg.Enabled {
		return nil, sync.ErrTallyDisabled
	}
	reply, err := g.post(ctx, payload)
	if err != nil {
		return &SendOutcome{
			ErrorType: classifyTransport(err),
			Error:     err.Error(),
		}, nil
	}

	body := string(reply.body)
	outcome := &SendOutcome{StatusCode: reply.status, Response: body}

	if reply.status != http.StatusOK {
		outcome.ErrorType = sync.ErrorTypeNetwork
		outcome.Error = fmt.Sprintf("HTTP %d", reply.status)
		return outcome, nil
	}
	if strings.Contains(body, "CREATED") || strings.Contains(body, "ALTERED") {
		outcome.Success = true
		if strings.Contains(body, "CREATED") {
			outcome.Message = "CREATED"
		} else {
			outcome.Message = "ALTERED"
		}
		outcome.VoucherNumber = extractVoucherNumber(body)
		return outcome, nil
	}
	if lineErr, ok := findElementText(reply.body, "LINEERROR"); ok && lineErr != "" {
		outcome.ErrorType = sync.Classify(lineErr)
		outcome.Error = lineErr
		return outcome, nil
	}
	if !wellFormed(reply.body) {
		outcome.ErrorType = sync.ErrorTypeParse
		outcome.Error = fmt.Sprintf("invalid XML response: %s", truncate(body, 200))
		return outcome, nil
	}
	outcome.ErrorType = sync.ErrorTypeUnknown
	outcome.Error = truncate(body, sync.MaxErrorMessageLength)
	return outcome, nil
}

// exportCollection posts a collection export and returns the raw body
// after the shared status and LINEERROR checks.
func (g *Gateway) exportCollection(ctx context.Context, kind master.Kind) ([]byte, error) {
	reply, err := g.post(ctx, collectionEnvelope(kind))
	if err != nil {
		return nil, err
	}
	if reply.status != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", sync.ErrTallyUnavailable, reply.status)
	}
	if lineErr, ok := findElementText(reply.body, "LINEERROR"); ok && lineErr != "" {
		return nil, fmt.Errorf("%w: %s", sync.ErrTallyRejected, lineErr)
	}
	return reply.body, nil
}

// post sends an XML payload through the circuit breaker
func (g *Gateway) post(ctx context.Context, payload string) (httpReply, error) {
	reply, err := g.breaker.Execute(func() (httpReply, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Endpoint, strings.NewReader(payload))
		if err != nil {
			return httpReply{}, fmt.Errorf("tally: failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "text/xml; charset=utf-8")
		return g.exchange(req)
	})
	return reply, mapBreakerErr(err)
}

// get probes the gateway root through the circuit breaker
func (g *Gateway) get(ctx context.Context) (httpReply, error) {
	reply, err := g.breaker.Execute(func() (httpReply, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.Endpoint, nil)
		if err != nil {
			return httpReply{}, fmt.Errorf("tally: failed to create request: %w", err)
		}
		return g.exchange(req)
	})
	return reply, mapBreakerErr(err)
}

// exchange performs one HTTP round trip and reads the bounded body
func (g *Gateway) exchange(req *http.Request) (httpReply, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		// Double wrap keeps both the sentinel and the net error visible
		return httpReply{}, fmt.Errorf("%w: %w", sync.ErrTallyUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return httpReply{}, fmt.Errorf("%w: reading response: %w", sync.ErrTallyUnavailable, err)
	}
	return httpReply{status: resp.StatusCode, body: body}, nil
}

// mapBreakerErr folds breaker rejections into the unavailable sentinel so
// callers see one failure mode for "gateway cannot be asked right now"
func mapBreakerErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: circuit open", sync.ErrTallyUnavailable)
	}
	return err
}

// classifyTransport maps a transport error onto the log error taxonomy
func classifyTransport(err error) sync.ErrorType {
	if errors.Is(err, context.DeadlineExceeded) {
		return sync.ErrorTypeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return sync.ErrorTypeTimeout
	}
	return sync.ErrorTypeNetwork
}

// wellFormed reports whether the body survives a full lenient parse
func wellFormed(data []byte) bool {
	dec := newLenientDecoder(data)
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return true
		}
		if err != nil {
			return false
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Ensure Gateway satisfies the existence oracle port
var _ master.ExistenceOracle = (*Gateway)(nil)
