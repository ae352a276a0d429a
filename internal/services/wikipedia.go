package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	defaultEndpoint  = "https://%s.wikipedia.org/w/api.php"
	defaultUserAgent = "memoria_chatbot/1.0 (https://github.com/memoria-chatbot)"
	maxBackoff       = 10 * time.Second
	linkLimit        = 50
)

// WikipediaConfig configures the MediaWiki client. Zero values take defaults.
type WikipediaConfig struct {
	Language   string
	Endpoint   string // overrides the endpoint built from Language
	Sentences  int
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	UserAgent  string
}

// Wikipedia looks phrases up in the MediaWiki API and summarizes the
// article found.
type Wikipedia struct {
	client     *http.Client
	endpoint   string
	sentences  int
	maxRetries int
	baseDelay  time.Duration
	userAgent  string
	log        zerolog.Logger
}

func NewWikipedia(cfg WikipediaConfig, log zerolog.Logger) *Wikipedia {
	if cfg.Language == "" {
		cfg.Language = "pt"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = fmt.Sprintf(defaultEndpoint, cfg.Language)
	}
	if cfg.Sentences <= 0 {
		cfg.Sentences = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	return &Wikipedia{
		client:     &http.Client{Timeout: cfg.Timeout},
		endpoint:   cfg.Endpoint,
		sentences:  cfg.Sentences,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		userAgent:  cfg.UserAgent,
		log:        log.With().Str("component", "wikipedia").Logger(),
	}
}

// Endpoint returns the API URL in use
func (w *Wikipedia) Endpoint() string { return w.endpoint }

// MediaWiki formatversion=2 responses

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type searchResponse struct {
	Error *apiError `json:"error"`
	Query struct {
		SearchInfo struct {
			Suggestion string `json:"suggestion"`
		} `json:"searchinfo"`
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type pageResponse struct {
	Error *apiError `json:"error"`
	Query struct {
		Pages []struct {
			Title     string            `json:"title"`
			Missing   bool              `json:"missing"`
			Invalid   bool              `json:"invalid"`
			Extract   string            `json:"extract"`
			PageProps map[string]string `json:"pageprops"`
			Links     []struct {
				Title string `json:"title"`
			} `json:"links"`
		} `json:"pages"`
	} `json:"query"`
}

// Lookup searches query, follows the best title and returns its summary.
func (w *Wikipedia) Lookup(ctx context.Context, query string) Result {
	start := time.Now()
	res := w.lookup(ctx, query)

	level := zerolog.DebugLevel
	if res.Outcome == OutcomeFailed {
		level = zerolog.WarnLevel
	}
	ev := w.log.WithLevel(level)
	if res.Outcome == OutcomeFailed {
		ev = ev.Str("error", res.Err)
	}
	ev.Str("query", query).
		Str("outcome", string(res.Outcome)).
		Dur("latency", time.Since(start)).
		Msg("Wikipedia lookup")

	return res
}

func (w *Wikipedia) lookup(ctx context.Context, query string) Result {
	title, ok, err := w.search(ctx, query)
	if err != nil {
		return Failed(err)
	}
	if !ok {
		return NotFound()
	}

	var page pageResponse
	err = w.get(ctx, url.Values{
		"action":      {"query"},
		"prop":        {"extracts|pageprops"},
		"ppprop":      {"disambiguation"},
		"exintro":     {"1"},
		"explaintext": {"1"},
		"exsentences": {strconv.Itoa(w.sentences)},
		"redirects":   {"1"},
		"titles":      {title},
	}, &page)
	if err != nil {
		return Failed(err)
	}
	if page.Error != nil {
		return Failed(page.Error)
	}
	if len(page.Query.Pages) == 0 {
		return NotFound()
	}

	p := page.Query.Pages[0]
	if p.Missing || p.Invalid {
		return NotFound()
	}
	if _, ok := p.PageProps["disambiguation"]; ok {
		options, err := w.links(ctx, p.Title)
		if err != nil {
			return Failed(err)
		}
		return Ambiguous(options)
	}

	return Found(p.Extract)
}

// search returns the spelling suggestion when there is one, else the first
// hit.
func (w *Wikipedia) search(ctx context.Context, query string) (string, bool, error) {
	var resp searchResponse
	err := w.get(ctx, url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {"1"},
		"srinfo":   {"suggestion"},
		"srprop":   {""},
	}, &resp)
	if err != nil {
		return "", false, err
	}
	if resp.Error != nil {
		return "", false, resp.Error
	}

	if s := resp.Query.SearchInfo.Suggestion; s != "" {
		return s, true, nil
	}
	if len(resp.Query.Search) == 0 {
		return "", false, nil
	}
	return resp.Query.Search[0].Title, true, nil
}

func (w *Wikipedia) links(ctx context.Context, title string) ([]string, error) {
	var resp pageResponse
	err := w.get(ctx, url.Values{
		"action":      {"query"},
		"prop":        {"links"},
		"plnamespace": {"0"},
		"pllimit":     {strconv.Itoa(linkLimit)},
		"titles":      {title},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	options := []string{}
	for _, p := range resp.Query.Pages {
		for _, l := range p.Links {
			options = append(options, l.Title)
		}
	}
	return options, nil
}

func (e *apiError) Error() string {
	if e.Info == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Info)
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("wikipedia returned %d %s", e.code, http.StatusText(e.code))
}

// get runs one API call, retrying transient failures with exponential backoff
func (w *Wikipedia) get(ctx context.Context, params url.Values, out any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")
	reqURL := w.endpoint + "?" + params.Encode()

	var body []byte
	op := func() error {
		var err error
		body, err = w.fetch(ctx, reqURL)
		if err != nil && !isRetryable(ctx, err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		w.log.Warn().Err(err).Dur("wait", wait).Msg("Retrying wikipedia request")
	}

	if err := backoff.RetryNotify(op, w.retryPolicy(ctx), notify); err != nil {
		return err
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode wikipedia response: %w", err)
	}
	return nil
}

func (w *Wikipedia) retryPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.baseDelay
	b.MaxInterval = maxBackoff
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(w.maxRetries)), ctx)
}

func (w *Wikipedia) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", w.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read wikipedia response: %w", err)
	}
	return body, nil
}

func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}
