package transcriber

import (
	"bytes"
	"context"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	tapi "github.com/airenas/scribe/internal/pkg/transcriber/api"
	"github.com/airenas/scribe/internal/pkg/utils"
	"github.com/cenkalti/backoff/v4"
)

// Client communicates with AssemblyAI compatible transcription service
type Client struct {
	httpclient *http.Client
	url        string
	key        string
	pollEvery  time.Duration
	timeout    time.Duration
	backoff    func() backoff.BackOff
}

// NewClient creates a transcriber client
func NewClient(urlStr, key string, pollEvery time.Duration) (*Client, error) {
	if urlStr == "" {
		return nil, fmt.Errorf("no url")
	}
	if !strings.HasPrefix(urlStr, "http") {
		return nil, fmt.Errorf("no http in url")
	}
	if key == "" {
		return nil, fmt.Errorf("no key")
	}
	if pollEvery <= 0 {
		return nil, fmt.Errorf("wrong poll interval %v", pollEvery)
	}
	res := Client{}
	res.url = strings.TrimSuffix(urlStr, "/")
	res.key = key
	res.pollEvery = pollEvery
	res.timeout = time.Second * 50
	res.httpclient = asrHTTPClient()
	res.backoff = newSimpleBackoff
	return &res, nil
}

type transcriptRequest struct {
	AudioURL          string `json:"audio_url"`
	LanguageCode      string `json:"language_code,omitempty"`
	LanguageDetection bool   `json:"language_detection,omitempty"`
	SpeakerLabels     bool   `json:"speaker_labels"`
	SpeakersExpected  int    `json:"speakers_expected,omitempty"`
}

type transcriptResponse struct {
	ID         string           `json:"id"`
	Status     string           `json:"status"`
	Text       string           `json:"text"`
	Error      string           `json:"error"`
	Utterances []tapi.Utterance `json:"utterances"`
}

// Transcribe submits audio URL and blocks until the provider finishes.
// TLS certificate verification failures are returned as utils.ErrTransient
func (sp *Client) Transcribe(ctx context.Context, audioURL string, cfg *tapi.Config) (*tapi.Result, error) {
	if audioURL == "" {
		return nil, fmt.Errorf("no audio url")
	}
	if cfg == nil {
		cfg = &tapi.Config{}
	}
	resp, err := sp.submit(ctx, audioURL, cfg)
	if err != nil {
		return nil, err
	}
	goapp.Log.Info().Str("extID", resp.ID).Str("status", resp.Status).Msg("submitted")
	for !isFinal(resp.Status) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sp.pollEvery):
		}
		if resp, err = sp.getStatus(ctx, resp.ID); err != nil {
			return nil, err
		}
		goapp.Log.Debug().Str("extID", resp.ID).Str("status", resp.Status).Msg("status")
	}
	return &tapi.Result{ID: resp.ID, Status: resp.Status, Text: resp.Text, Error: resp.Error,
		Utterances: resp.Utterances}, nil
}

func (sp *Client) submit(ctx context.Context, audioURL string, cfg *tapi.Config) (*transcriptResponse, error) {
	in := transcriptRequest{AudioURL: audioURL, SpeakerLabels: cfg.SpeakerLabels, SpeakersExpected: cfg.SpeakersExpected}
	if cfg.LanguageDetection {
		in.LanguageDetection = true
	} else {
		in.LanguageCode = cfg.LanguageCode
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("can't marshal: %w", err)
	}
	ctx, cancelF := context.WithTimeout(ctx, sp.timeout)
	defer cancelF()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sp.url+"/v2/transcript", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", sp.key)
	goapp.Log.Info().Str("url", req.URL.String()).Str("method", req.Method).Msg("call")
	res, _, err := sp.do(req)
	return res, err
}

func (sp *Client) getStatus(ctx context.Context, ID string) (*transcriptResponse, error) {
	return goapp.InvokeWithBackoff(ctx, func() (*transcriptResponse, bool, error) {
		ctx, cancelF := context.WithTimeout(ctx, sp.timeout)
		defer cancelF()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v2/transcript/%s", sp.url, ID), nil)
		if err != nil {
			return nil, false, err
		}
		req.Header.Set("Authorization", sp.key)
		return sp.do(req)
	}, sp.backoff())
}

// do returns decoded response, retry flag and error
func (sp *Client) do(req *http.Request) (*transcriptResponse, bool, error) {
	resp, err := sp.httpclient.Do(req)
	if err != nil {
		if IsCertVerifyErr(err) {
			return nil, false, utils.NewErrTransient(fmt.Errorf("can't call: %w", err))
		}
		return nil, goapp.IsRetryableErr(err), fmt.Errorf("can't call: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
		_ = resp.Body.Close()
	}()
	if err := goapp.ValidateHTTPResp(resp, 100); err != nil {
		err = fmt.Errorf("can't invoke '%s': %w", req.URL.String(), err)
		return nil, goapp.IsRetryableCode(resp.StatusCode), err
	}
	res := &transcriptResponse{}
	if err := json.NewDecoder(resp.Body).Decode(res); err != nil {
		return nil, false, fmt.Errorf("can't decode response: %w", err)
	}
	if res.ID == "" {
		return nil, false, fmt.Errorf("can't get ID from response")
	}
	return res, false, nil
}

// IsCertVerifyErr checks if err is a connection error caused by TLS certificate verification
func IsCertVerifyErr(err error) bool {
	var uErr *url.Error
	if !errors.As(err, &uErr) {
		return false
	}
	var uaErr x509.UnknownAuthorityError
	var hErr x509.HostnameError
	var ciErr x509.CertificateInvalidError
	if errors.As(err, &uaErr) || errors.As(err, &hErr) || errors.As(err, &ciErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "certificate verify failed") || strings.Contains(msg, "failed to verify certificate")
}

func isFinal(st string) bool {
	return st == tapi.StatusCompleted || st == tapi.StatusError
}

func asrHTTPClient() *http.Client {
	return &http.Client{Transport: newTransport()}
}

func newTransport() http.RoundTripper {
	// default roundripper is not well suited for our case
	// it has just 2 idle connections per host, so try to tune a bit
	res := http.DefaultTransport.(*http.Transport).Clone()
	res.MaxConnsPerHost = 100
	res.MaxIdleConns = 50
	res.MaxIdleConnsPerHost = 50
	res.IdleConnTimeout = 90 * time.Second
	return res
}

func newSimpleBackoff() backoff.BackOff {
	res := backoff.NewExponentialBackOff()
	return backoff.WithMaxRetries(res, 3)
}
