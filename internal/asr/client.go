package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"call-audit-go/internal/domain"
	"call-audit-go/internal/logger"
)

// Client talks to the transcription service over HTTP: publish the audio,
// poll until the job finishes, download the transcript document.
type Client struct {
	baseURL   string
	modelTier string
	http      *http.Client
	log       *logger.Logger

	pollInterval time.Duration
	maxPolls     int
}

// NewClient builds a client for the given service host and model tier.
func NewClient(baseURL, modelTier string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		modelTier:    modelTier,
		http:         &http.Client{Timeout: 30 * time.Second},
		log:          logger.New(),
		pollInterval: 1500 * time.Millisecond,
		maxPolls:     40,
	}
}

type publishResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		MediaId       string `json:"MediaId"`
		Status        string `json:"Status"`
		TranscriptURL string `json:"TranscriptURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

type statusResponse struct {
	Code int `json:"Code"`
	Data struct {
		Status        string `json:"Status"` // Success, Queued, Processing, Failed
		TranscriptURL string `json:"TranscriptURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

type transcriptDocument struct {
	Text     string  `json:"text"`
	Language string  `json:"detected_language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Speaker string  `json:"speaker"`
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		Text    string  `json:"text"`
	} `json:"segments"`
}

// Transcribe runs the full publish/poll/download cycle for one recording.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (domain.Transcript, error) {
	log := c.log.WithField("module", "asr").WithField("audio", filepath.Base(audioPath))

	mediaID, existingURL, err := c.publish(ctx, audioPath)
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	finalURL := existingURL
	if finalURL == "" {
		finalURL, err = c.poll(ctx, mediaID)
		if err != nil {
			return domain.Transcript{}, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
		}
	}
	log.WithField("transcript_url", finalURL).Info("transcription completed, downloading")

	doc, err := c.download(ctx, finalURL)
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	return doc, nil
}

func (c *Client) publish(ctx context.Context, audioPath string) (string, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	part, err := w.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return "", "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", "", fmt.Errorf("read audio: %w", err)
	}
	_ = w.WriteField("model", c.modelTier)
	_ = w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", &b)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp publishResponse
	if err := c.doJSON(ctx, req, &resp); err != nil {
		return "", "", err
	}
	if resp.Code != 200 {
		return "", "", fmt.Errorf("publish rejected: code=%d reason=%s", resp.Code, resp.Reason)
	}
	if resp.Data.TranscriptURL != "" && strings.EqualFold(resp.Data.Status, "success") {
		return "", resp.Data.TranscriptURL, nil
	}
	return resp.Data.MediaId, "", nil
}

func (c *Client) poll(ctx context.Context, mediaID string) (string, error) {
	endpoint, _ := url.Parse(c.baseURL + "/getstatus")
	q := endpoint.Query()
	q.Set("mediaId", mediaID)
	endpoint.RawQuery = q.Encode()

	for i := 0; i < c.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			return "", err
		}
		var s statusResponse
		if err := c.doJSON(ctx, req, &s); err != nil {
			c.log.WithError(err).Warn("asr status poll failed")
			continue
		}
		switch s.Data.Status {
		case "Success":
			return s.Data.TranscriptURL, nil
		case "Queued", "Processing":
			continue
		case "Failed":
			return "", fmt.Errorf("service reported failure: %s", s.Reason)
		}
	}
	return "", fmt.Errorf("gave up after %d polls", c.maxPolls)
}

func (c *Client) download(ctx context.Context, rawURL string) (domain.Transcript, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.Transcript{}, err
	}
	var doc transcriptDocument
	if err := c.doJSON(ctx, req, &doc); err != nil {
		return domain.Transcript{}, fmt.Errorf("download transcript: %w", err)
	}
	t := domain.Transcript{Text: doc.Text, Language: doc.Language, Duration: doc.Duration}
	for _, seg := range doc.Segments {
		t.Segments = append(t.Segments, domain.Segment{
			Speaker: seg.Speaker, Start: seg.Start, End: seg.End, Text: seg.Text,
		})
	}
	return t, nil
}

// doJSON issues the request with exponential backoff on transport and 5xx
// errors, decoding the body into target.
func (c *Client) doJSON(ctx context.Context, req *http.Request, target interface{}) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 12 * time.Second

	var lastErr error
	op := func() error {
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %s", strings.TrimSpace(string(body)))
			return lastErr
		}
		if len(body) == 0 {
			lastErr = fmt.Errorf("empty response body")
			return lastErr
		}
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = fmt.Errorf("decode response: %v", err)
			return lastErr
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr != nil {
			return lastErr
		}
		return err
	}
	return nil
}
