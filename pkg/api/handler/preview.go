package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dskvich/chatgpt-line-bot/pkg/api/response"
	"github.com/dskvich/chatgpt-line-bot/pkg/imaging"
	"github.com/dskvich/chatgpt-line-bot/pkg/logger"
	"github.com/dskvich/chatgpt-line-bot/pkg/signer"
)

const (
	// Remote images declaring more than this are downsampled before relaying.
	downsampleThreshold = 1 << 20
	maxRemoteBody       = 20 << 20
	previewBoxSize      = 512
	remoteFetchTimeout  = 30 * time.Second
)

type Verifier interface {
	Verify(data, token string) bool
}

type preview struct {
	verifier Verifier
	client   *http.Client
	maxBody  int64
	writer   response.JSONResponseWriter
}

// NewPreview builds the image relay. A nil client gets one with a fetch timeout.
func NewPreview(verifier Verifier, client *http.Client) *preview {
	if client == nil {
		client = &http.Client{Timeout: remoteFetchTimeout}
	}
	return &preview{
		verifier: verifier,
		client:   client,
		maxBody:  maxRemoteBody,
		writer:   response.JSONResponseWriter{},
	}
}

// Handle serves GET /preview-image/{token}/{url...}. Links that were not issued by
// this process get the same answer as a missing resource.
func (p *preview) Handle(w http.ResponseWriter, r *http.Request) {
	remoteURL := r.PathValue("url")
	if remoteURL == "" || !p.verifier.Verify(signer.Encode(remoteURL), r.PathValue("token")) {
		p.writer.WriteTextResponse(w, http.StatusNotFound, "Not Found")
		return
	}

	body, contentType, err := p.fetch(r, remoteURL)
	if err != nil {
		slog.ErrorContext(r.Context(), "Fetching remote image", "url", remoteURL, logger.Err(err))
		p.writer.WriteTextResponse(w, http.StatusBadGateway, "Bad Gateway")
		return
	}

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.WarnContext(r.Context(), "Writing relayed image", logger.Err(err))
	}
}

func (p *preview) fetch(r *http.Request, remoteURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, remoteURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	if resp.ContentLength > p.maxBody {
		return nil, "", fmt.Errorf("declared body of %d bytes exceeds %d", resp.ContentLength, p.maxBody)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBody+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading body: %w", err)
	}
	if int64(len(body)) > p.maxBody {
		return nil, "", fmt.Errorf("body exceeds %d bytes", p.maxBody)
	}

	contentType := resp.Header.Get("Content-Type")
	if resp.ContentLength <= downsampleThreshold {
		return body, contentType, nil
	}

	small, smallType, err := imaging.Downsample(body, previewBoxSize, previewBoxSize)
	if err != nil {
		slog.WarnContext(r.Context(), "Relaying image without downsampling", "url", remoteURL, logger.Err(err))
		return body, contentType, nil
	}
	return small, smallType, nil
}
