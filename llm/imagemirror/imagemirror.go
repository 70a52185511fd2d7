// Package imagemirror implements ADR C8: persisting a generated image
// response to local asset storage, rewriting the client-visible URL to
// point at the proxy's own host, and recording a thumbnail plus a history
// entry.
package imagemirror

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/jpeg"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/coralmesh/llmgateway/internal/pkg/xcontext"
	"github.com/coralmesh/llmgateway/llm/imagehistory"
	"github.com/coralmesh/llmgateway/llm/perr"
)

// fetchTimeout bounds how long a mirrored image's upstream fetch may run
// once detached from the inbound request's context, so a client
// disconnecting right after the response completes never aborts the
// mirror write mid-flight.
const fetchTimeout = 30 * time.Second

const thumbnailSide = 150

// Item is one element of an openai-image response's `data` array.
type Item struct {
	B64JSON       string `json:"b64_json,omitempty"`
	URL           string `json:"url,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// Mirror persists every item of an image-generation response to the asset
// directory, rewrites item.URL to the proxy-hosted path, generates a
// thumbnail that fits within 150x150, and appends an entry to history. It
// mutates items in place.
type Mirror struct {
	assetDir   string
	proxyHost  string
	httpClient *http.Client
	history    *imagehistory.Ring
}

// New returns a Mirror writing into assetDir and rewriting URLs under
// proxyHost, recording entries into history.
func New(assetDir, proxyHost string, history *imagehistory.Ring) *Mirror {
	return &Mirror{
		assetDir:   assetDir,
		proxyHost:  proxyHost,
		httpClient: http.DefaultClient,
		history:    history,
	}
}

// Apply mirrors every item in items, using prompt as the request's
// original prompt and userToken as the caller's credential for the
// history entry's redacted token field.
func (m *Mirror) Apply(ctx context.Context, items []Item, prompt, userToken string) error {
	for i := range items {
		if err := m.mirrorOne(ctx, &items[i], prompt, userToken); err != nil {
			return err
		}
	}

	return nil
}

func (m *Mirror) mirrorOne(ctx context.Context, item *Item, prompt, userToken string) error {
	var raw []byte

	switch {
	case item.B64JSON != "":
		decoded, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return perr.NewDecodeError(err)
		}

		raw = decoded

	case item.URL != "":
		fetched, err := m.fetch(ctx, item.URL)
		if err != nil {
			return err
		}

		raw = fetched

	default:
		return perr.NewValidationError("image item has neither b64_json nor url")
	}

	id := uuid.New().String()
	basename := id + ".png"

	if err := os.MkdirAll(m.assetDir, 0o755); err != nil {
		return fmt.Errorf("creating asset directory: %w", err)
	}

	fullPath := filepath.Join(m.assetDir, basename)
	if err := os.WriteFile(fullPath, raw, 0o644); err != nil {
		return fmt.Errorf("writing mirrored image: %w", err)
	}

	if err := writeThumbnail(fullPath, raw); err != nil {
		return err
	}

	mirroredURL := strings.TrimRight(m.proxyHost, "/") + "/user_content/" + basename
	item.URL = mirroredURL
	item.B64JSON = ""

	effectivePrompt := item.RevisedPrompt
	if effectivePrompt == "" {
		effectivePrompt = prompt
	}

	m.history.Add(imagehistory.Entry{
		URL:         mirroredURL,
		Prompt:      effectivePrompt,
		InputPrompt: prompt,
		Token:       redactToken(userToken),
	})

	return nil
}

func (m *Mirror) fetch(ctx context.Context, url string) ([]byte, error) {
	detached, cancel := xcontext.DetachWithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(detached, http.MethodGet, url, nil)
	if err != nil {
		return nil, perr.NewDecodeError(err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, perr.NewDecodeError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, perr.NewDecodeError(err)
	}

	return body, nil
}

func writeThumbnail(fullPath string, raw []byte) error {
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return perr.NewDecodeError(err)
	}

	thumb := imaging.Fit(img, thumbnailSide, thumbnailSide, imaging.Lanczos)

	thumbPath := strings.TrimSuffix(fullPath, filepath.Ext(fullPath)) + "_t.jpg"

	out, err := os.Create(thumbPath)
	if err != nil {
		return fmt.Errorf("creating thumbnail file: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("encoding thumbnail: %w", err)
	}

	return nil
}

// redactToken keeps only the last 5 characters of a user credential,
// prefixed with "...", per the history entry's token field.
func redactToken(token string) string {
	if len(token) <= 5 {
		return "..." + token
	}

	return "..." + token[len(token)-5:]
}
