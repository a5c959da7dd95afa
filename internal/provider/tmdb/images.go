package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Image sizes used for artwork.
const (
	PosterSize   = "w500"
	BackdropSize = "w780"
)

// Image returns the local cache path of a TMDB image, downloading it first
// when needed. An empty imagePath yields an empty result. In dry-run mode a
// missing image is not downloaded and the result is empty.
func (p *Provider) Image(ctx context.Context, size, imagePath string) (string, error) {
	imagePath = strings.TrimSpace(imagePath)
	if imagePath == "" {
		return "", nil
	}
	if p.dir == "" {
		return "", errors.New("tmdb: no cache directory for images")
	}
	if !strings.HasPrefix(imagePath, "/") {
		imagePath = "/" + imagePath
	}
	local := filepath.Join(p.dir, "images", size, filepath.FromSlash(strings.TrimPrefix(imagePath, "/")))
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}
	if p.dryRun {
		p.logger.Debug("dry run: not downloading image", "size", size, "path", imagePath)
		return "", nil
	}

	if err := p.rateLimiter.wait(ctx); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.imageBase+size+imagePath, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download image %s: %w", imagePath, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download image %s: HTTP %d", imagePath, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read image %s: %w", imagePath, err)
	}
	if err := writeFile(local, data); err != nil {
		return "", fmt.Errorf("cache image %s: %w", imagePath, err)
	}
	return local, nil
}
