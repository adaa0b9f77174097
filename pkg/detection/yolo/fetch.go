package yolo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/teslashibe/go-fiducial/internal/httpc"
	"github.com/teslashibe/go-fiducial/internal/log"
)

// EnsureModel makes sure the model file exists at path, downloading it from
// url when it is missing. An existing file is never replaced. With an empty
// url a missing file is ErrModelNotFound.
func EnsureModel(ctx context.Context, client *http.Client, path, url string) (downloaded bool, err error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat model: %w", err)
	}

	if url == "" {
		return false, fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}

	log.Info("downloading model", "url", url, "path", path)
	n, err := httpc.Download(ctx, client, url, path)
	if err != nil {
		return false, err
	}
	log.Info("model downloaded", "path", path, "bytes", n)
	return true, nil
}
