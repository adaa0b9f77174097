package yolo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestEnsureModel(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("weights"))
	}))
	defer srv.Close()

	t.Run("downloads missing model", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "models", "best.onnx")

		downloaded, err := EnsureModel(context.Background(), srv.Client(), path, srv.URL+"/best.onnx")
		if err != nil {
			t.Fatalf("EnsureModel: %v", err)
		}
		if !downloaded {
			t.Error("expected a download")
		}
		if data, _ := os.ReadFile(path); string(data) != "weights" {
			t.Errorf("content = %q", data)
		}
	})

	t.Run("keeps existing model", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "best.onnx")
		os.WriteFile(path, []byte("local"), 0644)
		before := hits.Load()

		downloaded, err := EnsureModel(context.Background(), srv.Client(), path, srv.URL+"/best.onnx")
		if err != nil {
			t.Fatalf("EnsureModel: %v", err)
		}
		if downloaded || hits.Load() != before {
			t.Error("existing model should not be fetched")
		}
		if data, _ := os.ReadFile(path); string(data) != "local" {
			t.Errorf("content = %q", data)
		}
	})

	t.Run("missing without url", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "best.onnx")

		_, err := EnsureModel(context.Background(), srv.Client(), path, "")
		if !errors.Is(err, ErrModelNotFound) {
			t.Errorf("err = %v, want ErrModelNotFound", err)
		}
	})
}
