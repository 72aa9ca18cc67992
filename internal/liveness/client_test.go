package liveness_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcErr "github.com/ember-dating/engine/internal/errors"
	"github.com/ember-dating/engine/internal/liveness"
)

func TestDetectFaceAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/detect-face", r.URL.Path)

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "selfie.jpg", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"decision":"ACCEPTED","faces_count":1,"message":"Face verified successfully"}`))
	}))
	defer srv.Close()

	client := liveness.NewClient(srv.URL, time.Second)
	res, err := client.DetectFace(context.Background(), "selfie.jpg", strings.NewReader("fakebytes"))
	require.NoError(t, err)
	assert.True(t, res.Accepted())
	assert.Equal(t, 1, res.FacesCount)
}

func TestDetectFaceRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"decision":"REJECTED","faces_count":2,"message":"Multiple faces detected"}`))
	}))
	defer srv.Close()

	client := liveness.NewClient(srv.URL, time.Second)
	res, err := client.DetectFace(context.Background(), "group.jpg", strings.NewReader("fakebytes"))
	require.NoError(t, err)
	assert.False(t, res.Accepted())
	assert.Equal(t, 2, res.FacesCount)
}

func TestDetectFaceBadUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no image", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := liveness.NewClient(srv.URL, time.Second)
	_, err := client.DetectFace(context.Background(), "x.jpg", strings.NewReader(""))
	assert.True(t, svcErr.IsValidation(err))
}

func TestDetectFaceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := liveness.NewClient(srv.URL, time.Second)
	_, err := client.DetectFace(context.Background(), "x.jpg", strings.NewReader("fakebytes"))
	assert.True(t, svcErr.IsTransient(err))
}

func TestDetectFaceUnreachable(t *testing.T) {
	client := liveness.NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := client.DetectFace(context.Background(), "x.jpg", strings.NewReader("fakebytes"))
	assert.True(t, svcErr.IsTransient(err))
}
