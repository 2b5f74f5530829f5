package scraper

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockHTTPClient struct {
	mock.Mock
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*http.Response)
	return resp, args.Error(1)
}

func Test_Client_Fetch_ReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "backend developer", r.URL.Query().Get("q"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"jobs": []}`))
	}))
	defer srv.Close()

	client := NewClient(time.Second)
	body, err := client.Fetch(context.Background(), srv.URL+"/search?q=backend%20developer")
	require.NoError(t, err)
	assert.Equal(t, `{"jobs": []}`, string(body))
}

func Test_Client_Fetch_Non200_ReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(time.Second)
	_, err := client.Fetch(context.Background(), srv.URL)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}

func Test_Client_Fetch_TransportError(t *testing.T) {
	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).Return(nil, errors.New("connection refused"))

	client := NewClient(time.Second)
	client.SetHTTPClient(mockClient)

	_, err := client.Fetch(context.Background(), "https://careers.example.com/search")
	assert.ErrorContains(t, err, "connection refused")
	mockClient.AssertExpectations(t)
}

func Test_Client_Fetch_RateLimitedPerHost(t *testing.T) {
	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).Return(&http.Response{
		StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok")),
	}, nil).Once()
	mockClient.On("Do", mock.Anything).Return(&http.Response{
		StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok")),
	}, nil).Once()

	client := NewClient(time.Second)
	client.SetHTTPClient(mockClient)
	client.SetRateLimit(5)

	start := time.Now()
	_, err := client.Fetch(context.Background(), "https://careers.example.com/a")
	require.NoError(t, err)
	_, err = client.Fetch(context.Background(), "https://careers.example.com/b")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	mockClient.AssertExpectations(t)
}
