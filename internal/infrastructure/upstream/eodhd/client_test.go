package eodhd_test

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"warrantfeed/internal/domain"
	"warrantfeed/internal/infrastructure/upstream/eodhd"
)

func respond(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	t.Parallel()

	_, err := eodhd.NewClient(" ")
	require.Error(t, err)
}

func TestURL(t *testing.T) {
	t.Parallel()

	client, err := eodhd.NewClient("tok", eodhd.WithBaseURL("http://localhost:8080/api/real-time"))
	require.NoError(t, err)

	require.Equal(t,
		"http://localhost:8080/api/real-time/0001.KLSE?api_token=tok&fmt=json&s=0002.KLSE%2C0003.KLSE",
		client.URL([]string{"0001.KLSE", "0002.KLSE", "0003.KLSE"}))
	require.Equal(t,
		"http://localhost:8080/api/real-time/0001.KLSE?api_token=tok&fmt=json",
		client.URL([]string{"0001.KLSE"}))
}

func TestFetch(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Equal(t, "tok", req.URL.Query().Get("api_token"))
			require.Equal(t, "json", req.URL.Query().Get("fmt"))
			require.Equal(t, "B.KLSE", req.URL.Query().Get("s"))
			require.True(t, strings.HasSuffix(req.URL.Path, "/A.KLSE"))
			require.Equal(t, "application/json", req.Header.Get("Accept"))

			return respond(http.StatusOK, `[
				{"code":"A.KLSE","timestamp":1700000000,"open":9,"high":11,"low":8,"close":10,"volume":100,"change":1,"change_p":11.1},
				{"code":"B.KLSE","timestamp":"1700000000","open":"NA","high":"NA","low":"NA","close":"NA","volume":0,"change":"NA","change_p":"NA"}
			]`)(req)
		}).
		Times(1)

	// Arrange: setup the client
	client, err := eodhd.NewClient("tok", eodhd.WithHTTPClient(httpClient), eodhd.WithBaseURL("http://upstream/api/real-time/"))
	require.NoError(t, err)

	// Act
	entries, err := client.Fetch(t.Context(), []string{"A.KLSE", "B.KLSE"})

	// Assert
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "A.KLSE", entries[0].Symbol)
	require.Equal(t, domain.Num(10), entries[0].Close)
	require.Equal(t, domain.Num(1700000000), entries[1].Timestamp)
	require.False(t, entries[1].Close.Present)
}

func TestFetchSingleObject(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(respond(http.StatusOK, `{"code":"A.KLSE","close":1.5,"volume":10}`)).
		Times(1)

	client, err := eodhd.NewClient("tok", eodhd.WithHTTPClient(httpClient))
	require.NoError(t, err)

	entries, err := client.Fetch(t.Context(), []string{"A.KLSE"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 1.5, entries[0].Close.Value)
}

func TestFetchErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		do   func(*http.Request) (*http.Response, error)
		want error
	}{
		{"transport", func(*http.Request) (*http.Response, error) { return nil, errors.New("dial tcp: refused") }, domain.ErrUpstreamUnreachable},
		{"unauthorized", respond(http.StatusUnauthorized, `{"error":"bad token"}`), domain.ErrUpstreamUnreachable},
		{"rate limited", respond(http.StatusTooManyRequests, ``), domain.ErrUpstreamUnreachable},
		{"server error", respond(http.StatusBadGateway, ``), domain.ErrUpstreamUnreachable},
		{"not json", respond(http.StatusOK, `<html>down</html>`), domain.ErrUpstreamMalformed},
		{"broken array", respond(http.StatusOK, `[{"code":"A"`), domain.ErrUpstreamMalformed},
		{"empty body", respond(http.StatusOK, ``), domain.ErrUpstreamMalformed},
		{"error object", respond(http.StatusOK, `{"error":"bad token"}`), domain.ErrUpstreamMalformed},
		{"object with blank code", respond(http.StatusOK, `{"code":" ","close":1}`), domain.ErrUpstreamMalformed},
		{"array of non-objects", respond(http.StatusOK, `["a","b"]`), domain.ErrUpstreamMalformed},
		{"empty array", respond(http.StatusOK, `[]`), domain.ErrUpstreamEmpty},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			httpClient := NewMockHTTPClient(ctrl)
			httpClient.EXPECT().Do(gomock.Any()).DoAndReturn(tc.do).Times(1)

			client, err := eodhd.NewClient("tok", eodhd.WithHTTPClient(httpClient))
			require.NoError(t, err)

			entries, err := client.Fetch(t.Context(), []string{"A.KLSE", "B.KLSE", "C.KLSE"})
			require.ErrorIs(t, err, tc.want)
			require.Nil(t, entries)
		})
	}
}

func TestFetchSkipsUndecodableRecords(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(respond(http.StatusOK, `["oops", {"code":"A.KLSE","close":2,"volume":5}, 42]`)).
		Times(1)

	client, err := eodhd.NewClient("tok", eodhd.WithHTTPClient(httpClient))
	require.NoError(t, err)

	entries, err := client.Fetch(t.Context(), []string{"A.KLSE"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "A.KLSE", entries[0].Symbol)
}

func TestFetchNoSymbols(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	client, err := eodhd.NewClient("tok", eodhd.WithHTTPClient(NewMockHTTPClient(ctrl)))
	require.NoError(t, err)

	entries, err := client.Fetch(t.Context(), nil)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestFetchTokenNotLeaked(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("Get " + req.URL.String() + ": timeout")
		})

	client, err := eodhd.NewClient("s3cr3t", eodhd.WithHTTPClient(httpClient))
	require.NoError(t, err)

	_, err = client.Fetch(t.Context(), []string{"A.KLSE"})
	require.ErrorIs(t, err, domain.ErrUpstreamUnreachable)
	require.NotContains(t, err.Error(), "s3cr3t")
}
