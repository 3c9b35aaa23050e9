package vika

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestQueryRecords_ParsesRecords(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"code": 200,
			"message": "SUCCESS",
			"data": {
				"total": 2,
				"records": [
					{"recordId": "rec1", "fields": {"标的名称": "沪深300ETF", "当前价格": 3.91}},
					{"recordId": "rec2", "fields": {"标的名称": "纳指ETF", "当前价格": "1.55"}}
				]
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL))
	records, err := client.QueryRecords(context.Background(), "dstAssets", "viwMain")
	if err != nil {
		t.Fatalf("QueryRecords returned error: %v", err)
	}

	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	for _, want := range []string{"viewId=viwMain", "fieldKey=name"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].RecordID != "rec1" {
		t.Errorf("recordId = %q, want rec1", records[0].RecordID)
	}
	if records[0].Fields["标的名称"] != "沪深300ETF" {
		t.Errorf("name field = %v", records[0].Fields["标的名称"])
	}
}

func TestQueryRecords_UpstreamUnsuccessful(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "code": 429, "message": "操作太频繁"}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL))
	_, err := client.QueryRecords(context.Background(), "dst", "viw")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if upstream.Code != 429 {
		t.Errorf("code = %d, want 429", upstream.Code)
	}
}

func TestQueryRecords_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL))
	_, err := client.QueryRecords(context.Background(), "dst", "viw")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", apiErr.StatusCode)
	}
}
