// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import "testing"

func TestNewUnconfigured(t *testing.T) {
	tests := []struct {
		name      string
		endpoint  string
		accessKey string
		secretKey string
	}{
		{name: "no endpoint", endpoint: "", accessKey: "k", secretKey: "s"},
		{name: "no access key", endpoint: "https://s3.example.com", accessKey: "", secretKey: "s"},
		{name: "no secret key", endpoint: "https://s3.example.com", accessKey: "k", secretKey: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.endpoint, "us-east-1", tt.accessKey, tt.secretKey, "media", "")
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if c != nil {
				t.Error("expected nil client when storage is unconfigured")
			}
		})
	}
}

func testClient(t *testing.T, publicURL string) *Client {
	t.Helper()
	c, err := New("https://s3.example.com/", "us-east-1", "key", "secret", "site-media", publicURL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c == nil {
		t.Fatal("expected a configured client")
	}
	return c
}

func TestFileURL(t *testing.T) {
	t.Run("path-style without public URL", func(t *testing.T) {
		c := testClient(t, "")
		got := c.FileURL("media/abc.png")
		want := "https://s3.example.com/site-media/media/abc.png"
		if got != want {
			t.Errorf("FileURL: got %q, want %q", got, want)
		}
	})

	t.Run("public URL wins when configured", func(t *testing.T) {
		c := testClient(t, "https://cdn.example.com/")
		got := c.FileURL("media/abc.png")
		want := "https://cdn.example.com/media/abc.png"
		if got != want {
			t.Errorf("FileURL: got %q, want %q", got, want)
		}
	})
}

// TestExtractS3KeyRoundTrip verifies that every URL FileURL hands out can
// be turned back into its object key — the delete flow depends on it.
func TestExtractS3KeyRoundTrip(t *testing.T) {
	for _, publicURL := range []string{"", "https://cdn.example.com"} {
		c := testClient(t, publicURL)
		url := c.FileURL("media/abc.png")
		key, ok := c.ExtractS3Key(url)
		if !ok {
			t.Fatalf("ExtractS3Key(%q) did not match (publicURL=%q)", url, publicURL)
		}
		if key != "media/abc.png" {
			t.Errorf("key: got %q, want %q", key, "media/abc.png")
		}
	}
}

func TestExtractS3KeyForeignURL(t *testing.T) {
	c := testClient(t, "https://cdn.example.com")

	foreign := []string{
		"https://elsewhere.example.com/media/abc.png",
		"https://s3.example.com/other-bucket/media/abc.png",
		"data:image/png;base64,iVBOR",
		"",
	}
	for _, url := range foreign {
		if key, ok := c.ExtractS3Key(url); ok {
			t.Errorf("ExtractS3Key(%q) matched foreign URL with key %q", url, key)
		}
	}
}
