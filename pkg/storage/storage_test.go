package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestParseS3URI(t *testing.T) {
	cases := []struct {
		uri, bucket, key string
		ok               bool
	}{
		{"s3://bucket/logs/run.txt", "bucket", "logs/run.txt", true},
		{"s3://bucket", "bucket", "", true},
		{"s3:///key", "", "", false},
		{"/local/path", "", "", false},
	}
	for _, c := range cases {
		u, err := ParseS3URI(c.uri)
		if (err == nil) != c.ok {
			t.Errorf("%s: unexpected error state %v", c.uri, err)
			continue
		}
		if err == nil && (u.Bucket != c.bucket || u.Key != c.key) {
			t.Errorf("%s: got %+v", c.uri, u)
		}
	}
}

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st, err := NewStorage(ctx, dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := st.(*LocalStorage); !ok {
		t.Fatalf("expected local storage for %s, got %T", dir, st)
	}

	if ok, err := st.Exists(ctx, "logs/a.txt"); err != nil || ok {
		t.Fatalf("exists before write: %v %v", ok, err)
	}
	if err := st.WriteFile(ctx, "logs/a.txt", []byte("hello\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if ok, err := st.Exists(ctx, "logs/a.txt"); err != nil || !ok {
		t.Fatalf("exists after write: %v %v", ok, err)
	}
	data, err := st.ReadFile(ctx, "logs/a.txt")
	if err != nil || string(data) != "hello\n" {
		t.Fatalf("read: %q %v", data, err)
	}
}

func TestLocations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "log.txt")
	if ok, err := ExistsLocation(ctx, path); err != nil || ok {
		t.Fatalf("exists before write: %v %v", ok, err)
	}
	if err := WriteLocation(ctx, path, []byte("x\ty\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := ReadLocation(ctx, path)
	if err != nil || string(data) != "x\ty\n" {
		t.Fatalf("read: %q %v", data, err)
	}
	if ok, err := ExistsLocation(ctx, path); err != nil || !ok {
		t.Fatalf("exists after write: %v %v", ok, err)
	}
	if _, err := ReadLocation(ctx, "s3://bucket"); err == nil {
		t.Fatal("expected an error for a bucket-only location")
	}
	if _, err := ExistsLocation(ctx, "s3://bucket"); err == nil {
		t.Fatal("expected an error for a bucket-only location")
	}
}
