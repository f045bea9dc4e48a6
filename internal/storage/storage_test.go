package storage

import (
	"errors"
	"testing"

	"osld-portal/internal/config"
)

func TestObjectIDRoundTrip(t *testing.T) {
	tests := []struct {
		resourceType string
		publicID     string
		want         string
	}{
		{"raw", "osld-portal/appeals/CSC/7/f1.docx", "raw:osld-portal/appeals/CSC/7/f1.docx"},
		{"image", "osld-portal/appeals/CSC/7/f2", "image:osld-portal/appeals/CSC/7/f2"},
		{"", "legacy", "image:legacy"},
	}

	for _, tt := range tests {
		id := EncodeObjectID(tt.resourceType, tt.publicID)
		if id != tt.want {
			t.Errorf("EncodeObjectID(%q, %q) = %q, want %q", tt.resourceType, tt.publicID, id, tt.want)
		}
		rt, pid, err := DecodeObjectID(id)
		if err != nil {
			t.Fatalf("DecodeObjectID(%q) failed: %v", id, err)
		}
		if pid != tt.publicID || rt == "" {
			t.Errorf("DecodeObjectID(%q) = %q, %q", id, rt, pid)
		}
	}
}

func TestDecodeObjectIDRejectsMalformed(t *testing.T) {
	for _, id := range []string{"", "nocolon", ":missing-type", "raw:"} {
		if _, _, err := DecodeObjectID(id); err == nil {
			t.Errorf("expected error for %q", id)
		}
	}
}

func TestNewDocumentStoreRequiresCredentials(t *testing.T) {
	_, err := NewDocumentStore(&config.StorageConfig{CloudName: "demo"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}

	store, err := NewDocumentStore(&config.StorageConfig{CloudName: "demo", APIKey: "key", APISecret: "secret", Folder: "portal"})
	if err != nil {
		t.Fatalf("NewDocumentStore failed: %v", err)
	}
	if store.folder != "portal" || store.timeout <= 0 {
		t.Errorf("unexpected store settings: %+v", store)
	}
}
