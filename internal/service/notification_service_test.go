package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"osld-portal/internal/models"
)

func TestNotificationsForViewer(t *testing.T) {
	h := newHarness(t, time.Now())
	ctx := context.Background()

	for _, target := range []string{"CSC", models.TargetAll, models.TargetAccreditedOrganizations, "JPIA", "USG"} {
		if err := h.notifications.Create(ctx, &models.Notification{Title: "To " + target, CreatedBy: "OSLD", TargetOrg: target}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	tests := []struct {
		viewer string
		want   int
	}{
		{"CSC", 3},
		{"USG", 2},
		{"LSG", 1},
	}

	for _, tt := range tests {
		t.Run(tt.viewer, func(t *testing.T) {
			list, err := h.notificationSvc.List(ctx, h.viewer(t, tt.viewer))
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(list) != tt.want {
				t.Errorf("expected %d notifications, got %d", tt.want, len(list))
			}
		})
	}
}

func TestMarkRead(t *testing.T) {
	h := newHarness(t, time.Now())
	ctx := context.Background()
	csc := h.viewer(t, "CSC")

	toAll := &models.Notification{Title: "Fair", CreatedBy: "OSLD", TargetOrg: models.TargetAll}
	toJPIA := &models.Notification{Title: "Private", CreatedBy: "OSLD", TargetOrg: "JPIA"}
	_ = h.notifications.Create(ctx, toAll)
	_ = h.notifications.Create(ctx, toJPIA)

	for i := 0; i < 2; i++ {
		if err := h.notificationSvc.MarkRead(ctx, csc, toAll.ID); err != nil {
			t.Fatalf("MarkRead failed: %v", err)
		}
	}
	if got := h.notifications.reads[toAll.ID]; len(got) != 1 {
		t.Errorf("expected a single read receipt, got %v", got)
	}

	// read status is per organization
	list, _ := h.notificationSvc.List(ctx, h.viewer(t, "USG"))
	for _, n := range list {
		if n.Read {
			t.Errorf("notification %d should be unread for USG", n.ID)
		}
	}

	if err := h.notificationSvc.MarkRead(ctx, csc, toJPIA.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a notification addressed elsewhere, got %v", err)
	}
	if err := h.notificationSvc.MarkRead(ctx, csc, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for an unknown notification, got %v", err)
	}
}
