package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"quotedesk/pkg/domain"
)

func uploadTestFile(t *testing.T, a *App, actor domain.User, quotationID, name, body string) (domain.Attachment, error) {
	t.Helper()
	return a.UploadAttachment(context.Background(), actor, AttachmentUpload{
		QuotationID: quotationID,
		FileName:    name,
		ContentType: "application/pdf",
		SizeBytes:   int64(len(body)),
		Body:        strings.NewReader(body),
	})
}

func TestUploadAttachmentDraftOnly(t *testing.T) {
	a, s := newTestApp(t)
	ctx := context.Background()
	dist := seedUser(t, s, "d@example.com", domain.RoleDistributor)
	client := seedUser(t, s, "c@example.com", domain.RoleClient)
	p := seedProduct(t, s, dist, "widget", 10)
	q := seedQuotation(t, s, dist, client, []domain.QuotationItem{{ProductID: p.ID, Quantity: 1, UnitPrice: 10}})

	att, err := uploadTestFile(t, a, dist, q.ID, "../sneaky/offer.pdf", "pdf-bytes")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if att.FileName != "offer.pdf" {
		t.Fatalf("file name not sanitized: %q", att.FileName)
	}
	if att.SizeBytes != int64(len("pdf-bytes")) {
		t.Fatalf("size = %d", att.SizeBytes)
	}
	if att.Metadata["uploadedBy"] != dist.ID {
		t.Fatalf("metadata: %+v", att.Metadata)
	}

	if _, err := uploadTestFile(t, a, client, q.ID, "x.pdf", "x"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for client upload, got: %v", err)
	}

	sent := domain.StatusSent
	if _, err := a.UpdateQuotation(ctx, dist, QuotationUpdateInput{ID: q.ID, Status: &sent}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := uploadTestFile(t, a, dist, q.ID, "x.pdf", "x"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden after draft, got: %v", err)
	}
}

func TestAttachmentDownloadURLParties(t *testing.T) {
	a, s := newTestApp(t)
	ctx := context.Background()
	dist := seedUser(t, s, "d@example.com", domain.RoleDistributor)
	client := seedUser(t, s, "c@example.com", domain.RoleClient)
	outsider := seedUser(t, s, "o@example.com", domain.RoleClient)
	p := seedProduct(t, s, dist, "widget", 10)
	q := seedQuotation(t, s, dist, client, []domain.QuotationItem{{ProductID: p.ID, Quantity: 1, UnitPrice: 10}})

	att, err := uploadTestFile(t, a, dist, q.ID, "offer.pdf", "pdf-bytes")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	for _, actor := range []domain.User{dist, client} {
		got, err := a.AttachmentDownloadURL(ctx, actor, att.ID)
		if err != nil {
			t.Fatalf("download url for %s: %v", actor.Email, err)
		}
		if got.URL == "" {
			t.Fatal("expected presigned url")
		}
	}
	if _, err := a.AttachmentDownloadURL(ctx, outsider, att.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for outsider, got: %v", err)
	}
	if _, err := a.AttachmentDownloadURL(ctx, dist, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got: %v", err)
	}
}

func TestDeleteAttachmentRules(t *testing.T) {
	a, s := newTestApp(t)
	ctx := context.Background()
	dist := seedUser(t, s, "d@example.com", domain.RoleDistributor)
	admin := seedUser(t, s, "admin@example.com", domain.RoleAdmin)
	client := seedUser(t, s, "c@example.com", domain.RoleClient)
	p := seedProduct(t, s, dist, "widget", 10)
	q := seedQuotation(t, s, dist, client, []domain.QuotationItem{{ProductID: p.ID, Quantity: 1, UnitPrice: 10}})

	att, err := uploadTestFile(t, a, dist, q.ID, "offer.pdf", "pdf-bytes")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := a.DeleteAttachment(ctx, client, att.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for client, got: %v", err)
	}
	if err := a.DeleteAttachment(ctx, dist, att.ID); err != nil {
		t.Fatalf("creator delete: %v", err)
	}
	if err := a.DeleteAttachment(ctx, dist, att.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got: %v", err)
	}

	// After sending, only the admin may remove attachments.
	att2, err := uploadTestFile(t, a, dist, q.ID, "second.pdf", "pdf-bytes")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	sent := domain.StatusSent
	if _, err := a.UpdateQuotation(ctx, dist, QuotationUpdateInput{ID: q.ID, Status: &sent}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := a.DeleteAttachment(ctx, dist, att2.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden after draft, got: %v", err)
	}
	if err := a.DeleteAttachment(ctx, admin, att2.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}

func TestDeleteQuotationCleansUpAttachments(t *testing.T) {
	a, s := newTestApp(t)
	ctx := context.Background()
	dist := seedUser(t, s, "d@example.com", domain.RoleDistributor)
	client := seedUser(t, s, "c@example.com", domain.RoleClient)
	p := seedProduct(t, s, dist, "widget", 10)
	q := seedQuotation(t, s, dist, client, []domain.QuotationItem{{ProductID: p.ID, Quantity: 1, UnitPrice: 10}})

	att, err := uploadTestFile(t, a, dist, q.ID, "offer.pdf", "pdf-bytes")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := a.DeleteQuotation(ctx, dist, q.ID); err != nil {
		t.Fatalf("delete quotation: %v", err)
	}
	if _, ok, _ := s.GetAttachment(ctx, att.ID); ok {
		t.Fatal("attachment row should be gone with the quotation")
	}
}
