package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"quotedesk/pkg/domain"
	"quotedesk/pkg/store"
)

// AttachmentUpload describes an incoming file for a quotation.
type AttachmentUpload struct {
	QuotationID string
	FileName    string
	ContentType string
	SizeBytes   int64
	Body        io.Reader
}

// AttachmentURL is a presigned download link.
type AttachmentURL struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// UploadAttachment stores the file bytes and inserts the attachment row.
// Admin or creator only, and only while the quotation is a draft.
func (a *App) UploadAttachment(ctx context.Context, actor domain.User, up AttachmentUpload) (domain.Attachment, error) {
	if a.objects == nil {
		return domain.Attachment{}, fmt.Errorf("upload attachment: object store not configured")
	}
	q, err := a.mutableQuotation(ctx, actor, up.QuotationID)
	if err != nil {
		return domain.Attachment{}, err
	}
	if q.Status != domain.StatusDraft {
		return domain.Attachment{}, fmt.Errorf("attachments are fixed after draft: %w", ErrForbidden)
	}
	fileName := safeFileName(up.FileName)
	if fileName == "" {
		return domain.Attachment{}, validationf("file name is required")
	}
	if up.SizeBytes <= 0 {
		return domain.Attachment{}, validationf("file is empty")
	}

	id := store.NewID()
	key := fmt.Sprintf("quotations/%s/%s/%s", q.ID, id, fileName)
	if err := a.objects.Put(ctx, key, up.Body, up.SizeBytes, up.ContentType); err != nil {
		return domain.Attachment{}, fmt.Errorf("store attachment object: %w", err)
	}
	att, err := a.store.AddAttachment(ctx, domain.Attachment{
		ID:          id,
		QuotationID: q.ID,
		FileName:    fileName,
		StorageKey:  key,
		ContentType: up.ContentType,
		SizeBytes:   up.SizeBytes,
		Metadata:    map[string]string{"uploadedBy": actor.ID},
	})
	if err != nil {
		// Row insert failed; drop the stored object so nothing leaks.
		if delErr := a.objects.Delete(ctx, key); delErr != nil {
			slog.Warn("orphaned attachment object", "key", key, "error", delErr)
		}
		return domain.Attachment{}, fmt.Errorf("record attachment: %w", err)
	}
	return att, nil
}

// AttachmentDownloadURL presigns a download link for a party of the
// quotation.
func (a *App) AttachmentDownloadURL(ctx context.Context, actor domain.User, id string) (AttachmentURL, error) {
	if a.objects == nil {
		return AttachmentURL{}, fmt.Errorf("attachment url: object store not configured")
	}
	att, q, err := a.attachmentWithQuotation(ctx, id)
	if err != nil {
		return AttachmentURL{}, err
	}
	if actor.Role != domain.RoleAdmin && q.CreatedByID != actor.ID && q.ClientID != actor.ID {
		return AttachmentURL{}, fmt.Errorf("attachment url: %w", ErrForbidden)
	}
	url, err := a.objects.PresignGet(ctx, att.StorageKey, a.presignTTL)
	if err != nil {
		return AttachmentURL{}, fmt.Errorf("presign attachment: %w", err)
	}
	return AttachmentURL{ID: att.ID, URL: url}, nil
}

// DeleteAttachment removes the row, then the object best effort. Admin or
// creator only; non-admins only while the quotation is a draft.
func (a *App) DeleteAttachment(ctx context.Context, actor domain.User, id string) error {
	att, q, err := a.attachmentWithQuotation(ctx, id)
	if err != nil {
		return err
	}
	if actor.Role != domain.RoleAdmin {
		if q.CreatedByID != actor.ID {
			return fmt.Errorf("delete attachment: %w", ErrForbidden)
		}
		if q.Status != domain.StatusDraft {
			return fmt.Errorf("attachments are fixed after draft: %w", ErrForbidden)
		}
	}
	if err := a.store.DeleteAttachment(ctx, att.ID); err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	a.removeObjects(ctx, []domain.Attachment{att})
	return nil
}

func (a *App) attachmentWithQuotation(ctx context.Context, id string) (domain.Attachment, domain.Quotation, error) {
	att, ok, err := a.store.GetAttachment(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Attachment{}, domain.Quotation{}, fmt.Errorf("get attachment: %w", err)
	}
	if !ok {
		return domain.Attachment{}, domain.Quotation{}, fmt.Errorf("attachment: %w", ErrNotFound)
	}
	q, ok, err := a.store.GetQuotation(ctx, att.QuotationID)
	if err != nil {
		return domain.Attachment{}, domain.Quotation{}, fmt.Errorf("get quotation: %w", err)
	}
	if !ok {
		return domain.Attachment{}, domain.Quotation{}, fmt.Errorf("quotation: %w", ErrNotFound)
	}
	return att, q, nil
}

// removeObjects deletes stored objects after their rows are gone. Failures
// are logged, not returned; the rows are already committed.
func (a *App) removeObjects(ctx context.Context, atts []domain.Attachment) {
	if a.objects == nil {
		return
	}
	for _, att := range atts {
		if att.StorageKey == "" {
			continue
		}
		if err := a.objects.Delete(ctx, att.StorageKey); err != nil {
			slog.Warn("attachment object cleanup failed", "key", att.StorageKey, "error", err)
		}
	}
}

func safeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
