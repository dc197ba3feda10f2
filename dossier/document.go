package dossier

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/warp/pension-engine/pension"
)

// DocumentService stores supporting documents of case files.
type DocumentService struct {
	store   pension.Store
	clock   Clock
	maxSize int64
}

// UploadInput is one uploaded file.
type UploadInput struct {
	CaseFileID  string
	FileName    string
	MimeType    string
	Description string
	Content     []byte
}

// MaxSize is the upload limit in bytes.
func (s *DocumentService) MaxSize() int64 { return s.maxSize }

// Upload validates and stores a document. The MIME type is guessed from the
// extension, then from the content, when the client did not send one.
func (s *DocumentService) Upload(ctx context.Context, in UploadInput) (pension.Document, error) {
	if len(in.Content) == 0 {
		return pension.Document{}, pension.ErrEmptyDocument
	}
	if int64(len(in.Content)) > s.maxSize {
		return pension.Document{}, fmt.Errorf("%w: %d bytes exceeds %d", pension.ErrDocumentTooLarge, len(in.Content), s.maxSize)
	}
	if _, err := s.store.GetCaseFile(ctx, in.CaseFileID); err != nil {
		return pension.Document{}, err
	}

	fileName := filepath.Base(strings.TrimSpace(in.FileName))
	if fileName == "." || fileName == "/" || fileName == "" {
		return pension.Document{}, &pension.ValidationError{Field: "file", Reason: "file name required"}
	}

	d := pension.Document{
		ID:          newID(),
		CaseFileID:  in.CaseFileID,
		Name:        fileName,
		FileName:    fileName,
		MimeType:    detectMimeType(fileName, in.MimeType, in.Content),
		Size:        int64(len(in.Content)),
		Description: strings.TrimSpace(in.Description),
		UploadedAt:  s.clock.Now(),
		Content:     in.Content,
	}
	if err := s.store.SaveDocument(ctx, d); err != nil {
		return pension.Document{}, err
	}
	d.Content = nil
	return d, nil
}

func detectMimeType(fileName, declared string, content []byte) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(filepath.Ext(fileName)); byExt != "" {
		return byExt
	}
	return http.DetectContentType(content)
}

func (s *DocumentService) Get(ctx context.Context, id string) (pension.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// Download returns the document with its content.
func (s *DocumentService) Download(ctx context.Context, id string) (pension.Document, error) {
	d, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return pension.Document{}, err
	}
	content, err := s.store.GetDocumentContent(ctx, id)
	if err != nil {
		return pension.Document{}, err
	}
	d.Content = content
	return d, nil
}

func (s *DocumentService) ListByCaseFile(ctx context.Context, caseFileID string) ([]pension.Document, error) {
	if _, err := s.store.GetCaseFile(ctx, caseFileID); err != nil {
		return nil, err
	}
	return s.store.ListDocuments(ctx, caseFileID)
}

func (s *DocumentService) List(ctx context.Context) ([]pension.Document, error) {
	return s.store.ListDocuments(ctx, "")
}

func (s *DocumentService) UpdateDescription(ctx context.Context, id, description string) (pension.Document, error) {
	if err := s.store.UpdateDocumentDescription(ctx, id, strings.TrimSpace(description)); err != nil {
		return pension.Document{}, err
	}
	return s.store.GetDocument(ctx, id)
}

func (s *DocumentService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteDocument(ctx, id)
}
