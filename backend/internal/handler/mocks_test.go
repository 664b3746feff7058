package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ebrain/board/shared/config"
	"github.com/ebrain/board/shared/domain"
	"github.com/ebrain/board/shared/errors"
	mw "github.com/ebrain/board/shared/middleware"
)

type MockPostService struct {
	MockList              func(ctx context.Context, kind domain.BoardKind, criteria domain.SearchCriteria, identity *domain.Identity) (*domain.PostPage, error)
	MockGet               func(ctx context.Context, kind domain.BoardKind, id domain.PostId, identity *domain.Identity) (*domain.Post, error)
	MockCreate            func(ctx context.Context, kind domain.BoardKind, data domain.PostCreationData, identity *domain.Identity) (domain.PostId, error)
	MockUpdate            func(ctx context.Context, kind domain.BoardKind, id domain.PostId, data domain.PostUpdateData, identity *domain.Identity) error
	MockDelete            func(ctx context.Context, kind domain.BoardKind, id domain.PostId, identity *domain.Identity) error
	MockModerate          func(ctx context.Context, kind domain.BoardKind, id domain.PostId, identity *domain.Identity) error
	MockIncreaseViewCount func(ctx context.Context, kind domain.BoardKind, id domain.PostId) (int64, error)
	MockCheckAuthor       func(ctx context.Context, kind domain.BoardKind, id domain.PostId, identity *domain.Identity) (bool, error)
	MockCountFixed        func(ctx context.Context, kind domain.BoardKind) (int, error)
}

func (m *MockPostService) List(ctx context.Context, kind domain.BoardKind, criteria domain.SearchCriteria, identity *domain.Identity) (*domain.PostPage, error) {
	if m.MockList != nil {
		return m.MockList(ctx, kind, criteria, identity)
	}
	return &domain.PostPage{Posts: []domain.PostSummary{}}, nil
}

func (m *MockPostService) Get(ctx context.Context, kind domain.BoardKind, id domain.PostId, identity *domain.Identity) (*domain.Post, error) {
	if m.MockGet != nil {
		return m.MockGet(ctx, kind, id, identity)
	}
	return &domain.Post{Id: id, Kind: kind}, nil
}

func (m *MockPostService) Create(ctx context.Context, kind domain.BoardKind, data domain.PostCreationData, identity *domain.Identity) (domain.PostId, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, kind, data, identity)
	}
	return 1, nil
}

func (m *MockPostService) Update(ctx context.Context, kind domain.BoardKind, id domain.PostId, data domain.PostUpdateData, identity *domain.Identity) error {
	if m.MockUpdate != nil {
		return m.MockUpdate(ctx, kind, id, data, identity)
	}
	return nil
}

func (m *MockPostService) Delete(ctx context.Context, kind domain.BoardKind, id domain.PostId, identity *domain.Identity) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, kind, id, identity)
	}
	return nil
}

func (m *MockPostService) Moderate(ctx context.Context, kind domain.BoardKind, id domain.PostId, identity *domain.Identity) error {
	if m.MockModerate != nil {
		return m.MockModerate(ctx, kind, id, identity)
	}
	return nil
}

func (m *MockPostService) IncreaseViewCount(ctx context.Context, kind domain.BoardKind, id domain.PostId) (int64, error) {
	if m.MockIncreaseViewCount != nil {
		return m.MockIncreaseViewCount(ctx, kind, id)
	}
	return 1, nil
}

func (m *MockPostService) CheckAuthor(ctx context.Context, kind domain.BoardKind, id domain.PostId, identity *domain.Identity) (bool, error) {
	if m.MockCheckAuthor != nil {
		return m.MockCheckAuthor(ctx, kind, id, identity)
	}
	return false, nil
}

func (m *MockPostService) CountFixed(ctx context.Context, kind domain.BoardKind) (int, error) {
	if m.MockCountFixed != nil {
		return m.MockCountFixed(ctx, kind)
	}
	return 0, nil
}

type MockCommentService struct {
	MockList      func(ctx context.Context, kind domain.BoardKind, postId domain.PostId, identity *domain.Identity) ([]domain.Comment, error)
	MockCreate    func(ctx context.Context, kind domain.BoardKind, postId domain.PostId, content string, identity *domain.Identity) (domain.CommentId, error)
	MockDelete    func(ctx context.Context, id domain.CommentId, identity *domain.Identity) error
	MockDeleteAny func(ctx context.Context, id domain.CommentId, identity *domain.Identity) error
}

func (m *MockCommentService) List(ctx context.Context, kind domain.BoardKind, postId domain.PostId, identity *domain.Identity) ([]domain.Comment, error) {
	if m.MockList != nil {
		return m.MockList(ctx, kind, postId, identity)
	}
	return []domain.Comment{}, nil
}

func (m *MockCommentService) Create(ctx context.Context, kind domain.BoardKind, postId domain.PostId, content string, identity *domain.Identity) (domain.CommentId, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, kind, postId, content, identity)
	}
	return 1, nil
}

func (m *MockCommentService) Delete(ctx context.Context, id domain.CommentId, identity *domain.Identity) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, id, identity)
	}
	return nil
}

func (m *MockCommentService) DeleteAny(ctx context.Context, id domain.CommentId, identity *domain.Identity) error {
	if m.MockDeleteAny != nil {
		return m.MockDeleteAny(ctx, id, identity)
	}
	return nil
}

type MockAnswerService struct {
	MockGet    func(ctx context.Context, inquiryId domain.PostId, identity *domain.Identity) (*domain.Answer, error)
	MockCreate func(ctx context.Context, inquiryId domain.PostId, content string, identity *domain.Identity) (domain.AnswerId, error)
	MockUpdate func(ctx context.Context, inquiryId domain.PostId, content string, identity *domain.Identity) error
	MockDelete func(ctx context.Context, inquiryId domain.PostId, identity *domain.Identity) error
}

func (m *MockAnswerService) Get(ctx context.Context, inquiryId domain.PostId, identity *domain.Identity) (*domain.Answer, error) {
	if m.MockGet != nil {
		return m.MockGet(ctx, inquiryId, identity)
	}
	return &domain.Answer{InquiryId: inquiryId}, nil
}

func (m *MockAnswerService) Create(ctx context.Context, inquiryId domain.PostId, content string, identity *domain.Identity) (domain.AnswerId, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, inquiryId, content, identity)
	}
	return 1, nil
}

func (m *MockAnswerService) Update(ctx context.Context, inquiryId domain.PostId, content string, identity *domain.Identity) error {
	if m.MockUpdate != nil {
		return m.MockUpdate(ctx, inquiryId, content, identity)
	}
	return nil
}

func (m *MockAnswerService) Delete(ctx context.Context, inquiryId domain.PostId, identity *domain.Identity) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, inquiryId, identity)
	}
	return nil
}

type MockCategoryService struct {
	MockList func(ctx context.Context, kind domain.BoardKind) ([]domain.Category, error)
}

func (m *MockCategoryService) List(ctx context.Context, kind domain.BoardKind) ([]domain.Category, error) {
	if m.MockList != nil {
		return m.MockList(ctx, kind)
	}
	return []domain.Category{}, nil
}

func (m *MockCategoryService) Exists(ctx context.Context, kind domain.BoardKind, id domain.CategoryId) (bool, error) {
	return true, nil
}

type MockFileService struct {
	MockReadAttachment func(ctx context.Context, id domain.AttachmentId, identity *domain.Identity) (*domain.Attachment, io.ReadCloser, error)
	MockReadThumbnail  func(ctx context.Context, fileId domain.AttachmentId, identity *domain.Identity) (*domain.Thumbnail, io.ReadCloser, error)
}

func (m *MockFileService) ReadAttachment(ctx context.Context, id domain.AttachmentId, identity *domain.Identity) (*domain.Attachment, io.ReadCloser, error) {
	if m.MockReadAttachment != nil {
		return m.MockReadAttachment(ctx, id, identity)
	}
	return nil, nil, errors.NotFound(errors.CodeFileNotFound, "file not found")
}

func (m *MockFileService) ReadThumbnail(ctx context.Context, fileId domain.AttachmentId, identity *domain.Identity) (*domain.Thumbnail, io.ReadCloser, error) {
	if m.MockReadThumbnail != nil {
		return m.MockReadThumbnail(ctx, fileId, identity)
	}
	return nil, nil, errors.NotFound(errors.CodeFileNotFound, "thumbnail not found")
}

var (
	alice = &domain.Identity{Type: domain.AuthorMember, Id: "alice", Name: "Alice"}
	admin = &domain.Identity{Type: domain.AuthorAdmin, Id: "root", Name: "Admin"}
)

func testConfig() *config.Config {
	return &config.Config{Public: config.Public{
		MaxAttachments:         3,
		MaxTotalAttachmentSize: 1 << 20,
		AllowedMimeTypes:       []string{"image/png", "image/jpeg", "application/pdf"},
	}}
}

// newTestHandler fills every service with a default mock.
func newTestHandler() (*Handler, *MockPostService, *MockCommentService, *MockAnswerService, *MockFileService) {
	posts := &MockPostService{}
	comments := &MockCommentService{}
	answers := &MockAnswerService{}
	files := &MockFileService{}
	h := New(Services{
		Posts:      posts,
		Comments:   comments,
		Answers:    answers,
		Categories: &MockCategoryService{},
		Files:      files,
	}, &MockHealthChecker{}, testConfig())
	return h, posts, comments, answers, files
}

// serve routes req through a chi router so URL params resolve, as identity when non-nil.
func serve(pattern, method string, fn http.HandlerFunc, req *http.Request, identity *domain.Identity) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Method(method, pattern, fn)
	if identity != nil {
		req = req.WithContext(mw.WithIdentity(req.Context(), identity))
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func jsonRequest(t *testing.T, method, url string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, url, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type upload struct {
	name, contentType string
	data              []byte
}

func multipartRequest(t *testing.T, method, url string, payload any, files ...upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mwriter := multipart.NewWriter(&buf)

	b, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, mwriter.WriteField("json", string(b)))

	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="attachments"; filename="`+f.name+`"`)
		header.Set("Content-Type", f.contentType)
		part, err := mwriter.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mwriter.Close())

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", mwriter.FormDataContentType())
	return req
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}
