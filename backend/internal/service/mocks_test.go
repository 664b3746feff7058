package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/ebrain/board/backend/internal/search"
	"github.com/ebrain/board/shared/domain"
	"github.com/ebrain/board/shared/errors"
)

// MockStorage mocks Storage. Unset funcs return zero values.
type MockStorage struct {
	listPostsFunc         func(ctx context.Context, kind domain.BoardKind, q search.Query) ([]domain.PostSummary, int64, error)
	getPostFunc           func(ctx context.Context, kind domain.BoardKind, id domain.PostId) (*domain.Post, error)
	createPostFunc        func(ctx context.Context, kind domain.BoardKind, p domain.PostInsert) (domain.PostId, error)
	updatePostFunc        func(ctx context.Context, kind domain.BoardKind, p *domain.Post) error
	deletePostFunc        func(ctx context.Context, kind domain.BoardKind, id domain.PostId) error
	increaseViewCountFunc func(ctx context.Context, kind domain.BoardKind, id domain.PostId) (int64, error)
	countFixedFunc        func(ctx context.Context, kind domain.BoardKind) (int, error)
	lockFixedFunc         func(ctx context.Context, kind domain.BoardKind) error

	createAttachmentFunc   func(ctx context.Context, a *domain.Attachment) (domain.AttachmentId, error)
	listAttachmentsFunc    func(ctx context.Context, kind domain.BoardKind, postId domain.PostId) ([]domain.Attachment, error)
	getAttachmentFunc      func(ctx context.Context, id domain.AttachmentId) (*domain.Attachment, error)
	deleteAttachmentsFunc  func(ctx context.Context, kind domain.BoardKind, postId domain.PostId) error
	createThumbnailFunc    func(ctx context.Context, t *domain.Thumbnail) (domain.ThumbnailId, error)
	getThumbnailByFileFunc func(ctx context.Context, fileId domain.AttachmentId) (*domain.Thumbnail, error)
	listThumbnailsFunc     func(ctx context.Context, kind domain.BoardKind, postId domain.PostId) ([]domain.Thumbnail, error)
	getAllBlobPathsFunc    func(ctx context.Context) ([]string, error)

	listCommentsFunc         func(ctx context.Context, kind domain.BoardKind, postId domain.PostId) ([]domain.Comment, error)
	createCommentFunc        func(ctx context.Context, c *domain.Comment) (domain.CommentId, error)
	getCommentFunc           func(ctx context.Context, id domain.CommentId) (*domain.Comment, error)
	deleteCommentFunc        func(ctx context.Context, id domain.CommentId) error
	deleteCommentsByPostFunc func(ctx context.Context, kind domain.BoardKind, postId domain.PostId) error

	getAnswerFunc    func(ctx context.Context, inquiryId domain.PostId) (*domain.Answer, error)
	createAnswerFunc func(ctx context.Context, a *domain.Answer) (domain.AnswerId, error)
	updateAnswerFunc func(ctx context.Context, a *domain.Answer) error
	deleteAnswerFunc func(ctx context.Context, inquiryId domain.PostId) error

	listCategoriesFunc func(ctx context.Context, kind domain.BoardKind) ([]domain.Category, error)

	withTxFunc func(ctx context.Context, fn func(tx Storage) error) error
}

func (m *MockStorage) ListPosts(ctx context.Context, kind domain.BoardKind, q search.Query) ([]domain.PostSummary, int64, error) {
	if m.listPostsFunc != nil {
		return m.listPostsFunc(ctx, kind, q)
	}
	return nil, 0, nil
}

func (m *MockStorage) GetPost(ctx context.Context, kind domain.BoardKind, id domain.PostId) (*domain.Post, error) {
	if m.getPostFunc != nil {
		return m.getPostFunc(ctx, kind, id)
	}
	return nil, errors.NotFound(errors.CodeBoardNotFound, "post not found")
}

func (m *MockStorage) CreatePost(ctx context.Context, kind domain.BoardKind, p domain.PostInsert) (domain.PostId, error) {
	if m.createPostFunc != nil {
		return m.createPostFunc(ctx, kind, p)
	}
	return 1, nil
}

func (m *MockStorage) UpdatePost(ctx context.Context, kind domain.BoardKind, p *domain.Post) error {
	if m.updatePostFunc != nil {
		return m.updatePostFunc(ctx, kind, p)
	}
	return nil
}

func (m *MockStorage) DeletePost(ctx context.Context, kind domain.BoardKind, id domain.PostId) error {
	if m.deletePostFunc != nil {
		return m.deletePostFunc(ctx, kind, id)
	}
	return nil
}

func (m *MockStorage) IncreaseViewCount(ctx context.Context, kind domain.BoardKind, id domain.PostId) (int64, error) {
	if m.increaseViewCountFunc != nil {
		return m.increaseViewCountFunc(ctx, kind, id)
	}
	return 1, nil
}

func (m *MockStorage) CountFixed(ctx context.Context, kind domain.BoardKind) (int, error) {
	if m.countFixedFunc != nil {
		return m.countFixedFunc(ctx, kind)
	}
	return 0, nil
}

func (m *MockStorage) LockFixed(ctx context.Context, kind domain.BoardKind) error {
	if m.lockFixedFunc != nil {
		return m.lockFixedFunc(ctx, kind)
	}
	return nil
}

func (m *MockStorage) CreateAttachment(ctx context.Context, a *domain.Attachment) (domain.AttachmentId, error) {
	if m.createAttachmentFunc != nil {
		return m.createAttachmentFunc(ctx, a)
	}
	return 1, nil
}

func (m *MockStorage) ListAttachments(ctx context.Context, kind domain.BoardKind, postId domain.PostId) ([]domain.Attachment, error) {
	if m.listAttachmentsFunc != nil {
		return m.listAttachmentsFunc(ctx, kind, postId)
	}
	return nil, nil
}

func (m *MockStorage) GetAttachment(ctx context.Context, id domain.AttachmentId) (*domain.Attachment, error) {
	if m.getAttachmentFunc != nil {
		return m.getAttachmentFunc(ctx, id)
	}
	return nil, errors.NotFound(errors.CodeFileNotFound, "file not found")
}

func (m *MockStorage) DeleteAttachments(ctx context.Context, kind domain.BoardKind, postId domain.PostId) error {
	if m.deleteAttachmentsFunc != nil {
		return m.deleteAttachmentsFunc(ctx, kind, postId)
	}
	return nil
}

func (m *MockStorage) CreateThumbnail(ctx context.Context, t *domain.Thumbnail) (domain.ThumbnailId, error) {
	if m.createThumbnailFunc != nil {
		return m.createThumbnailFunc(ctx, t)
	}
	return 1, nil
}

func (m *MockStorage) GetThumbnailByFile(ctx context.Context, fileId domain.AttachmentId) (*domain.Thumbnail, error) {
	if m.getThumbnailByFileFunc != nil {
		return m.getThumbnailByFileFunc(ctx, fileId)
	}
	return nil, nil
}

func (m *MockStorage) ListThumbnails(ctx context.Context, kind domain.BoardKind, postId domain.PostId) ([]domain.Thumbnail, error) {
	if m.listThumbnailsFunc != nil {
		return m.listThumbnailsFunc(ctx, kind, postId)
	}
	return nil, nil
}

func (m *MockStorage) GetAllBlobPaths(ctx context.Context) ([]string, error) {
	if m.getAllBlobPathsFunc != nil {
		return m.getAllBlobPathsFunc(ctx)
	}
	return nil, nil
}

func (m *MockStorage) ListComments(ctx context.Context, kind domain.BoardKind, postId domain.PostId) ([]domain.Comment, error) {
	if m.listCommentsFunc != nil {
		return m.listCommentsFunc(ctx, kind, postId)
	}
	return nil, nil
}

func (m *MockStorage) CreateComment(ctx context.Context, c *domain.Comment) (domain.CommentId, error) {
	if m.createCommentFunc != nil {
		return m.createCommentFunc(ctx, c)
	}
	return 1, nil
}

func (m *MockStorage) GetComment(ctx context.Context, id domain.CommentId) (*domain.Comment, error) {
	if m.getCommentFunc != nil {
		return m.getCommentFunc(ctx, id)
	}
	return nil, errors.NotFound(errors.CodeCommentNotFound, "comment not found")
}

func (m *MockStorage) DeleteComment(ctx context.Context, id domain.CommentId) error {
	if m.deleteCommentFunc != nil {
		return m.deleteCommentFunc(ctx, id)
	}
	return nil
}

func (m *MockStorage) DeleteCommentsByPost(ctx context.Context, kind domain.BoardKind, postId domain.PostId) error {
	if m.deleteCommentsByPostFunc != nil {
		return m.deleteCommentsByPostFunc(ctx, kind, postId)
	}
	return nil
}

func (m *MockStorage) GetAnswer(ctx context.Context, inquiryId domain.PostId) (*domain.Answer, error) {
	if m.getAnswerFunc != nil {
		return m.getAnswerFunc(ctx, inquiryId)
	}
	return nil, nil
}

func (m *MockStorage) CreateAnswer(ctx context.Context, a *domain.Answer) (domain.AnswerId, error) {
	if m.createAnswerFunc != nil {
		return m.createAnswerFunc(ctx, a)
	}
	return 1, nil
}

func (m *MockStorage) UpdateAnswer(ctx context.Context, a *domain.Answer) error {
	if m.updateAnswerFunc != nil {
		return m.updateAnswerFunc(ctx, a)
	}
	return nil
}

func (m *MockStorage) DeleteAnswer(ctx context.Context, inquiryId domain.PostId) error {
	if m.deleteAnswerFunc != nil {
		return m.deleteAnswerFunc(ctx, inquiryId)
	}
	return nil
}

func (m *MockStorage) ListCategories(ctx context.Context, kind domain.BoardKind) ([]domain.Category, error) {
	if m.listCategoriesFunc != nil {
		return m.listCategoriesFunc(ctx, kind)
	}
	return nil, nil
}

func (m *MockStorage) WithTx(ctx context.Context, fn func(tx Storage) error) error {
	if m.withTxFunc != nil {
		return m.withTxFunc(ctx, fn)
	}
	return fn(m)
}

// MockBlobStorage keeps blobs in memory.
type MockBlobStorage struct {
	mu       sync.Mutex
	files    map[string][]byte
	modTimes map[string]time.Time

	saveErr   error
	deleteErr func(path string) error
	deleted   []string
}

func NewMockBlobStorage() *MockBlobStorage {
	return &MockBlobStorage{files: map[string][]byte{}, modTimes: map[string]time.Time{}}
}

func (m *MockBlobStorage) Save(ctx context.Context, dir, name string, r io.Reader) (int64, error) {
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := dir + "/" + name
	m.files[p] = data
	m.modTimes[p] = time.Now().Add(-time.Hour)
	return int64(len(data)), nil
}

func (m *MockBlobStorage) Read(ctx context.Context, p string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[p]
	if !ok {
		return nil, errors.NotFound(errors.CodeFileNotFound, "file not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockBlobStorage) Delete(ctx context.Context, p string) error {
	if m.deleteErr != nil {
		if err := m.deleteErr(p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, p)
	m.deleted = append(m.deleted, p)
	return nil
}

func (m *MockBlobStorage) Walk(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (m *MockBlobStorage) ModTime(ctx context.Context, p string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.modTimes[p]
	if !ok {
		return time.Time{}, errors.NotFound(errors.CodeFileNotFound, "file not found")
	}
	return t, nil
}

func (m *MockBlobStorage) put(p string, data []byte, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[p] = data
	m.modTimes[p] = modTime
}

func (m *MockBlobStorage) paths() []string {
	paths, _ := m.Walk(context.Background())
	return paths
}

type MockCategoryCache struct {
	getFunc func(ctx context.Context, kind domain.BoardKind) ([]domain.Category, bool, error)
	setFunc func(ctx context.Context, kind domain.BoardKind, categories []domain.Category) error
}

func (m *MockCategoryCache) Get(ctx context.Context, kind domain.BoardKind) ([]domain.Category, bool, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, kind)
	}
	return nil, false, nil
}

func (m *MockCategoryCache) Set(ctx context.Context, kind domain.BoardKind, categories []domain.Category) error {
	if m.setFunc != nil {
		return m.setFunc(ctx, kind, categories)
	}
	return nil
}

var (
	alice = &domain.Identity{Type: domain.AuthorMember, Id: "alice", Name: "Alice"}
	bob   = &domain.Identity{Type: domain.AuthorMember, Id: "bob", Name: "Bob"}
	admin = &domain.Identity{Type: domain.AuthorAdmin, Id: "root", Name: "Admin"}
)

func ptr[T any](v T) *T { return &v }

func timeAgo(d time.Duration) time.Time { return time.Now().Add(-d) }
